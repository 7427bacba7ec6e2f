package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <source.json>",
	Short: "Show statistics for a channel's canonical store",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	store := newStore()
	ch, err := store.Load(storePathFor(args[0]))
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("no store for %s: run 'ytca update' first", args[0])
	}

	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	bold.Fprintf(out, "Statistics for %q\n\n", ch.Metadata.Title)

	st := ch.Stats()
	lastUpdate := "Never"
	if st.LastSourceUpdate != nil {
		lastUpdate = st.LastSourceUpdate.Format(time.RFC3339)
	}

	table := tablewriter.NewTable(out)
	table.Header([]string{"Metric", "Value"})
	table.Bulk([][]string{
		{"Total Videos", strconv.Itoa(st.TotalVideos)},
		{"Total Comments", strconv.Itoa(st.TotalComments)},
		{"Analyzed Comments", strconv.Itoa(st.AnalyzedComments)},
		{"Unanalyzed Comments", strconv.Itoa(st.UnanalyzedComments)},
		{"Last Source Update", lastUpdate},
	})
	table.Render()

	if agg := ch.Aggregate; agg != nil {
		bold.Fprintf(out, "\nChannel aggregate (%d analyzed comments)\n\n", agg.TotalAnalyzedComments)
		scores := tablewriter.NewTable(out)
		scores.Header([]string{"Kind", "Label", "Avg"})
		scores.Bulk(scoreRows("source sentiment", agg.AvgSourceSentiment))
		scores.Bulk(scoreRows("target emotion", agg.AvgTargetEmotions))
		scores.Bulk(scoreRows("irony", agg.IronyDistribution))
		scores.Render()
	}
	return nil
}

func scoreRows(kind string, scores map[string]float64) [][]string {
	labels := make([]string, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, []string{kind, label, strconv.FormatFloat(scores[label], 'f', 4, 64)})
	}
	return rows
}
