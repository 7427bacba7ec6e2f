package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tkhalvaji/youtube-comment-analyzer/analyzer"
)

var (
	cfg     Config
	logger  zerolog.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ytca",
	Short: "Analyze YouTube comments with a multi-stage NLP pipeline",
	Long: `ytca manages incremental ingestion and four-stage NLP analysis of
YouTube comments for a channel. Source snapshots are merged additively into a
canonical per-channel store; analysis runs in checkpointed batches so repeated
runs only process new data.

Examples:
  ytca update input_data/mychannel.json     # merge a source snapshot
  ytca analyze input_data/mychannel.json    # analyze new comments
  ytca stats input_data/mychannel.json      # show channel statistics`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return err
		}

		lvl, perr := zerolog.ParseLevel(cfg.LogLevel)
		if perr != nil {
			lvl = zerolog.InfoLevel
		}
		if verbose && lvl > zerolog.DebugLevel {
			lvl = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(lvl).
			With().Timestamp().Logger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print per-comment analysis results")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newStore() *analyzer.Store {
	return &analyzer.Store{Dir: cfg.ProcessedDir, Pretty: cfg.PrettyStore, Log: logger}
}

func storePathFor(sourcePath string) string {
	return newStore().PathFor(analyzer.StemOf(sourcePath))
}
