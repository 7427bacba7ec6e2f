package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tkhalvaji/youtube-comment-analyzer/analyzer"
	"github.com/tkhalvaji/youtube-comment-analyzer/analyzer/fileutils"
)

var updateCmd = &cobra.Command{
	Use:   "update <source.json>",
	Short: "Merge a source snapshot into the canonical store",
	Long: `Parse and validate a source snapshot file, then merge it additively into
the channel's canonical store. New videos and comments are inserted, metadata
is refreshed from source, and existing comments (including any attached
analysis) are never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]
	store := newStore()
	storePath := store.PathFor(analyzer.StemOf(sourcePath))

	canonical, err := store.Load(storePath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("read source file: %w", err)
	}

	merged, stats, err := analyzer.MergeSource(canonical, raw, logger)
	if err != nil {
		return err
	}

	// Keep one backup of the pre-merge store.
	if copied, err := fileutils.BackupFile(storePath, storePath+".bak"); err != nil {
		logger.Warn().Err(err).Msg("could not back up store file")
	} else if copied {
		logger.Debug().Str("path", storePath+".bak").Msg("store backed up")
	}

	if err := store.Save(storePath, merged); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Fprintf(cmd.OutOrStdout(), "Update complete. Merged %d new videos and %d new comments.\n",
		stats.NewVideos, stats.NewComments)
	return nil
}
