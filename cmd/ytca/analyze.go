package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tkhalvaji/youtube-comment-analyzer/analyzer"
	"github.com/tkhalvaji/youtube-comment-analyzer/analyzer/hfapi"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <source.json>",
	Short: "Analyze unanalyzed comments in checkpointed batches",
	Long: `Select comments without analysis (newest first per video), run them
through the four-stage pipeline, and checkpoint the store after every batch.
Interrupting a run loses at most one batch; already-persisted comments are
never re-analyzed.

Examples:
  ytca analyze input_data/mychannel.json                  # all videos
  ytca analyze input_data/mychannel.json --videos 5       # first 5 videos
  ytca analyze input_data/mychannel.json --comments 50    # 50 newest per video
  ytca analyze input_data/mychannel.json --video VIDEO_ID # one video, all new`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Int("comments", 0, "max new comments per video (0 = config default)")
	analyzeCmd.Flags().Int("videos", 0, "how many videos to process (0 = all)")
	analyzeCmd.Flags().String("video", "", "analyze a single video by id (all new comments)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	perVideo, _ := cmd.Flags().GetInt("comments")
	maxVideos, _ := cmd.Flags().GetInt("videos")
	videoID, _ := cmd.Flags().GetString("video")
	if perVideo <= 0 {
		perVideo = cfg.CommentsPerVideo
	}

	store := newStore()
	storePath := storePathFor(args[0])

	ch, err := store.Load(storePath)
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("no store for %s: run 'ytca update' first", args[0])
	}

	ctx := cmd.Context()

	client := hfapi.NewClient(cfg.HF.Token,
		hfapi.WithBaseURL(cfg.HF.BaseURL),
		hfapi.WithLogger(logger),
	)
	models := hfapi.Models{
		SourceEmotion: cfg.HF.SourceEmotionModel,
		Translation:   cfg.HF.TranslationModel,
		TargetEmotion: cfg.HF.TargetEmotionModel,
		Irony:         cfg.HF.IronyModel,
	}

	logger.Info().Msg("checking analysis models")
	if err := hfapi.CheckAll(ctx, client, models); err != nil {
		return fmt.Errorf("model check failed: %w", err)
	}

	var cands []analyzer.Candidate
	if videoID != "" {
		v, ok := ch.Videos[videoID]
		if !ok {
			return fmt.Errorf("unknown video id %q", videoID)
		}
		cands = analyzer.SelectVideoCandidates(v, 0)
	} else {
		cands = analyzer.SelectCandidates(ch, maxVideos, perVideo)
	}

	proc := &analyzer.Processor{
		Analyzer: &analyzer.Runner{
			Stages: hfapi.Stages(client, models),
			Log:    logger,
		},
		CheckpointEvery: cfg.CheckpointEvery,
		Verbose:         verbose,
		Log:             logger,
	}

	processed, err := proc.Process(ctx, ch, cands, store.Sink(storePath))
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Fprintf(cmd.OutOrStdout(), "Analysis complete. Analyzed %d new comments.\n", processed)
	return nil
}
