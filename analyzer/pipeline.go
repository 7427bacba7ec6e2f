package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tkhalvaji/youtube-comment-analyzer/analyzer/fileutils"
)

// DefaultCheckpointEvery is the number of comments analyzed between
// checkpoints. It is independent of how many comments a run requests.
const DefaultCheckpointEvery = 10

// Candidate pairs an unanalyzed comment with the video that owns it, so the
// processor can recompute the right aggregates after attaching results.
type Candidate struct {
	Video   *Video
	Comment *Comment
}

// SelectVideoCandidates returns the unanalyzed comments of one video, newest
// first, capped at perVideo (0 = no cap).
func SelectVideoCandidates(v *Video, perVideo int) []Candidate {
	var cands []Candidate
	for _, c := range v.Comments {
		if c.Analysis == nil {
			cands = append(cands, Candidate{Video: v, Comment: c})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		ci, cj := cands[i].Comment, cands[j].Comment
		if !ci.PublishedAt.Equal(cj.PublishedAt) {
			return ci.PublishedAt.After(cj.PublishedAt)
		}
		return ci.CommentID < cj.CommentID
	})
	if perVideo > 0 && len(cands) > perVideo {
		cands = cands[:perVideo]
	}
	return cands
}

// SelectCandidates returns up to perVideo unanalyzed comments from each of
// the first maxVideos videos (0 = all). Videos are ordered newest-published
// first with the id as tie-break, so selection is deterministic across runs.
func SelectCandidates(ch *Channel, maxVideos, perVideo int) []Candidate {
	videos := make([]*Video, 0, len(ch.Videos))
	for _, v := range ch.Videos {
		videos = append(videos, v)
	}
	sort.Slice(videos, func(i, j int) bool {
		pi, pj := videos[i].Metadata.PublishedAt, videos[j].Metadata.PublishedAt
		switch {
		case pi == nil && pj == nil:
			return videos[i].Metadata.VideoID < videos[j].Metadata.VideoID
		case pi == nil:
			return false
		case pj == nil:
			return true
		case !pi.Equal(*pj):
			return pi.After(*pj)
		}
		return videos[i].Metadata.VideoID < videos[j].Metadata.VideoID
	})
	if maxVideos > 0 && len(videos) > maxVideos {
		videos = videos[:maxVideos]
	}

	var cands []Candidate
	for _, v := range videos {
		cands = append(cands, SelectVideoCandidates(v, perVideo)...)
	}
	return cands
}

// BatchAnalyzer is the analysis stage adapter as the processor sees it.
type BatchAnalyzer interface {
	AnalyzeBatch(ctx context.Context, texts []string) []*AnalysisResult
}

// Saver persists the full canonical store. Implementations must not corrupt
// the previously saved state when a write is interrupted.
type Saver interface {
	Save(ch *Channel) error
}

// Processor runs candidates through the stage adapter in fixed-size chunks
// and checkpoints the store after every chunk, so an interruption loses at
// most one chunk of work and restarts never re-analyze persisted comments.
type Processor struct {
	Analyzer        BatchAnalyzer
	CheckpointEvery int // defaults to DefaultCheckpointEvery when <= 0
	Verbose         bool
	Log             zerolog.Logger
}

// Process analyzes the candidate comments and returns how many were pushed
// through the pipeline. Zero candidates is a valid terminal state, not an
// error. Empty-text comments count as processed but keep a nil analysis.
//
// Per chunk: one adapter batch, in-place result attachment, aggregate
// recomputation for every video touched so far plus the channel, then a save.
// A save failure aborts the run; whatever was checkpointed stays durable and
// excluded from future selection. Cancellation is honored at chunk boundaries.
func (p *Processor) Process(ctx context.Context, ch *Channel, cands []Candidate, sink Saver) (int, error) {
	if len(cands) == 0 {
		p.Log.Info().Msg("no unanalyzed comments selected")
		return 0, nil
	}

	every := p.CheckpointEvery
	if every <= 0 {
		every = DefaultCheckpointEvery
	}

	touched := make(map[string]*Video)
	processed := 0

	for start := 0; start < len(cands); start += every {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		end := start + every
		if end > len(cands) {
			end = len(cands)
		}
		chunk := cands[start:end]

		texts := make([]string, len(chunk))
		for i, cand := range chunk {
			texts[i] = cand.Comment.TextOriginal
		}

		results := p.Analyzer.AnalyzeBatch(ctx, texts)
		for i, cand := range chunk {
			res := results[i]
			if res == nil {
				p.Log.Warn().Str("comment_id", cand.Comment.CommentID).
					Msg("skipping comment with empty text")
				continue
			}
			cand.Comment.Analysis = res
			touched[cand.Video.Metadata.VideoID] = cand.Video
			if p.Verbose {
				p.logResult(cand.Comment)
			}
		}
		processed += len(chunk)

		// Video aggregates first, channel aggregate second: the weighted
		// channel combination is exact only in that order.
		for _, v := range touched {
			v.Aggregate = AggregateVideo(v)
		}
		ch.Aggregate = AggregateChannel(ch)

		if err := sink.Save(ch); err != nil {
			return processed, fmt.Errorf("checkpoint after %d comments: %w", processed, err)
		}
		p.Log.Info().Int("processed", processed).Int("total", len(cands)).Msg("checkpoint saved")
	}

	return processed, nil
}

func (p *Processor) logResult(c *Comment) {
	ev := p.Log.Info().
		Str("comment_id", c.CommentID).
		Str("text", fileutils.TruncateForLog(fileutils.FlattenNewlines(c.TextOriginal), 100))
	if c.Analysis.TranslatedText != nil {
		ev = ev.Str("translated", fileutils.TruncateForLog(*c.Analysis.TranslatedText, 100))
	}
	if c.Analysis.Irony != nil {
		ev = ev.Str("irony", c.Analysis.Irony.Label)
	}
	ev.Msg("comment analyzed")
}
