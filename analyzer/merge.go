package analyzer

import (
	"time"

	"github.com/rs/zerolog"
)

// MergeStats reports what a merge added.
type MergeStats struct {
	NewVideos   int
	NewComments int
}

// MergeSource reconciles a raw source snapshot into the canonical store.
//
// The snapshot is parsed and validated first; a *ValidationError aborts the
// merge with canonical untouched. A nil canonical means first run and the
// validated snapshot becomes the store verbatim. Otherwise the merge works on
// a deep copy of canonical and is strictly additive: channel and known-video
// metadata are overwritten from source, unknown videos are inserted wholesale,
// and comments are inserted only when their id is new. Existing comments,
// including any attached analysis, are never touched.
func MergeSource(canonical *Channel, raw []byte, log zerolog.Logger) (*Channel, MergeStats, error) {
	snapshot, err := ParseChannel(raw)
	if err != nil {
		return nil, MergeStats{}, err
	}
	return mergeSnapshot(canonical, snapshot, log), statsOf(canonical, snapshot), nil
}

func mergeSnapshot(canonical, snapshot *Channel, log zerolog.Logger) *Channel {
	now := time.Now().UTC()

	if canonical == nil {
		log.Info().Str("channel_id", snapshot.Metadata.ChannelID).
			Msg("no existing store, using source snapshot as the new baseline")
		out := snapshot.Clone()
		out.LastVideoListCheck = &now
		return out
	}

	out := canonical.Clone()
	out.Metadata = snapshot.Metadata

	for videoID, srcVideo := range snapshot.Videos {
		known, ok := out.Videos[videoID]
		if !ok {
			out.Videos[videoID] = srcVideo.Clone()
			continue
		}
		// Known video: refresh metadata, keep the comments map intact.
		known.Metadata = srcVideo.Metadata
		for commentID, srcComment := range srcVideo.Comments {
			if _, exists := known.Comments[commentID]; !exists {
				known.Comments[commentID] = srcComment.Clone()
			}
		}
	}

	out.LastVideoListCheck = &now
	return out
}

func statsOf(canonical, snapshot *Channel) MergeStats {
	var st MergeStats
	for videoID, srcVideo := range snapshot.Videos {
		if canonical == nil {
			st.NewVideos++
			st.NewComments += len(srcVideo.Comments)
			continue
		}
		known, ok := canonical.Videos[videoID]
		if !ok {
			st.NewVideos++
			st.NewComments += len(srcVideo.Comments)
			continue
		}
		for commentID := range srcVideo.Comments {
			if _, exists := known.Comments[commentID]; !exists {
				st.NewComments++
			}
		}
	}
	return st
}
