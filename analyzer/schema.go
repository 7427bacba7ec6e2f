// Package analyzer implements the incremental merge-and-checkpoint pipeline
// behind the YouTube comment analyzer: the canonical per-channel store, the
// additive snapshot merge, the four-stage analysis adapter, the checkpointed
// batch processor, and the two-level aggregation engine.
package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Count is an integer counter that tolerates the shapes the YouTube API emits:
// JSON numbers, numeric strings, or null. Anything unparseable decodes to 0.
type Count int64

func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*c = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			*c = 0
			return nil
		}
		*c = Count(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		*c = 0
		return nil
	}
	*c = Count(n)
	return nil
}

// ChannelRef is an author channel id that decodes from either a plain string
// or the API's wrapped form {"value": "..."}.
type ChannelRef string

func (r *ChannelRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if b[0] == '{' {
		var wrapped struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return err
		}
		*r = ChannelRef(wrapped.Value)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = ChannelRef(s)
	return nil
}

// IronyResult is a single-label verdict with its score.
type IronyResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AnalysisResult holds the output of the four-stage pipeline for one comment.
// Target-language fields are populated iff translation succeeded; the source
// sentiment is independent of the translation outcome.
type AnalysisResult struct {
	SourceSentiment map[string]float64 `json:"source_sentiment,omitempty"`
	TranslatedText  *string            `json:"translated_text,omitempty"`
	TargetEmotions  map[string]float64 `json:"target_emotions,omitempty"`
	Irony           *IronyResult       `json:"irony,omitempty"`
	AnalyzedAt      time.Time          `json:"analyzed_at"`
}

// Clone returns a deep copy.
func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	out := &AnalysisResult{AnalyzedAt: a.AnalyzedAt}
	out.SourceSentiment = cloneScores(a.SourceSentiment)
	out.TargetEmotions = cloneScores(a.TargetEmotions)
	if a.TranslatedText != nil {
		s := *a.TranslatedText
		out.TranslatedText = &s
	}
	if a.Irony != nil {
		ir := *a.Irony
		out.Irony = &ir
	}
	return out
}

// AggregateAnalysis is a wholesale-replaced summary over analyzed comments,
// attached to a video or a channel.
type AggregateAnalysis struct {
	TotalAnalyzedComments int                `json:"total_analyzed_comments"`
	AvgSourceSentiment    map[string]float64 `json:"avg_source_sentiment,omitempty"`
	AvgTargetEmotions     map[string]float64 `json:"avg_target_emotions,omitempty"`
	IronyDistribution     map[string]float64 `json:"irony_distribution,omitempty"`
	LastCalculatedAt      time.Time          `json:"last_calculated_at"`
}

// Clone returns a deep copy.
func (a *AggregateAnalysis) Clone() *AggregateAnalysis {
	if a == nil {
		return nil
	}
	return &AggregateAnalysis{
		TotalAnalyzedComments: a.TotalAnalyzedComments,
		AvgSourceSentiment:    cloneScores(a.AvgSourceSentiment),
		AvgTargetEmotions:     cloneScores(a.AvgTargetEmotions),
		IronyDistribution:     cloneScores(a.IronyDistribution),
		LastCalculatedAt:      a.LastCalculatedAt,
	}
}

// Comment is a single stored YouTube comment. ParentID links a reply to its
// top-level comment by id; it is a back-reference, not ownership.
type Comment struct {
	CommentID         string          `json:"comment_id"`
	TextOriginal      string          `json:"text_original"`
	AuthorChannelID   ChannelRef      `json:"author_channel_id,omitempty"`
	AuthorDisplayName string          `json:"author_display_name,omitempty"`
	PublishedAt       time.Time       `json:"published_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	LikeCount         Count           `json:"like_count"`
	ParentID          string          `json:"parent_id,omitempty"`
	TotalReplyCount   Count           `json:"total_reply_count,omitempty"`
	Analysis          *AnalysisResult `json:"analysis,omitempty"`
}

// Clone returns a deep copy.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	out := *c
	out.Analysis = c.Analysis.Clone()
	return &out
}

// VideoMetadata is the source-refreshed metadata of a video.
type VideoMetadata struct {
	VideoID            string     `json:"video_id"`
	Title              string     `json:"title,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	ViewCount          Count      `json:"view_count"`
	LikeCount          Count      `json:"like_count"`
	CommentCount       Count      `json:"comment_count"`
	DurationISO        string     `json:"duration_iso,omitempty"`
	ChannelID          string     `json:"channel_id,omitempty"`
	ChannelTitle       string     `json:"channel_title,omitempty"`
	Tags               []string   `json:"tags,omitempty"`
	CategoryID         string     `json:"category_id,omitempty"`
	URL                string     `json:"url,omitempty"`
	RetrievedAt        time.Time  `json:"retrieved_at"`
	LastMetadataUpdate *time.Time `json:"last_metadata_update_timestamp,omitempty"`
}

// Video owns its comments, keyed by comment id. The aggregate lives beside
// the metadata so a metadata refresh from source cannot wipe it.
type Video struct {
	Metadata          VideoMetadata       `json:"video_metadata"`
	Aggregate         *AggregateAnalysis  `json:"aggregate_analysis,omitempty"`
	Comments          map[string]*Comment `json:"comments"`
	LastCommentsCheck *time.Time          `json:"last_comments_check_timestamp,omitempty"`
}

// Clone returns a deep copy.
func (v *Video) Clone() *Video {
	if v == nil {
		return nil
	}
	out := &Video{
		Metadata:  v.Metadata,
		Aggregate: v.Aggregate.Clone(),
		Comments:  make(map[string]*Comment, len(v.Comments)),
	}
	out.Metadata.Tags = append([]string(nil), v.Metadata.Tags...)
	if v.Metadata.PublishedAt != nil {
		ts := *v.Metadata.PublishedAt
		out.Metadata.PublishedAt = &ts
	}
	if v.Metadata.LastMetadataUpdate != nil {
		ts := *v.Metadata.LastMetadataUpdate
		out.Metadata.LastMetadataUpdate = &ts
	}
	for id, c := range v.Comments {
		out.Comments[id] = c.Clone()
	}
	if v.LastCommentsCheck != nil {
		ts := *v.LastCommentsCheck
		out.LastCommentsCheck = &ts
	}
	return out
}

// ChannelMetadata is the source-refreshed metadata of a channel.
type ChannelMetadata struct {
	ChannelID          string     `json:"channel_id"`
	Title              string     `json:"title,omitempty"`
	SanitizedTitle     string     `json:"sanitized_title,omitempty"`
	Description        string     `json:"description,omitempty"`
	CustomURL          string     `json:"custom_url,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	Country            string     `json:"country,omitempty"`
	ViewCount          Count      `json:"view_count"`
	SubscriberCount    Count      `json:"subscriber_count"`
	VideoCount         Count      `json:"video_count"`
	UploadsPlaylistID  string     `json:"uploads_playlist_id,omitempty"`
	RetrievedAt        time.Time  `json:"retrieved_at"`
	LastMetadataUpdate *time.Time `json:"last_metadata_update_timestamp,omitempty"`
}

// Channel is the canonical store for one channel: metadata, the owned video
// map, and the channel-level aggregate.
type Channel struct {
	Metadata           ChannelMetadata    `json:"channel_metadata"`
	Aggregate          *AggregateAnalysis `json:"aggregate_analysis,omitempty"`
	Videos             map[string]*Video  `json:"videos"`
	LastVideoListCheck *time.Time         `json:"last_video_list_check_timestamp,omitempty"`
}

// Clone returns a deep copy. Merge operates on a clone so the caller's value
// is never mutated before the merged result is returned.
func (ch *Channel) Clone() *Channel {
	if ch == nil {
		return nil
	}
	out := &Channel{
		Metadata:  ch.Metadata,
		Aggregate: ch.Aggregate.Clone(),
		Videos:    make(map[string]*Video, len(ch.Videos)),
	}
	if ch.Metadata.PublishedAt != nil {
		ts := *ch.Metadata.PublishedAt
		out.Metadata.PublishedAt = &ts
	}
	if ch.Metadata.LastMetadataUpdate != nil {
		ts := *ch.Metadata.LastMetadataUpdate
		out.Metadata.LastMetadataUpdate = &ts
	}
	for id, v := range ch.Videos {
		out.Videos[id] = v.Clone()
	}
	if ch.LastVideoListCheck != nil {
		ts := *ch.LastVideoListCheck
		out.LastVideoListCheck = &ts
	}
	return out
}

// ValidationError reports a structurally invalid snapshot or store payload.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid channel data: %s: %s", e.Field, e.Msg)
}

// ParseChannel decodes and validates a raw channel payload. Unknown fields
// are ignored; missing required fields and malformed JSON both surface as a
// *ValidationError.
func ParseChannel(raw []byte) (*Channel, error) {
	var ch Channel
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, &ValidationError{Field: "(document)", Msg: err.Error()}
	}
	if err := ch.Validate(); err != nil {
		return nil, err
	}
	if ch.Videos == nil {
		ch.Videos = make(map[string]*Video)
	}
	return &ch, nil
}

// Validate checks the structural invariants of the channel tree.
func (ch *Channel) Validate() error {
	if ch.Metadata.ChannelID == "" {
		return &ValidationError{Field: "channel_metadata.channel_id", Msg: "required"}
	}
	for vid, v := range ch.Videos {
		if v == nil {
			return &ValidationError{Field: "videos." + vid, Msg: "null video entry"}
		}
		if v.Metadata.VideoID == "" {
			return &ValidationError{Field: "videos." + vid + ".video_metadata.video_id", Msg: "required"}
		}
		for cid, c := range v.Comments {
			if c == nil {
				return &ValidationError{Field: "videos." + vid + ".comments." + cid, Msg: "null comment entry"}
			}
			if c.CommentID == "" {
				return &ValidationError{Field: "videos." + vid + ".comments." + cid + ".comment_id", Msg: "required"}
			}
			if c.PublishedAt.IsZero() {
				return &ValidationError{Field: "videos." + vid + ".comments." + cid + ".published_at", Msg: "required"}
			}
			if c.UpdatedAt.IsZero() {
				return &ValidationError{Field: "videos." + vid + ".comments." + cid + ".updated_at", Msg: "required"}
			}
		}
	}
	return nil
}

// ChannelStats summarizes the store for display.
type ChannelStats struct {
	TotalVideos        int
	TotalComments      int
	AnalyzedComments   int
	UnanalyzedComments int
	LastSourceUpdate   *time.Time
}

// Stats counts videos, comments, and analyzed comments across the channel.
func (ch *Channel) Stats() ChannelStats {
	st := ChannelStats{
		TotalVideos:      len(ch.Videos),
		LastSourceUpdate: ch.LastVideoListCheck,
	}
	for _, v := range ch.Videos {
		st.TotalComments += len(v.Comments)
		for _, c := range v.Comments {
			if c.Analysis != nil {
				st.AnalyzedComments++
			}
		}
	}
	st.UnanalyzedComments = st.TotalComments - st.AnalyzedComments
	return st
}

func cloneScores(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
