package analyzer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTime(day int) time.Time {
	return time.Date(2025, 6, day, 12, 0, 0, 0, time.UTC)
}

func testComment(id string, day int) *Comment {
	return &Comment{
		CommentID:    id,
		TextOriginal: "text of " + id,
		PublishedAt:  testTime(day),
		UpdatedAt:    testTime(day),
		LikeCount:    3,
	}
}

func testVideo(id string, comments ...*Comment) *Video {
	pub := testTime(1)
	v := &Video{
		Metadata: VideoMetadata{
			VideoID:     id,
			Title:       "video " + id,
			PublishedAt: &pub,
			RetrievedAt: testTime(1),
		},
		Comments: map[string]*Comment{},
	}
	for _, c := range comments {
		v.Comments[c.CommentID] = c
	}
	return v
}

func testChannel(videos ...*Video) *Channel {
	ch := &Channel{
		Metadata: ChannelMetadata{
			ChannelID:   "UC123",
			Title:       "Test Channel",
			RetrievedAt: testTime(1),
		},
		Videos: map[string]*Video{},
	}
	for _, v := range videos {
		ch.Videos[v.Metadata.VideoID] = v
	}
	return ch
}

func mustRaw(t *testing.T, ch *Channel) []byte {
	t.Helper()
	b, err := json.Marshal(ch)
	require.NoError(t, err)
	return b
}

// Content comparison that ignores the merge-stamped check timestamp.
func contentOf(t *testing.T, ch *Channel) string {
	t.Helper()
	clone := ch.Clone()
	clone.LastVideoListCheck = nil
	b, err := EncodeChannel(clone)
	require.NoError(t, err)
	return string(b)
}

func TestMergeSource_FirstRunUsesSnapshotVerbatim(t *testing.T) {
	snap := testChannel(testVideo("v1", testComment("c1", 2)))

	merged, stats, err := MergeSource(nil, mustRaw(t, snap), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.NewVideos)
	assert.Equal(t, 1, stats.NewComments)
	assert.Equal(t, "UC123", merged.Metadata.ChannelID)
	require.NotNil(t, merged.LastVideoListCheck)
	assert.Equal(t, contentOf(t, snap), contentOf(t, merged))
}

func TestMergeSource_Idempotent(t *testing.T) {
	snap := testChannel(testVideo("v1", testComment("c1", 2), testComment("c2", 3)))
	raw := mustRaw(t, snap)

	first, _, err := MergeSource(nil, raw, zerolog.Nop())
	require.NoError(t, err)

	second, stats, err := MergeSource(first, raw, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.NewVideos)
	assert.Equal(t, 0, stats.NewComments)
	assert.Equal(t, contentOf(t, first), contentOf(t, second))
}

func TestMergeSource_AddsNewVideosAndComments(t *testing.T) {
	canonical := testChannel(testVideo("v1", testComment("c1", 2)))

	snap := testChannel(
		testVideo("v1", testComment("c1", 2), testComment("c2", 3)),
		testVideo("v2", testComment("c3", 4)),
	)

	merged, stats, err := MergeSource(canonical, mustRaw(t, snap), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.NewVideos)
	assert.Equal(t, 2, stats.NewComments)
	assert.Len(t, merged.Videos, 2)
	assert.Len(t, merged.Videos["v1"].Comments, 2)
	assert.Len(t, merged.Videos["v2"].Comments, 1)
}

func TestMergeSource_PreservesAnalysisAndText(t *testing.T) {
	analyzed := testComment("c1", 2)
	translated := "hello"
	analyzed.Analysis = &AnalysisResult{
		SourceSentiment: map[string]float64{"joy": 0.9},
		TranslatedText:  &translated,
		AnalyzedAt:      testTime(5),
	}
	canonical := testChannel(testVideo("v1", analyzed))

	// Source carries the same comment with different text and no analysis.
	srcComment := testComment("c1", 2)
	srcComment.TextOriginal = "edited upstream"
	snap := testChannel(testVideo("v1", srcComment))

	before, err := json.Marshal(canonical.Videos["v1"].Comments["c1"].Analysis)
	require.NoError(t, err)

	merged, _, err := MergeSource(canonical, mustRaw(t, snap), zerolog.Nop())
	require.NoError(t, err)

	got := merged.Videos["v1"].Comments["c1"]
	assert.Equal(t, "text of c1", got.TextOriginal, "stored text must not be overwritten")
	require.NotNil(t, got.Analysis)
	after, err := json.Marshal(got.Analysis)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "analysis must survive merges byte-for-byte")
}

func TestMergeSource_OverwritesVideoMetadataKeepsAggregate(t *testing.T) {
	v := testVideo("v1", testComment("c1", 2))
	v.Aggregate = &AggregateAnalysis{TotalAnalyzedComments: 1, LastCalculatedAt: testTime(5)}
	canonical := testChannel(v)

	srcVideo := testVideo("v1")
	srcVideo.Metadata.Title = "renamed"
	snap := testChannel(srcVideo)

	merged, _, err := MergeSource(canonical, mustRaw(t, snap), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "renamed", merged.Videos["v1"].Metadata.Title)
	require.NotNil(t, merged.Videos["v1"].Aggregate, "aggregate must survive metadata refresh")
	assert.Len(t, merged.Videos["v1"].Comments, 1)
}

func TestMergeSource_InvalidSnapshotAbortsWithoutMutation(t *testing.T) {
	canonical := testChannel(testVideo("v1", testComment("c1", 2)))
	before := contentOf(t, canonical)

	_, _, err := MergeSource(canonical, []byte(`{"not": "a channel"}`), zerolog.Nop())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Equal(t, before, contentOf(t, canonical), "canonical must not be mutated on validation failure")
}

func TestMergeSource_MalformedJSONIsValidationError(t *testing.T) {
	_, _, err := MergeSource(nil, []byte(`{`), zerolog.Nop())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestMergeSource_DoesNotMutateCaller(t *testing.T) {
	canonical := testChannel(testVideo("v1", testComment("c1", 2)))
	before := contentOf(t, canonical)

	snap := testChannel(testVideo("v1", testComment("c2", 3)), testVideo("v2"))
	merged, _, err := MergeSource(canonical, mustRaw(t, snap), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, before, contentOf(t, canonical), "merge must operate on a deep copy")
	assert.NotEqual(t, contentOf(t, canonical), contentOf(t, merged))
}
