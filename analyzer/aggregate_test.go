package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzedComment(id string, day int, res AnalysisResult) *Comment {
	c := testComment(id, day)
	res.AnalyzedAt = testTime(day)
	c.Analysis = &res
	return c
}

func TestAggregateVideo_NoAnalyzedComments(t *testing.T) {
	v := testVideo("v1", testComment("c1", 2))
	assert.Nil(t, AggregateVideo(v))
}

func TestAggregateVideo_Averages(t *testing.T) {
	v := testVideo("v1",
		analyzedComment("c1", 2, AnalysisResult{
			SourceSentiment: map[string]float64{"joy": 0.8, "anger": 0.2},
			Irony:           &IronyResult{Label: "irony", Score: 0.7},
		}),
		analyzedComment("c2", 3, AnalysisResult{
			SourceSentiment: map[string]float64{"joy": 0.4, "anger": 0.6},
			Irony:           &IronyResult{Label: "non_irony", Score: 0.9},
		}),
		// Analyzed but without source sentiment: still in the denominator.
		analyzedComment("c3", 4, AnalysisResult{}),
	)

	agg := AggregateVideo(v)
	require.NotNil(t, agg)

	assert.Equal(t, 3, agg.TotalAnalyzedComments)
	assert.InDelta(t, 0.4, agg.AvgSourceSentiment["joy"], 1e-9)
	assert.InDelta(t, 0.2667, agg.AvgSourceSentiment["anger"], 1e-9)

	// Irony distribution divides by irony-verdict count (2), not total (3).
	assert.InDelta(t, 0.5, agg.IronyDistribution["irony"], 1e-9)
	assert.InDelta(t, 0.5, agg.IronyDistribution["non_irony"], 1e-9)
	assert.False(t, agg.LastCalculatedAt.IsZero())
}

func TestAggregateVideo_NoIronyVerdicts(t *testing.T) {
	v := testVideo("v1", analyzedComment("c1", 2, AnalysisResult{
		SourceSentiment: map[string]float64{"joy": 1},
	}))

	agg := AggregateVideo(v)
	require.NotNil(t, agg)
	assert.Nil(t, agg.IronyDistribution)
}

func TestAggregateChannel_WeightedCombination(t *testing.T) {
	v1 := testVideo("v1")
	v1.Aggregate = &AggregateAnalysis{
		TotalAnalyzedComments: 3,
		AvgSourceSentiment:    map[string]float64{"A": 0.5},
	}
	v2 := testVideo("v2")
	v2.Aggregate = &AggregateAnalysis{
		TotalAnalyzedComments: 7,
		AvgSourceSentiment:    map[string]float64{"A": 0.9},
	}
	ch := testChannel(v1, v2)

	agg := AggregateChannel(ch)
	require.NotNil(t, agg)
	assert.Equal(t, 10, agg.TotalAnalyzedComments)
	assert.InDelta(t, 0.78, agg.AvgSourceSentiment["A"], 1e-9)
}

func TestAggregateChannel_SkipsVideosWithoutAggregate(t *testing.T) {
	v1 := testVideo("v1")
	v1.Aggregate = &AggregateAnalysis{
		TotalAnalyzedComments: 2,
		AvgTargetEmotions:     map[string]float64{"joy": 0.6},
		IronyDistribution:     map[string]float64{"irony": 1},
	}
	ch := testChannel(v1, testVideo("v2"))

	agg := AggregateChannel(ch)
	require.NotNil(t, agg)
	assert.Equal(t, 2, agg.TotalAnalyzedComments)
	assert.InDelta(t, 0.6, agg.AvgTargetEmotions["joy"], 1e-9)
	assert.InDelta(t, 1.0, agg.IronyDistribution["irony"], 1e-9)
}

func TestAggregateChannel_NoAggregates(t *testing.T) {
	ch := testChannel(testVideo("v1", testComment("c1", 2)))
	assert.Nil(t, AggregateChannel(ch))
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 0.1235, round4(0.12345))
	assert.Equal(t, 0.1234, round4(0.12344))
	assert.Equal(t, 1.0, round4(0.99999))
}
