package analyzer

import (
	"math"
	"time"
)

// round4 rounds to 4 decimal places. All scores cross component boundaries
// already rounded; aggregation re-rounds its own averages.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

// AggregateVideo computes the aggregate over all analyzed comments of a
// video, or nil when none are analyzed. Label sums accumulate only over
// comments that carry that label set; averages divide by the total analyzed
// count. The irony distribution divides by the number of comments with an
// irony verdict, not by the total.
func AggregateVideo(v *Video) *AggregateAnalysis {
	sourceSums := make(map[string]float64)
	targetSums := make(map[string]float64)
	ironyCounts := make(map[string]int)

	analyzed := 0
	for _, c := range v.Comments {
		if c.Analysis == nil {
			continue
		}
		analyzed++
		for label, score := range c.Analysis.SourceSentiment {
			sourceSums[label] += score
		}
		for label, score := range c.Analysis.TargetEmotions {
			targetSums[label] += score
		}
		if c.Analysis.Irony != nil && c.Analysis.Irony.Label != "" {
			ironyCounts[c.Analysis.Irony.Label]++
		}
	}
	if analyzed == 0 {
		return nil
	}

	agg := &AggregateAnalysis{
		TotalAnalyzedComments: analyzed,
		LastCalculatedAt:      time.Now().UTC(),
	}
	agg.AvgSourceSentiment = averageOf(sourceSums, analyzed)
	agg.AvgTargetEmotions = averageOf(targetSums, analyzed)

	ironyTotal := 0
	for _, n := range ironyCounts {
		ironyTotal += n
	}
	if ironyTotal > 0 {
		dist := make(map[string]float64, len(ironyCounts))
		for label, n := range ironyCounts {
			dist[label] = round4(float64(n) / float64(ironyTotal))
		}
		agg.IronyDistribution = dist
	}
	return agg
}

// AggregateChannel combines the stored per-video aggregates into a
// channel-level aggregate, weighting each video's averages by its analyzed
// comment count. Returns nil when no video carries an aggregate.
//
// The result is exact only when every video aggregate was computed over the
// analyzed set the video currently has, so callers recompute video aggregates
// first in the same pass; the batch processor enforces that ordering.
func AggregateChannel(ch *Channel) *AggregateAnalysis {
	sourceSums := make(map[string]float64)
	targetSums := make(map[string]float64)
	ironySums := make(map[string]float64)

	total := 0
	seen := false
	for _, v := range ch.Videos {
		agg := v.Aggregate
		if agg == nil {
			continue
		}
		seen = true
		weight := float64(agg.TotalAnalyzedComments)
		total += agg.TotalAnalyzedComments
		for label, avg := range agg.AvgSourceSentiment {
			sourceSums[label] += avg * weight
		}
		for label, avg := range agg.AvgTargetEmotions {
			targetSums[label] += avg * weight
		}
		for label, frac := range agg.IronyDistribution {
			ironySums[label] += frac * weight
		}
	}
	if !seen || total == 0 {
		return nil
	}

	return &AggregateAnalysis{
		TotalAnalyzedComments: total,
		AvgSourceSentiment:    averageOf(sourceSums, total),
		AvgTargetEmotions:     averageOf(targetSums, total),
		IronyDistribution:     averageOf(ironySums, total),
		LastCalculatedAt:      time.Now().UTC(),
	}
}

func averageOf(sums map[string]float64, n int) map[string]float64 {
	if len(sums) == 0 {
		return nil
	}
	out := make(map[string]float64, len(sums))
	for label, sum := range sums {
		out[label] = round4(sum / float64(n))
	}
	return out
}
