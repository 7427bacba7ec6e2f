package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// MaxCommentChars is the fixed truncation limit. One comment is truncated
// once and the same truncated text feeds all four stages.
const MaxCommentChars = 512

// EmotionClassifier classifies a batch of texts into label→score mappings.
// The result is positional and same-length; a nil entry marks a per-item
// failure. A non-nil error marks a whole-batch failure.
type EmotionClassifier interface {
	ClassifyBatch(ctx context.Context, texts []string) ([]map[string]float64, error)
}

// Translator translates a batch of texts. An empty string marks a per-item
// failure.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string) ([]string, error)
}

// IronyDetector produces a single-label verdict per text. A nil entry marks a
// per-item failure.
type IronyDetector interface {
	DetectBatch(ctx context.Context, texts []string) ([]*IronyResult, error)
}

// StageSet bundles the four model backends. All four must be present; the
// pipeline refuses to start on partial capability.
type StageSet struct {
	SourceEmotion EmotionClassifier
	Translator    Translator
	TargetEmotion EmotionClassifier
	Irony         IronyDetector
}

// Runner is the analysis stage adapter. It drives the four stages over a
// batch of comment texts with a uniform contract: positional results, nil for
// failures, no errors surfaced to the caller.
type Runner struct {
	Stages   StageSet
	MaxChars int // defaults to MaxCommentChars when zero
	Log      zerolog.Logger
}

// AnalyzeBatch analyzes texts and returns a same-length slice of results.
//
// Empty or whitespace-only texts yield nil without any model call. The target
// stages run only over the subset whose translation succeeded and their
// results are remapped back to full batch positions. Scores are rounded to 4
// decimal places here and nowhere else.
func (r *Runner) AnalyzeBatch(ctx context.Context, texts []string) []*AnalysisResult {
	results := make([]*AnalysisResult, len(texts))

	maxChars := r.MaxChars
	if maxChars <= 0 {
		maxChars = MaxCommentChars
	}

	// active holds the original index of every non-empty text; prepared is
	// the truncated text shared by all four stages, parallel to active.
	var active []int
	var prepared []string
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if runes := []rune(text); len(runes) > maxChars {
			r.Log.Warn().Int("index", i).Int("chars", len(runes)).Int("limit", maxChars).
				Msg("comment too long, truncating")
			text = string(runes[:maxChars])
		}
		active = append(active, i)
		prepared = append(prepared, text)
	}
	if len(active) == 0 {
		return results
	}

	for _, i := range active {
		results[i] = &AnalysisResult{}
	}

	sentiments := r.classify(ctx, "source_emotion", r.Stages.SourceEmotion, prepared)
	for k, i := range active {
		results[i].SourceSentiment = roundScores(sentiments[k])
	}

	translations := r.translate(ctx, prepared)

	// Sparse invocation: only translation successes reach the target stages.
	var targetIdx []int // positions into active/prepared
	var targetTexts []string
	for k, i := range active {
		if translations[k] == "" {
			r.Log.Warn().Int("index", i).Msg("translation failed, skipping target-language stages")
			continue
		}
		t := translations[k]
		results[i].TranslatedText = &t
		targetIdx = append(targetIdx, i)
		targetTexts = append(targetTexts, t)
	}

	if len(targetIdx) > 0 {
		emotions := r.classify(ctx, "target_emotion", r.Stages.TargetEmotion, targetTexts)
		verdicts := r.detectIrony(ctx, targetTexts)
		for k, i := range targetIdx {
			results[i].TargetEmotions = roundScores(emotions[k])
			if v := verdicts[k]; v != nil {
				results[i].Irony = &IronyResult{Label: v.Label, Score: round4(v.Score)}
			}
		}
	}

	now := time.Now().UTC()
	for _, i := range active {
		results[i].AnalyzedAt = now
	}
	return results
}

func (r *Runner) classify(ctx context.Context, stage string, clf EmotionClassifier, texts []string) []map[string]float64 {
	out, err := clf.ClassifyBatch(ctx, texts)
	if err != nil {
		r.Log.Error().Err(err).Str("stage", stage).Int("batch", len(texts)).Msg("stage batch failed")
		return make([]map[string]float64, len(texts))
	}
	if len(out) != len(texts) {
		r.Log.Error().Str("stage", stage).Int("want", len(texts)).Int("got", len(out)).
			Msg("stage returned wrong batch length")
		return make([]map[string]float64, len(texts))
	}
	return out
}

func (r *Runner) translate(ctx context.Context, texts []string) []string {
	out, err := r.Stages.Translator.TranslateBatch(ctx, texts)
	if err != nil {
		r.Log.Error().Err(err).Str("stage", "translation").Int("batch", len(texts)).Msg("stage batch failed")
		return make([]string, len(texts))
	}
	if len(out) != len(texts) {
		r.Log.Error().Str("stage", "translation").Int("want", len(texts)).Int("got", len(out)).
			Msg("stage returned wrong batch length")
		return make([]string, len(texts))
	}
	return out
}

func (r *Runner) detectIrony(ctx context.Context, texts []string) []*IronyResult {
	out, err := r.Stages.Irony.DetectBatch(ctx, texts)
	if err != nil {
		r.Log.Error().Err(err).Str("stage", "irony").Int("batch", len(texts)).Msg("stage batch failed")
		return make([]*IronyResult, len(texts))
	}
	if len(out) != len(texts) {
		r.Log.Error().Str("stage", "irony").Int("want", len(texts)).Int("got", len(out)).
			Msg("stage returned wrong batch length")
		return make([]*IronyResult, len(texts))
	}
	return out
}

func roundScores(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for label, score := range m {
		out[label] = round4(score)
	}
	return out
}
