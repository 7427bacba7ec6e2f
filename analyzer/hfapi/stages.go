package hfapi

import (
	"context"
	"fmt"

	"github.com/tkhalvaji/youtube-comment-analyzer/analyzer"
)

// Models names the four stage models served by one endpoint.
type Models struct {
	SourceEmotion string
	Translation   string
	TargetEmotion string
	Irony         string
}

// Stages binds the client and models to the analyzer's stage interfaces.
func Stages(c *Client, m Models) analyzer.StageSet {
	return analyzer.StageSet{
		SourceEmotion: classifierStage{client: c, model: m.SourceEmotion},
		Translator:    translationStage{client: c, model: m.Translation},
		TargetEmotion: classifierStage{client: c, model: m.TargetEmotion},
		Irony:         ironyStage{client: c, model: m.Irony},
	}
}

// CheckAll verifies every stage model is loadable. Any failure prevents the
// pipeline from starting: partial capability is not allowed.
func CheckAll(ctx context.Context, c *Client, m Models) error {
	for _, model := range []string{m.SourceEmotion, m.Translation, m.TargetEmotion, m.Irony} {
		if model == "" {
			return fmt.Errorf("stage model id is empty")
		}
		if err := c.Check(ctx, model); err != nil {
			return err
		}
	}
	return nil
}

type classifierStage struct {
	client *Client
	model  string
}

func (s classifierStage) ClassifyBatch(ctx context.Context, texts []string) ([]map[string]float64, error) {
	scored, err := s.client.Classify(ctx, s.model, texts)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]float64, len(scored))
	for i, labels := range scored {
		if len(labels) == 0 {
			continue // per-item failure, degraded to nil
		}
		m := make(map[string]float64, len(labels))
		for _, ls := range labels {
			m[ls.Label] = ls.Score
		}
		out[i] = m
	}
	return out, nil
}

type translationStage struct {
	client *Client
	model  string
}

func (s translationStage) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	return s.client.Translate(ctx, s.model, texts)
}

type ironyStage struct {
	client *Client
	model  string
}

func (s ironyStage) DetectBatch(ctx context.Context, texts []string) ([]*analyzer.IronyResult, error) {
	scored, err := s.client.Classify(ctx, s.model, texts)
	if err != nil {
		return nil, err
	}
	out := make([]*analyzer.IronyResult, len(scored))
	for i, labels := range scored {
		if len(labels) == 0 {
			continue
		}
		// The verdict is the highest-scoring label.
		best := labels[0]
		for _, ls := range labels[1:] {
			if ls.Score > best.Score {
				best = ls
			}
		}
		out[i] = &analyzer.IronyResult{Label: best.Label, Score: best.Score}
	}
	return out, nil
}
