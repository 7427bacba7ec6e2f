// Package hfapi is a client for HuggingFace-style text inference endpoints.
// It exposes the two request shapes the pipeline needs, batch classification
// and batch translation, and binds them to the analyzer's stage interfaces.
package hfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api-inference.huggingface.co"

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing or self-hosted
// inference servers).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// Client talks to an inference endpoint serving one or more models.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a client. The token may be empty for unauthenticated or
// self-hosted endpoints.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LabelScore is one classification label with its probability.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type inferenceRequest struct {
	Inputs  []string         `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Classify runs a classification model over a batch of inputs and returns all
// label scores per input, positionally.
func (c *Client) Classify(ctx context.Context, model string, inputs []string) ([][]LabelScore, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	body, err := c.doModelRequest(ctx, model, inferenceRequest{
		Inputs:  inputs,
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, err
	}

	var out [][]LabelScore
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", model, err)
	}
	if len(out) != len(inputs) {
		return nil, fmt.Errorf("%s returned %d results for %d inputs", model, len(out), len(inputs))
	}
	return out, nil
}

type translationItem struct {
	TranslationText string `json:"translation_text"`
}

// Translate runs a translation model over a batch of inputs. A failed or
// empty item comes back as "".
func (c *Client) Translate(ctx context.Context, model string, inputs []string) ([]string, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	body, err := c.doModelRequest(ctx, model, inferenceRequest{
		Inputs:  inputs,
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, err
	}

	var items []translationItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", model, err)
	}
	if len(items) != len(inputs) {
		return nil, fmt.Errorf("%s returned %d results for %d inputs", model, len(items), len(inputs))
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.TranslationText
	}
	return out, nil
}

// Check issues a minimal request against a model and fails if the endpoint
// cannot serve it. Used to fail fast before a pipeline run starts.
func (c *Client) Check(ctx context.Context, model string) error {
	_, err := c.doModelRequest(ctx, model, inferenceRequest{
		Inputs:  []string{"ok"},
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return fmt.Errorf("model %s unavailable: %w", model, err)
	}
	return nil
}

// doModelRequest posts a request to the model endpoint, retrying on rate
// limits and cold-start responses with increasing waits.
func (c *Client) doModelRequest(ctx context.Context, model string, reqBody inferenceRequest) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	waits := []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second}
	var lastErr error
	for attempt := 0; attempt <= len(waits); attempt++ {
		if attempt > 0 {
			c.log.Warn().Str("model", model).Int("attempt", attempt).Err(lastErr).
				Msg("retrying inference request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waits[attempt-1]):
			}
		}

		body, retryable, err := c.doOnce(ctx, model, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("model %s: giving up after retries: %w", model, lastErr)
}

func (c *Client) doOnce(ctx context.Context, model string, payload []byte) (body []byte, retryable bool, err error) {
	url := fmt.Sprintf("%s/models/%s", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request %s: %w", model, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read %s response: %w", model, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	// 503 is the endpoint's model-loading response; both it and 429 clear on
	// their own.
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, true, fmt.Errorf("%s: status %d: %s", model, resp.StatusCode, string(body))
	default:
		return nil, false, fmt.Errorf("%s: status %d: %s", model, resp.StatusCode, string(body))
	}
}
