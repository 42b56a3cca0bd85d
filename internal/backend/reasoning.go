// Package backend implements the two remote contracts the client
// consumes: the reasoning endpoint (text in, reply text plus optional
// synthesized audio out) and the transcription endpoint (recorded audio
// in, transcript out). Both are treated as opaque services.
package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/logger"
)

// Compile-time interface check.
var _ domain.Reasoner = (*ReasoningClient)(nil)

// ReasoningOption configures the ReasoningClient.
type ReasoningOption func(*ReasoningClient)

// WithReasoningTimeout sets the HTTP client timeout.
func WithReasoningTimeout(d time.Duration) ReasoningOption {
	return func(c *ReasoningClient) { c.http.Timeout = d }
}

// ── Wire types ───────────────────────────────────────────────────

type reasoningRequest struct {
	Input string `json:"input"`
}

type reasoningResponse struct {
	Text  string `json:"text"`
	Audio string `json:"audio,omitempty"` // base64-encoded synthesized speech
	Error string `json:"error,omitempty"`
}

// ReasoningClient talks to the reasoning endpoint.
type ReasoningClient struct {
	endpoint string
	http     *http.Client
	log      *logger.Logger
}

// NewReasoningClient creates a client for the given endpoint URL.
func NewReasoningClient(endpoint string, log *logger.Logger, opts ...ReasoningOption) *ReasoningClient {
	c := &ReasoningClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Respond submits one turn's input text and returns the reply. A non-2xx
// status or a populated error field in the body is a turn failure.
func (c *ReasoningClient) Respond(ctx context.Context, input string) (*domain.TurnResult, error) {
	jsonData, err := json.Marshal(reasoningRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("reasoning: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("reasoning: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("reasoning: POST %s (%d bytes)", c.endpoint, len(jsonData))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reasoning: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reasoning: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("reasoning: backend %s: %s", resp.Status, truncate(string(respBody), 200))
	}

	var body reasoningResponse
	if err := json.Unmarshal(respBody, &body); err != nil {
		return nil, fmt.Errorf("reasoning: unmarshal response: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("reasoning: backend error: %s", body.Error)
	}

	result := &domain.TurnResult{Text: body.Text}
	if body.Audio != "" {
		audio, err := base64.StdEncoding.DecodeString(body.Audio)
		if err != nil {
			// A malformed audio field shouldn't sink the whole turn;
			// degrade to a text-only reply.
			c.log.Warn("reasoning: discarding undecodable audio field: %v", err)
		} else {
			result.Audio = audio
		}
	}

	c.log.Debug("reasoning: reply (%d chars, %d audio bytes)", len(result.Text), len(result.Audio))
	return result, nil
}

// truncate shortens a string for error messages and logs.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
