package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/logger"
)

// Compile-time interface check.
var _ domain.Transcriber = (*TranscriptionClient)(nil)

// Multipart field and filename the transcription endpoint expects.
const (
	audioFieldName = "audio"
	audioFileName  = "recording.wav"
	audioMIMEType  = "audio/wav"
)

// TranscriptionOption configures the TranscriptionClient.
type TranscriptionOption func(*TranscriptionClient)

// WithTranscriptionTimeout sets the HTTP client timeout.
func WithTranscriptionTimeout(d time.Duration) TranscriptionOption {
	return func(c *TranscriptionClient) { c.http.Timeout = d }
}

type transcriptionResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// TranscriptionClient uploads recorded audio to the transcription
// endpoint as multipart form content.
type TranscriptionClient struct {
	endpoint string
	http     *http.Client
	log      *logger.Logger
}

// NewTranscriptionClient creates a client for the given endpoint URL.
func NewTranscriptionClient(endpoint string, log *logger.Logger, opts ...TranscriptionOption) *TranscriptionClient {
	c := &TranscriptionClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe submits one recorded WAV payload and returns its transcript.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, audioFieldName, audioFileName))
	header.Set("Content-Type", audioMIMEType)

	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("transcribe: create form part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("transcribe: write audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("transcribe: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("transcribe: create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	c.log.Debug("transcribe: POST %s (%d audio bytes)", c.endpoint, len(audio))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("transcribe: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("transcribe: backend %s: %s", resp.Status, truncate(string(respBody), 200))
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("transcribe: unmarshal response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("transcribe: backend error: %s", parsed.Error)
	}

	c.log.Debug("transcribe: got %d chars", len(parsed.Text))
	return parsed.Text, nil
}
