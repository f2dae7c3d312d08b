package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client calls the generative AI endpoint that produces health-risk
// summaries from a patient-data payload.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

func NewClient(cfg *Config, logger *zap.SugaredLogger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.ApiKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) Summarize(ctx context.Context, patientId string, profile map[string]interface{}) (*Report, error) {
	body, err := json.Marshal(map[string]interface{}{
		"patientId": patientId,
		"profile":   profile,
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding risk summary request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating risk summary request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	switch {
	case response.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, response.StatusCode)
	case response.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: status %d", ErrRejectedRequest, response.StatusCode)
	}

	report := &Report{}
	cleaned := StripMarkdownFences(string(raw))
	if err := json.Unmarshal([]byte(cleaned), report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	return report, nil
}

// StripMarkdownFences removes a surrounding markdown code fence from a model
// response. Models wrap JSON in fencing inconsistently, so every response
// goes through this before decoding.
func StripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
