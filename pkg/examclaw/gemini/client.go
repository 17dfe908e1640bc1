// Package gemini – client.go implements the model fallback invoker for the
// Gemini generateContent API. Candidates are tried strictly in order, one
// request each, until one succeeds or a non-retryable error aborts the chain.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the generateContent URL template; {model} is replaced
// with the path-escaped candidate name.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent"

// DefaultModels is the candidate order used when the config names none.
var DefaultModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
}

// ---------- Client ----------

// Attempt describes one request of the fallback chain.
type Attempt struct {
	Task  string // Prompt.Task
	Model string
	Index int // zero-based
	Total int
}

// ProgressFunc is called once per attempt, before the request is sent.
type ProgressFunc func(Attempt)

// Config holds the client settings.
type Config struct {
	// Endpoint is the URL template containing "{model}".
	Endpoint string

	// Timeout bounds a single HTTP request. Zero means no timeout; the
	// caller's context still applies.
	Timeout time.Duration
}

// Client sends prompts to the generation endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	onAttempt  ProgressFunc
}

// NewClient creates a client. A nil logger discards logs.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With("component", "gemini"),
	}
}

// SetProgress installs the per-attempt progress callback.
func (c *Client) SetProgress(fn ProgressFunc) {
	c.onAttempt = fn
}

// ---------- Wire types ----------

// InlineImage is an image attached to the prompt. Data is raw base64
// without a data-URL prefix.
type InlineImage struct {
	MIMEType string
	Data     string
}

// Prompt is one request's content and generation parameters. Task names
// what the prompt is for in progress events and logs.
type Prompt struct {
	Task            string
	Text            string
	Image           *InlineImage
	Temperature     float64
	MaxOutputTokens int
}

// Usage reports token counts from usageMetadata.
type Usage struct {
	PromptTokens     int
	CandidatesTokens int
	TotalTokens      int
}

// Result is a successful invocation.
type Result struct {
	Text         string
	Model        string
	FinishReason string
	Usage        Usage
	Attempts     int
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// responsePart keeps Text a pointer so a part without text is told apart
// from an empty string.
type responsePart struct {
	Text *string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []responsePart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type errorResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func newRequestBody(p Prompt) generateRequest {
	parts := []part{{Text: p.Text}}
	if p.Image != nil {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: p.Image.MIMEType,
			Data:     p.Image.Data,
		}})
	}
	return generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:     p.Temperature,
			MaxOutputTokens: p.MaxOutputTokens,
		},
	}
}

// ---------- Invocation ----------

// Invoke sends prompt to each candidate in order until one succeeds.
//
// A retryable failure (capacity, quota, unknown model) moves on to the next
// candidate; anything else aborts with KindFatal. When all candidates fail
// the error has KindExhausted and wraps the last failure.
func (c *Client) Invoke(ctx context.Context, prompt Prompt, models []string, credential string) (*Result, error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}

	body, err := json.Marshal(newRequestBody(prompt))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	attempted := make([]string, 0, len(models))

	for i, model := range models {
		if c.onAttempt != nil {
			c.onAttempt(Attempt{Task: prompt.Task, Model: model, Index: i, Total: len(models)})
		}
		c.logger.Info("trying model",
			"task", prompt.Task,
			"model", model,
			"attempt", i+1,
			"of", len(models),
			"image", prompt.Image != nil,
		)
		attempted = append(attempted, model)

		res, err := c.invokeOnce(ctx, model, body, credential)
		if err == nil {
			res.Attempts = i + 1
			return res, nil
		}

		if !isRetryable(err) {
			c.logger.Warn("non-retryable error, aborting fallback chain",
				"model", model,
				"error", err,
			)
			return nil, &InvocationError{Kind: KindFatal, Last: err, Attempts: attempted}
		}

		lastErr = err
		if i < len(models)-1 {
			c.logger.Warn("model unavailable, trying next candidate",
				"model", model,
				"next", models[i+1],
				"error", err,
			)
		}
	}

	c.logger.Error("all model candidates failed",
		"models", len(models),
		"last_error", lastErr,
	)
	return nil, &InvocationError{Kind: KindExhausted, Last: lastErr, Attempts: attempted}
}

func isRetryable(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Retryable()
	}
	if te, ok := err.(*transportError); ok {
		return classifyTransportError(te.err)
	}
	return false
}

// transportError is a request that never produced an HTTP response.
type transportError struct {
	model string
	err   error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.model, e.err)
}

func (e *transportError) Unwrap() error { return e.err }

func (c *Client) endpointFor(model string) string {
	return strings.ReplaceAll(c.endpoint, "{model}", url.PathEscape(model))
}

func (c *Client) invokeOnce(ctx context.Context, model string, body []byte, credential string) (*Result, error) {
	endpoint := c.endpointFor(model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", credential)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", errContextDone, ctxErr)
		}
		return nil, &transportError{model: model, err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", errContextDone, ctxErr)
		}
		return nil, &transportError{model: model, err: fmt.Errorf("reading response: %w", err)}
	}
	duration := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, respBody),
			Model:      model,
		}
		c.logger.Debug("API error",
			"model", model,
			"status", resp.StatusCode,
			"message", apiErr.Message,
			"retryable", apiErr.Retryable(),
		)
		return nil, apiErr
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", model, ErrMalformedResponse, err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%s: %w", model, ErrMalformedResponse)
	}

	cand := genResp.Candidates[0]
	first := cand.Content.Parts[0].Text
	if first == nil || strings.TrimSpace(*first) == "" {
		return nil, fmt.Errorf("%s: %w: no text in first part", model, ErrMalformedResponse)
	}
	text := *first
	usage := Usage{
		PromptTokens:     genResp.UsageMetadata.PromptTokenCount,
		CandidatesTokens: genResp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      genResp.UsageMetadata.TotalTokenCount,
	}

	c.logger.Info("generation done",
		"model", model,
		"duration_ms", duration.Milliseconds(),
		"prompt_tokens", usage.PromptTokens,
		"candidates_tokens", usage.CandidatesTokens,
		"finish_reason", cand.FinishReason,
	)

	return &Result{
		Text:         text,
		Model:        model,
		FinishReason: cand.FinishReason,
		Usage:        usage,
	}, nil
}

// errorMessage extracts error.message from an error body, falling back to
// "HTTP Error: <status>".
func errorMessage(status int, body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return fmt.Sprintf("HTTP Error: %d", status)
}
