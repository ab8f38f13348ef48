package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pantryplan/backend/config"
)

const generationAPIVersion = "2023-06-01"

// GenerationClient issues single, timeout-bounded requests to the external
// generation service.
type GenerationClient struct {
	apiURL    string
	apiKey    string
	model     string
	maxTokens int
	timeout   time.Duration
	client    *http.Client
}

// NewGenerationClient creates a new GenerationClient instance
func NewGenerationClient(cfg *config.Config) *GenerationClient {
	timeout := cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.GenerationMaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &GenerationClient{
		apiURL:    cfg.GenerationAPIURL,
		apiKey:    cfg.GenerationAPIKey,
		model:     cfg.GenerationModel,
		maxTokens: maxTokens,
		timeout:   timeout,
		client:    &http.Client{},
	}
}

// generationRequest is the messages-API request body.
type generationRequest struct {
	Model     string              `json:"model"`
	MaxTokens int                 `json:"max_tokens"`
	System    string              `json:"system"`
	Messages  []generationMessage `json:"messages"`
}

type generationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// generationResponse is the messages-API response body.
type generationResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate sends one system/user prompt pair and returns the model's text
// reply. The call is bounded by the configured timeout; exceeding it
// surfaces ErrUpstreamTimeout so the caller can map it to a 504. Non-2xx
// statuses are classified into the pipeline taxonomy and the upstream body
// is logged, never returned.
func (c *GenerationClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody := generationRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages: []generationMessage{
			{Role: "user", Content: userPrompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", generationAPIVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: generation call exceeded %v", ErrUpstreamTimeout, c.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response", ErrUpstreamUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.classifyStatus(resp.StatusCode, body)
	}

	var result generationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: malformed generation response", ErrUpstreamUnavailable)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("%w: empty generation response", ErrUpstreamUnavailable)
	}

	log.Printf("[generation] model=%s input_tokens=%d output_tokens=%d",
		c.model, result.Usage.InputTokens, result.Usage.OutputTokens)

	var text bytes.Buffer
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// classifyStatus maps upstream failure codes to the pipeline taxonomy. The
// distinctions matter only for the logs; clients see one generic message per
// status class.
func (c *GenerationClient) classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusBadRequest:
		log.Printf("[generation] upstream rejected request (400): %s", body)
		return fmt.Errorf("%w: generation service rejected the request", ErrUpstreamUnavailable)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		log.Printf("[generation] upstream auth failure (%d): check API key configuration", status)
		return fmt.Errorf("%w: generation service authentication failed", ErrUpstreamUnavailable)
	case status == http.StatusTooManyRequests:
		log.Printf("[generation] upstream rate limited (429): %s", body)
		return fmt.Errorf("%w: generation service is rate limited", ErrUpstreamUnavailable)
	case status == 529:
		log.Printf("[generation] upstream overloaded (529)")
		return fmt.Errorf("%w: generation service is overloaded", ErrUpstreamUnavailable)
	case status >= 500:
		log.Printf("[generation] upstream server error (%d): %s", status, body)
		return fmt.Errorf("%w: generation service error", ErrUpstreamUnavailable)
	default:
		log.Printf("[generation] unexpected upstream status %d: %s", status, body)
		return fmt.Errorf("%w: unexpected generation service status %d", ErrUpstreamUnavailable, status)
	}
}
