// File: internal/llmclient/openai_client.go
package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
)

// OpenAIClient implements the schemas.ChatModel interface against any
// endpoint speaking the OpenAI chat-completions wire format. This covers
// both api.openai.com and local Ollama instances.
type OpenAIClient struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
	cfg        config.LLMConfig
}

// Statically assert that OpenAIClient implements the ChatModel interface.
var _ schemas.ChatModel = (*OpenAIClient)(nil)

// -- Chat-completions wire structures (internal to this file) --

type chatRequestPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role string `json:"role"`
	// Content is either a plain string or a list of content parts for
	// multi-modal messages.
	Content any `json:"content"`
}

type contentPart struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	ImageURL *contentImagePart `json:"image_url,omitempty"`
}

type contentImagePart struct {
	URL string `json:"url"`
}

type chatResponsePayload struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIClient initializes the client.
func NewOpenAIClient(cfg config.LLMConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Provider == config.ProviderOpenAI && cfg.APIKey == "" {
		return nil, fmt.Errorf("an API key is required for the %s provider", cfg.Provider)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		switch cfg.Provider {
		case config.ProviderOllama:
			endpoint = "http://localhost:11434/v1/chat/completions"
		default:
			endpoint = "https://api.openai.com/v1/chat/completions"
		}
	}

	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		model:      cfg.Model,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("llm_client." + string(cfg.Provider)),
	}, nil
}

// Chat sends the conversation to the provider and returns the completion
// text, retrying transient failures with exponential backoff. Permanent
// provider rejections surface as StatusError so the agent's classifier
// can match on the status code.
func (c *OpenAIClient) Chat(ctx context.Context, messages []schemas.Message) (string, error) {
	payload := c.buildRequestPayload(messages)
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 30 * time.Second

	var responseContent string

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		startTime := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		duration := time.Since(startTime)

		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Warn("Network error during chat request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return c.handleAPIError(resp.StatusCode, resp.Status, respBody)
		}

		var responsePayload chatResponsePayload
		if err := json.Unmarshal(respBody, &responsePayload); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		if len(responsePayload.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("provider returned no choices"))
		}

		choice := responsePayload.Choices[0]
		if choice.Message.Content == "" && choice.FinishReason == "content_filter" {
			return backoff.Permanent(fmt.Errorf("provider blocked the request (reason: %s)", choice.FinishReason))
		}

		c.logger.Info("Chat completion finished",
			zap.Duration("duration", duration),
			zap.Int("prompt_tokens", responsePayload.Usage.PromptTokens),
			zap.Int("completion_tokens", responsePayload.Usage.CompletionTokens),
			zap.Int("total_tokens", responsePayload.Usage.TotalTokens),
		)

		responseContent = choice.Message.Content
		return nil
	}

	if err = backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return responseContent, nil
}

// Close releases client resources. The shared http.Client holds nothing
// that needs explicit teardown.
func (c *OpenAIClient) Close() error { return nil }

func (c *OpenAIClient) buildRequestPayload(messages []schemas.Message) chatRequestPayload {
	wire := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		wire = append(wire, chatMessage{Role: string(msg.Role), Content: encodeContent(msg)})
	}
	return chatRequestPayload{
		Model:       c.model,
		Messages:    wire,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
}

// encodeContent maps a message onto the wire: plain messages stay a
// string, segmented messages become a list of typed content parts.
func encodeContent(msg schemas.Message) any {
	if !msg.IsSegmented() {
		return msg.Content
	}
	parts := make([]contentPart, 0, len(msg.Segments))
	for _, seg := range msg.Segments {
		switch seg.Type {
		case schemas.SegmentImage:
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &contentImagePart{URL: seg.ImageURL}})
		default:
			parts = append(parts, contentPart{Type: "text", Text: seg.Text})
		}
	}
	return parts
}

func (c *OpenAIClient) handleAPIError(statusCode int, status string, body []byte) error {
	c.logger.Error("Provider returned error status", zap.Int("status", statusCode), zap.String("response", string(body)))
	err := &schemas.StatusError{
		StatusCode: statusCode,
		Status:     status,
		Body:       strings.TrimSpace(string(body)),
	}

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return err // Transient, retry.
	default:
		return backoff.Permanent(err)
	}
}
