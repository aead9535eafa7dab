// File: internal/llmclient/factory.go

// Package llmclient provides chat-model clients behind the
// schemas.ChatModel interface.
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
)

// NewChatModel instantiates the chat-model client for the configured
// provider. Both supported providers speak the OpenAI chat-completions
// wire format, so they share a single client implementation with
// provider-specific defaults.
func NewChatModel(cfg config.LLMConfig, logger *zap.Logger) (schemas.ChatModel, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderOllama:
		return NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
