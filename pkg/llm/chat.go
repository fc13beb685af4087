package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/xhad/giavang/internal/types"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Model           string
	Temperature     float64
	MaxTokens       int
	SystemTemplate  string
	ContextTemplate string
	BaseURL         string // Ollama server URL
}

// ChatEngine answers questions about a gold-price summary with an LLM.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

var _ types.Explainer = (*ChatEngine)(nil)

// NewWithConfig creates a new ChatEngine backed by Ollama.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	config, err := applyDefaults(config)
	if err != nil {
		return nil, err
	}

	llm, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    llm,
	}, nil
}

// NewWithModel wires an already constructed model, e.g. a different provider.
func NewWithModel(config ChatConfig, model llms.Model) (*ChatEngine, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	config, err := applyDefaults(config)
	if err != nil {
		return nil, err
	}
	return &ChatEngine{config: config, llm: model}, nil
}

func applyDefaults(config ChatConfig) (ChatConfig, error) {
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return config, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return config, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "Bạn là trợ lý tư vấn giá vàng. Chỉ dùng dữ liệu bảng giá được cung cấp, " +
			"trả lời bằng tiếng Việt dễ hiểu, nêu rõ giá mua vào / bán ra và chênh lệch khi so sánh."
	}
	if config.ContextTemplate == "" {
		config.ContextTemplate = "Dữ liệu giá vàng:\n%s\n\nCâu hỏi: %s"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	return config, nil
}

// Explain sends the tool summary and the user's question to the model and
// returns its answer.
func (ce *ChatEngine) Explain(ctx context.Context, summary, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		question = "Giá vàng hôm nay thế nào?"
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(ce.config.ContextTemplate, summary, question)),
	}

	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return "", errors.New("no response from LLM")
	}

	var answer strings.Builder
	for _, choice := range response.Choices {
		if choice != nil && choice.Content != "" {
			answer.WriteString(choice.Content)
		}
	}

	return answer.String(), nil
}
