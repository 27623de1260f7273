package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/jano-project/jano/internal/chat"
)

const systemPersona = "You are a security assistant that helps harden service configurations. " +
	"Answer concisely and favor concrete, actionable steps."

// OpenAI is the alternative LLM backend, using the OpenAI chat completion
// API.
type OpenAI struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewOpenAI builds an uninitialized OpenAI backend.
func NewOpenAI() *OpenAI {
	return &OpenAI{
		logger: zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("llm", "openai").Logger(),
	}
}

func (o *OpenAI) Name() string        { return "openai" }
func (o *OpenAI) Description() string { return "OpenAI chat-completion language-model backend" }

func (o *OpenAI) Capabilities() []string {
	return []string{"text_generation", "security_advice", "configuration_analysis"}
}

func (o *OpenAI) Initialize(settings map[string]any) error {
	apiKey := settingString(settings, "api_key", "")
	if apiKey == "" {
		return fmt.Errorf("openai backend requires an api_key setting")
	}

	cfg := openai.DefaultConfig(apiKey)
	if base := settingString(settings, "api_base_url", ""); base != "" {
		cfg.BaseURL = base
	}
	o.client = openai.NewClientWithConfig(cfg)
	o.model = settingString(settings, "model", openai.GPT4oMini)
	return nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt string, history []chat.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPersona,
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == chat.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		} else if msg.Role == chat.RoleSystem {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		Messages:  messages,
		MaxTokens: 4096,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	o.logger.Debug().Str("model", o.model).Msg("generation complete")
	return resp.Choices[0].Message.Content, nil
}
