package eino

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/jsonschema"

	// LLM provider integrations - switchable via Config.Provider
	gemini "github.com/cloudwego/eino-ext/components/model/gemini"
	// openai "github.com/cloudwego/eino-ext/components/model/openai" // Uncomment to use OpenAI
	"google.golang.org/genai"
)

// Config represents the configuration for the LLM integration
type Config struct {
	Provider string `json:"provider"` // "gemini" (others slot into the switch below)
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
	Model    string `json:"model"`
}

// Service wraps an Eino chat model behind a small JSON-generation surface.
// The navigation oracle is its only consumer, so the API stays narrow:
// messages in, schema-constrained JSON out.
type Service struct {
	config       Config
	chatModel    model.BaseChatModel
	geminiClient *genai.Client
}

// TokenUsage represents token usage information
type TokenUsage struct {
	InputTokens  int32 `json:"input_tokens"`
	OutputTokens int32 `json:"output_tokens"`
	TotalTokens  int32 `json:"total_tokens"`
}

// NewService creates a new Eino service instance with provider initialization
func NewService(config Config) (*Service, error) {
	service := &Service{config: config}
	if err := service.initializeChatModel(); err != nil {
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}
	return service, nil
}

// NewServiceWithModel creates a service around a pre-configured chat model.
// Used by tests to inject a fake model.
func NewServiceWithModel(config Config, chatModel model.BaseChatModel) *Service {
	return &Service{config: config, chatModel: chatModel}
}

func (s *Service) initializeChatModel() error {
	switch strings.ToLower(s.config.Provider) {
	case "gemini":
		return s.initializeGeminiModel()

	// case "openai":
	// 	return s.initializeOpenAIModel()

	default:
		return fmt.Errorf("unsupported provider: %s. Supported: gemini", s.config.Provider)
	}
}

// initializeGeminiModel sets up Google Gemini as the LLM provider
func (s *Service) initializeGeminiModel() error {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: s.config.APIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	s.geminiClient = client

	geminiModel, err := gemini.NewChatModel(context.Background(), &gemini.Config{
		Client: client,
		Model:  s.config.Model, // e.g. "gemini-1.5-flash", "gemini-1.5-pro"
	})
	if err != nil {
		return fmt.Errorf("failed to create Gemini chat model: %w", err)
	}

	s.chatModel = geminiModel
	return nil
}

// GenerateJSON runs the chat model with a low temperature and, when a schema
// is given, asks the provider to constrain the response shape to it. Returns
// the cleaned JSON text plus estimated token usage.
func (s *Service) GenerateJSON(ctx context.Context, messages []*schema.Message, js *jsonschema.Schema, maxTokens int) (string, *TokenUsage, error) {
	if s.chatModel == nil {
		return "", nil, fmt.Errorf("chat model not initialized")
	}

	opts := []model.Option{
		model.WithTemperature(0.1),
		model.WithMaxTokens(maxTokens),
	}
	if js != nil {
		// Implementation-specific option: ignored by non-Gemini models
		opts = append(opts, gemini.WithResponseJSONSchema(js))
	}

	response, err := s.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", nil, fmt.Errorf("llm generation failed: %w", err)
	}

	usage := &TokenUsage{
		InputTokens:  s.CountTokensInText(s.messagesToText(messages)),
		OutputTokens: s.CountTokensInText(response.Content),
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	return CleanJSONResponse(response.Content), usage, nil
}

// CleanJSONResponse strips markdown code fences that models wrap around JSON
// even when told not to.
func CleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// CountTokensInText estimates tokens using the documented ~4 characters per
// token ratio. Good enough for usage logging; not billed-accurate.
func (s *Service) CountTokensInText(text string) int32 {
	return int32(len(text) / 4)
}

func (s *Service) messagesToText(messages []*schema.Message) string {
	var text strings.Builder
	for _, msg := range messages {
		text.WriteString(msg.Content)
		text.WriteString("\n")
	}
	return text.String()
}

// GetChatModel returns the underlying chat model for advanced usage
func (s *Service) GetChatModel() model.BaseChatModel {
	return s.chatModel
}
