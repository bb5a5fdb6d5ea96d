package openai

import (
	"context"
	"fmt"

	"ai-chat-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// GeminiBaseURL is Google's OpenAI-compatible endpoint for Gemini models.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// Provider talks to any OpenAI-compatible chat completions API.
type Provider struct {
	client    *goopenai.Client
	modelName string
}

var _ llm.LLMProvider = &Provider{}

func NewProvider(apiKey, baseURL, modelName string) *Provider {
	config := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Provider{
		client:    goopenai.NewClientWithConfig(config),
		modelName: modelName,
	}
}

func (p *Provider) request(history []llm.Message, stream bool, opts ...llm.Option) goopenai.ChatCompletionRequest {
	options := llm.Apply(llm.Options{}, opts...)

	model := p.modelName
	if options.Model != "" {
		model = options.Model
	}

	messages := make([]goopenai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = goopenai.ChatMessageRoleAssistant
		}
		messages[i] = goopenai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	req := goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(options.Temperature),
		Stream:      stream,
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}
	if stream {
		req.StreamOptions = &goopenai.StreamOptions{IncludeUsage: true}
	}
	return req
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.request(history, false, opts...))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) Stream(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	s, err := p.client.CreateChatCompletionStream(ctx, p.request(history, true, opts...))
	if err != nil {
		return nil, fmt.Errorf("chat completion stream: %w", err)
	}
	return &stream{reader: s}, nil
}

type stream struct {
	reader *goopenai.ChatCompletionStream
}

// Recv passes io.EOF through unchanged so callers can use errors.Is.
func (s *stream) Recv() (llm.Chunk, error) {
	resp, err := s.reader.Recv()
	if err != nil {
		return llm.Chunk{}, err
	}

	var chunk llm.Chunk
	if len(resp.Choices) > 0 {
		chunk.Content = resp.Choices[0].Delta.Content
		chunk.FinishReason = string(resp.Choices[0].FinishReason)
	}
	if resp.Usage != nil {
		chunk.Usage = &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		}
	}
	return chunk, nil
}

func (s *stream) Close() error {
	return s.reader.Close()
}
