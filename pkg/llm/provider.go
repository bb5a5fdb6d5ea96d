package llm

import (
	"context"
	"strings"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Apply folds opts over defaults.
func Apply(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Chunk is one increment of a streamed response. FinishReason and Usage are only set on the
// chunks that carry them, usually the last ones.
type Chunk struct {
	Content      string
	FinishReason string
	Usage        *Usage
}

// Stream yields chunks until Recv returns io.EOF.
type Stream interface {
	Recv() (Chunk, error)
	Close() error
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Stream sends a chat history and returns the response incrementally
	Stream(ctx context.Context, history []Message, options ...Option) (Stream, error)
}

// NormalizeFinishReason maps provider spellings onto the data-stream vocabulary.
func NormalizeFinishReason(reason string) string {
	switch strings.ToLower(reason) {
	case "stop", "end_turn", "eos":
		return "stop"
	case "length", "max_tokens":
		return "length"
	case "content_filter", "content-filter", "safety":
		return "content-filter"
	case "tool_calls", "function_call", "tool-calls":
		return "tool-calls"
	case "":
		return "unknown"
	default:
		return "other"
	}
}
