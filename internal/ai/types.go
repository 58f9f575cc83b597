// Package ai provides the model-execution capability used by the swarm
// engines: chat request/response types, the Executor interface, the
// Anthropic/Bedrock client, and per-model cost estimation.
package ai

import (
	"context"

	"github.com/apiarylabs/apiary/pkg/models"
)

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	// RoleSystem marks instructions that frame the whole conversation.
	RoleSystem MessageRole = "system"
	// RoleUser marks input from the caller.
	RoleUser MessageRole = "user"
	// RoleAssistant marks prior model output.
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is a single turn in a chat conversation.
type ChatMessage struct {
	// Role is the author of the message.
	Role MessageRole `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
}

// ChatRequest describes one model call.
type ChatRequest struct {
	// Model is the provider model identifier.
	Model string `json:"model"`
	// Messages is the conversation so far, oldest first.
	Messages []ChatMessage `json:"messages"`
	// SystemPrompt frames the call. Optional.
	SystemPrompt string `json:"system_prompt,omitempty"`
	// MaxTokens caps the completion length.
	MaxTokens int64 `json:"max_tokens"`
	// Temperature controls sampling randomness. Nil uses the provider default.
	Temperature *float64 `json:"temperature,omitempty"`
}

// NewChatRequest builds a single-turn request with the given user prompt.
func NewChatRequest(model, systemPrompt, prompt string, maxTokens int64, temperature float64) *ChatRequest {
	return &ChatRequest{
		Model:        model,
		Messages:     []ChatMessage{{Role: RoleUser, Content: prompt}},
		SystemPrompt: systemPrompt,
		MaxTokens:    maxTokens,
		Temperature:  &temperature,
	}
}

// TokenUsage reports the token counts of a completed call.
type TokenUsage struct {
	// InputTokens counts prompt tokens.
	InputTokens int64 `json:"input_tokens"`
	// OutputTokens counts completion tokens.
	OutputTokens int64 `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// ChatResponse is the result of one model call.
type ChatResponse struct {
	// Content is the concatenated text of the response.
	Content string `json:"content"`
	// Model is the model that served the call.
	Model string `json:"model"`
	// Usage reports token counts for cost estimation.
	Usage TokenUsage `json:"usage"`
	// StopReason explains why generation stopped.
	StopReason string `json:"stop_reason"`
}

// Executor executes chat requests against a model provider. The swarm
// engines depend on this interface only, so tests substitute mock
// executors and callers may bring their own provider.
type Executor interface {
	Execute(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// DefaultModelForTier maps a model tier to its default model identifier.
func DefaultModelForTier(tier models.ModelTier) string {
	switch tier {
	case models.TierPremium:
		return "claude-sonnet-4-5-20250929"
	case models.TierMid:
		return "claude-haiku-4-5-20251001"
	case models.TierBudget:
		return "claude-haiku-4-5-20251001"
	case models.TierFree:
		return "llama3"
	default:
		return "claude-haiku-4-5-20251001"
	}
}
