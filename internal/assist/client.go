// Package assist provides optional LLM-drafted reply suggestions for the
// operator. It is disabled unless a provider API key is configured; the
// console never sends a draft without the operator submitting it.
package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/guardline/operator-console/internal/model"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for the LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return NewAnthropicClient(apiKey)
	}
}

const draftSystemPrompt = "You are drafting a reply for a support operator " +
	"at a security services company. Write a short, courteous, professional " +
	"answer to the visitor's latest message. Reply with the draft only."

// historyWindow bounds how much conversation context is sent to the
// provider.
const historyWindow = 20

// Drafter turns recent conversation history into a suggested reply.
type Drafter struct {
	client Client
	model  string
}

// NewDrafter creates a drafter using the given provider client.
func NewDrafter(client Client, model string) *Drafter {
	return &Drafter{client: client, model: model}
}

// Draft suggests a reply to the most recent guest messages.
func (d *Drafter) Draft(ctx context.Context, history []model.Message) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("no conversation to draft from")
	}

	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}

	messages := []ChatMessage{{Role: "system", Content: draftSystemPrompt}}
	for _, m := range history[start:] {
		role := "user"
		if m.SenderType == model.SenderAdmin {
			role = "assistant"
		}
		messages = append(messages, ChatMessage{Role: role, Content: m.Content})
	}
	if messages[len(messages)-1].Role != "user" {
		return "", fmt.Errorf("latest message is not from the guest")
	}

	resp, err := d.client.Complete(ctx, &CompletionRequest{
		Model:     d.model,
		Messages:  messages,
		MaxTokens: 512,
	})
	if err != nil {
		return "", fmt.Errorf("draft failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
