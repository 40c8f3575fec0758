// Package llm provides the pluggable response strategies behind the chat
// front-end and the coordinator that switches between them.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single turn in a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Code      string    `json:"code,omitempty"`     // generated source, empty when absent
	Language  string    `json:"language,omitempty"` // lowercase tag, always set when Code is
	Timestamp time.Time `json:"timestamp"`
}

// HasCode reports whether the message carries a code payload.
func (m Message) HasCode() bool {
	return m.Code != ""
}

// NewMessageID returns a fresh opaque message id.
func NewMessageID() string {
	return "msg-" + uuid.NewString()
}

// NewUserMessage wraps user input as a Message.
func NewUserMessage(text string) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}
}

func assistantMessage(content, code, language string) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleAssistant,
		Content:   content,
		Code:      code,
		Language:  language,
		Timestamp: time.Now(),
	}
}

// ErrorMessage renders an error as an assistant message.
func ErrorMessage(err error) Message {
	return assistantMessage(fmt.Sprintf("Sorry, something went wrong ⟡ %v", err), "", "")
}

// Provider names a response strategy.
type Provider string

const (
	ProviderCanned Provider = "canned"
	ProviderLocal  Provider = "local-inference"
	ProviderRemote Provider = "remote"
)

// ParseProvider resolves a provider name. The front-end's older names
// (mock, transformers, backend) are accepted as aliases.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "canned", "mock":
		return ProviderCanned, nil
	case "local-inference", "local", "transformers":
		return ProviderLocal, nil
	case "remote", "backend":
		return ProviderRemote, nil
	default:
		return "", fmt.Errorf("%w: unsupported provider %q", ErrConfig, name)
	}
}

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderCanned, ProviderLocal, ProviderRemote:
		return true
	}
	return false
}

// Description returns a short human-readable label.
func (p Provider) Description() string {
	switch p {
	case ProviderCanned:
		return "Demo mode - pre-coded responses"
	case ProviderLocal:
		return "Local AI - model served on this machine"
	case ProviderRemote:
		return "Cloud AI - requires a backend endpoint"
	default:
		return "unknown provider"
	}
}

// Strategy is the common interface implemented by all response strategies.
type Strategy interface {
	// Generate returns the assistant's reply to the given user text.
	Generate(ctx context.Context, userText string) (Message, error)
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(ctx context.Context, userText string) (Message, error)

// Generate calls f.
func (f StrategyFunc) Generate(ctx context.Context, userText string) (Message, error) {
	return f(ctx, userText)
}
