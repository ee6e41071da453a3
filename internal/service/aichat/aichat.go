package aichat

import (
	"context"
	"errors"
	"strings"

	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

const (
	SystemPrompt = "You are HpyRide's navigation assistant. Help riders and drivers with routes, " +
		"pickup points, traffic and trip timing. Answer in at most two short sentences. " +
		"If a question is not about travel or the ride, politely steer back to navigation."

	MaxTokens = 100

	// FallbackReply is returned when the provider fails.
	FallbackReply = "Sorry, I can't reach the navigation assistant right now. Please try again in a moment."

	maxHistory = 20
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrEmptyConversation = errors.New("messages must end with a non-empty user message")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a generative model endpoint.
type Provider interface {
	Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error)
}

type Service struct {
	provider Provider
	log      logger.Logger
}

func NewService(provider Provider, log logger.Logger) *Service {
	return &Service{provider: provider, log: log}
}

// Reply answers the last user message. Provider failures are logged and answered
// with FallbackReply.
func (s *Service) Reply(ctx context.Context, messages []Message) (string, error) {
	ctx = wrap.WithAction(ctx, "navigation_ai_chat")

	history := make([]Message, 0, len(messages))
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := RoleUser
		if m.Role == RoleAssistant {
			role = RoleAssistant
		}
		history = append(history, Message{Role: role, Content: content})
	}
	if len(history) == 0 || history[len(history)-1].Role != RoleUser {
		return "", ErrEmptyConversation
	}
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	reply, err := s.provider.Complete(ctx, SystemPrompt, history, MaxTokens)
	if err != nil {
		s.log.Error(ctx, "ai provider failed", err, "turns", len(history))
		return FallbackReply, nil
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		s.log.Warn(ctx, "ai provider returned an empty reply")
		return FallbackReply, nil
	}
	return reply, nil
}
