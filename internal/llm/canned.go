package llm

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
)

// conversationalPatterns are matched against the normalized input before any
// task keyword. Replies carry no code.
var conversationalPatterns = []struct {
	pattern  *regexp.Regexp
	response string
}{
	{regexp.MustCompile(`^(hi|hey|yo|sup)$`), "Hey there! ⟡ Ready to write some code?"},
	{regexp.MustCompile(`^(yes|yeah|yep|sure|ok|okay|let'?s go|ready)$`), "Awesome! ⟡ What would you like me to help you build today?"},
	{regexp.MustCompile(`^(no|nope|nah|not really)$`), "No worries! Let me know when you're ready ⟡"},
	{regexp.MustCompile(`^(thanks|thank you|thx)$`), "You're welcome! ⟡ Happy to help anytime!"},
	{regexp.MustCompile(`^(bye|goodbye|see you|later)$`), "See you later! ⟡ Happy coding!"},
	{regexp.MustCompile(`how are you|what'?s up|how'?s it going`), "I'm doing great! ⟡ Ready to help you write some amazing code. What can I build for you?"},
	{regexp.MustCompile(`who are you|what are you`), "I'm Hexa ⟡ — your AI coding companion. I can help you write functions, debug code, and build algorithms in Python, JavaScript, TypeScript, Rust, and more!"},
	{regexp.MustCompile(`what can you do|help me`), "I can help you write code! ⟡ Try asking me to:\n• Write a Python function to reverse a linked list\n• Implement fibonacci in TypeScript\n• Create a binary search in Rust\n\nOr ask me to build anything else!"},
}

// Match returns the scripted reply for userText. It never fails and performs
// no I/O.
func Match(userText string) Message {
	text := strings.ToLower(strings.TrimSpace(userText))

	for _, p := range conversationalPatterns {
		if p.pattern.MatchString(text) {
			return assistantMessage(p.response, "", "")
		}
	}

	for _, task := range taskPatterns {
		if strings.Contains(text, task.keyword) {
			ex := codeExamples[task.keyword]
			return assistantMessage(task.response, ex.code, ex.language)
		}
	}

	for _, kw := range codeKeywords {
		if strings.Contains(text, kw) {
			ex := codeExamples[exampleHello]
			return assistantMessage(genericCodeResponse, ex.code, ex.language)
		}
	}

	return assistantMessage(fallbackResponse, "", "")
}

// WelcomeMessage returns the fixed introductory message.
func WelcomeMessage() Message {
	ex := codeExamples[exampleHello]
	return Message{
		ID:        "welcome-msg",
		Role:      RoleAssistant,
		Content:   welcomeText,
		Code:      ex.code,
		Language:  ex.language,
		Timestamp: time.Now(),
	}
}

// CannedMatcher serves Match as a Strategy, optionally delaying each reply
// to imitate network latency.
type CannedMatcher struct {
	minDelay time.Duration
	maxDelay time.Duration
}

// CannedOption configures a CannedMatcher.
type CannedOption func(*CannedMatcher)

// WithLatency delays every reply by a random duration in [lo, hi].
func WithLatency(lo, hi time.Duration) CannedOption {
	return func(m *CannedMatcher) {
		if hi < lo {
			hi = lo
		}
		m.minDelay, m.maxDelay = lo, hi
	}
}

// NewCannedMatcher creates a new canned matcher strategy.
func NewCannedMatcher(opts ...CannedOption) *CannedMatcher {
	m := &CannedMatcher{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate implements Strategy. The only possible error is ctx being done
// while the simulated latency elapses.
func (m *CannedMatcher) Generate(ctx context.Context, userText string) (Message, error) {
	if d := m.delay(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Match(userText), nil
}

func (m *CannedMatcher) delay() time.Duration {
	if m.maxDelay <= 0 {
		return 0
	}
	spread := m.maxDelay - m.minDelay
	if spread <= 0 {
		return m.minDelay
	}
	return m.minDelay + rand.N(spread)
}
