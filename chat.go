package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"hexa/internal/llm"
)

// ChatBot drives an interactive session against the provider coordinator
type ChatBot struct {
	coordinator *llm.Coordinator
	history     []llm.Message
	in          io.Reader
	out         io.Writer
	typingDelay time.Duration
}

// NewChatBot creates a new ChatBot instance
func NewChatBot(coordinator *llm.Coordinator, in io.Reader, out io.Writer) *ChatBot {
	return &ChatBot{
		coordinator: coordinator,
		history:     make([]llm.Message, 0),
		in:          in,
		out:         out,
		typingDelay: 5 * time.Millisecond,
	}
}

// History returns the conversation so far
func (cb *ChatBot) History() []llm.Message {
	return cb.history
}

// Ask sends one user turn through the coordinator and records both messages
func (cb *ChatBot) Ask(ctx context.Context, text string) (llm.Message, error) {
	cb.history = append(cb.history, llm.NewUserMessage(text))

	reply, err := cb.coordinator.Generate(ctx, text)
	if err != nil {
		reply = llm.ErrorMessage(err)
	}
	cb.history = append(cb.history, reply)
	return reply, err
}

// GetTimeString returns formatted current time
func GetTimeString() string {
	return time.Now().Format("15:04:05")
}

// streamText prints text with a typing effect
func (cb *ChatBot) streamText(text string, textColor *color.Color) {
	for _, char := range text {
		textColor.Fprint(cb.out, string(char))
		if cb.typingDelay > 0 {
			time.Sleep(cb.typingDelay)
		}
	}
	fmt.Fprintln(cb.out)
}

// PrintMessage renders a message with its code block, if any
func (cb *ChatBot) PrintMessage(msg llm.Message) {
	magenta := color.New(color.FgMagenta, color.Bold)
	white := color.New(color.FgWhite)
	codeBlockColor := color.New(color.FgBlue)

	magenta.Fprintf(cb.out, "Hexa (%s): ", msg.Timestamp.Format("15:04:05"))
	cb.streamText(msg.Content, white)

	if msg.HasCode() {
		codeBlockColor.Fprintf(cb.out, "```%s\n", msg.Language)
		codeBlockColor.Fprintln(cb.out, msg.Code)
		codeBlockColor.Fprintln(cb.out, "```")
	}
}

// PrintStatus renders the coordinator's provider status
func (cb *ChatBot) PrintStatus() {
	yellow := color.New(color.FgYellow)
	status := cb.coordinator.Status()
	yellow.Fprintf(cb.out, "Provider: %s (%s)\nStatus:   %s\nReady:    %t\n",
		status.Provider, status.Provider.Description(), status.Status, status.Ready)
}

func (cb *ChatBot) printBanner() {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintln(cb.out, "╔════════════════════════╗")
	cyan.Fprintln(cb.out, "║   Hexa ⟡ AI Companion  ║")
	cyan.Fprintln(cb.out, "╚════════════════════════╝")
}

// RunInteractive starts an interactive chat session
func (cb *ChatBot) RunInteractive(ctx context.Context) error {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	cb.printBanner()
	yellow.Fprint(cb.out, "\nCommands: '/provider <name>' to switch, '/status', 'history', 'clear', 'exit' to quit\n\n")

	welcome := llm.WelcomeMessage()
	cb.history = append(cb.history, welcome)
	cb.PrintMessage(welcome)
	fmt.Fprintln(cb.out)

	scanner := bufio.NewScanner(cb.in)
	for {
		green.Fprintf(cb.out, "You (%s): ", GetTimeString())
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		lower := strings.ToLower(input)
		switch {
		case lower == "exit" || lower == "quit":
			color.New(color.FgCyan, color.Bold).Fprintln(cb.out, "\nGoodbye! Happy coding ⟡")
			return nil

		case lower == "history":
			yellow.Fprintf(cb.out, "\nConversation History (%d messages):\n\n", len(cb.history))
			for _, msg := range cb.history {
				if msg.Role == llm.RoleUser {
					green.Fprintf(cb.out, "You (%s): %s\n", msg.Timestamp.Format("15:04:05"), msg.Content)
				} else {
					color.New(color.FgMagenta).Fprintf(cb.out, "Hexa (%s): %s\n", msg.Timestamp.Format("15:04:05"), msg.Content)
				}
			}
			fmt.Fprintln(cb.out)
			continue

		case lower == "clear":
			fmt.Fprint(cb.out, "\033[H\033[2J")
			cb.printBanner()
			yellow.Fprintf(cb.out, "\nScreen cleared! Conversation history: %d messages\n\n", len(cb.history))
			continue

		case lower == "/status":
			cb.PrintStatus()
			continue

		case strings.HasPrefix(lower, "/provider"):
			name := strings.TrimSpace(strings.TrimPrefix(lower, "/provider"))
			p, err := llm.ParseProvider(name)
			if err == nil {
				err = cb.coordinator.SwitchProvider(ctx, p)
			}
			if err != nil {
				red.Fprintf(cb.out, "Failed to switch to %s: %v\n\n", name, err)
				continue
			}
			yellow.Fprintf(cb.out, "Switched to %s provider\n\n", p)
			continue
		}

		reply, err := cb.Ask(ctx, input)
		if err != nil {
			red.Fprintf(cb.out, "\nError: %v\n\n", err)
			continue
		}
		fmt.Fprintln(cb.out)
		cb.PrintMessage(reply)
		fmt.Fprintln(cb.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}
