package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hexa/internal/llm"
)

var (
	// Global flags
	verbose         bool
	simulateLatency bool
	configPath      string
	providerFlag    string
	endpointFlag    string
	apiKeyFlag      string
	statusJSON      bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hexa",
	Short: "Hexa ⟡ - your AI coding companion",
	Long: `Hexa answers coding questions with one of three providers:

  canned           scripted replies and example snippets, always available
  local-inference  a completion model served on this machine
  remote           a backend exposing /api/generate and /api/health

Failures of local-inference or remote are answered by the canned provider.
Run without arguments to start the interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.OutputPaths = []string{"stderr"}
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChat,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE:  runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send a single message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Initialize the configured provider and print its status",
	RunE:  runStatus,
}

var welcomeCmd = &cobra.Command{
	Use:   "welcome",
	Short: "Print the welcome message",
	RunE: func(cmd *cobra.Command, args []string) error {
		bot := NewChatBot(nil, os.Stdin, cmd.OutOrStdout())
		bot.typingDelay = 0
		bot.PrintMessage(llm.WelcomeMessage())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&simulateLatency, "simulate-latency", false, "Delay canned replies by one to two seconds")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $HEXA_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "Provider: canned, local-inference or remote")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Remote backend base URL")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Bearer token for the remote backend")

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print status as JSON")

	rootCmd.AddCommand(chatCmd, askCmd, statusCmd, welcomeCmd)
}

// setup loads configuration, builds the coordinator and switches it to the
// configured provider.
func setup(ctx context.Context) (*llm.Coordinator, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if providerFlag != "" {
		config.Provider = providerFlag
	}
	if endpointFlag != "" {
		config.RemoteEndpoint = endpointFlag
	}
	if apiKeyFlag != "" {
		config.APIKey = apiKeyFlag
	}

	provider, err := llm.ParseProvider(config.Provider)
	if err != nil {
		return nil, err
	}

	coordinator := llm.NewCoordinatorFromSettings(config.Settings(simulateLatency), logger)
	if provider != llm.ProviderCanned {
		if err := coordinator.SwitchProvider(ctx, provider); err != nil {
			logger.Warn("staying on canned provider", zap.String("requested", string(provider)), zap.Error(err))
		}
	}
	return coordinator, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	coordinator, err := setup(ctx)
	if err != nil {
		return err
	}
	return NewChatBot(coordinator, cmd.InOrStdin(), cmd.OutOrStdout()).RunInteractive(ctx)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	coordinator, err := setup(ctx)
	if err != nil {
		return err
	}
	bot := NewChatBot(coordinator, cmd.InOrStdin(), cmd.OutOrStdout())
	bot.typingDelay = 0
	reply, err := bot.Ask(ctx, strings.Join(args, " "))
	bot.PrintMessage(reply)
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	coordinator, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	if statusJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(coordinator.Status())
	}
	NewChatBot(coordinator, cmd.InOrStdin(), cmd.OutOrStdout()).PrintStatus()
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
