package llm

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Config selects the active provider and how to reach the remote endpoint.
type Config struct {
	Provider       Provider
	RemoteEndpoint string
	APIKey         string
}

// ConfigPatch is a partial Config; nil fields are left untouched.
type ConfigPatch struct {
	Provider       *Provider
	RemoteEndpoint *string
	APIKey         *string
}

// Status is a snapshot of the active provider's readiness.
type Status struct {
	Provider Provider `json:"provider"`
	Status   string   `json:"status"`
	Ready    bool     `json:"ready"`
}

// Coordinator routes generation requests to the selected strategy and falls
// back to the canned matcher when a non-canned strategy fails.
type Coordinator struct {
	canned Strategy
	local  *LocalAdapter
	remote *RemoteClient
	logger *zap.Logger

	// switchMu serializes SwitchProvider so rollbacks never interleave.
	switchMu sync.Mutex

	mu  sync.RWMutex
	cfg Config
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(logger *zap.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCannedStrategy replaces the canned matcher used both as the canned
// provider and as the fallback.
func WithCannedStrategy(s Strategy) CoordinatorOption {
	return func(c *Coordinator) {
		if s != nil {
			c.canned = s
		}
	}
}

// NewCoordinator creates a coordinator starting on the canned provider. A nil
// local adapter makes the local-inference provider unavailable; a nil remote
// client is replaced by a default one.
func NewCoordinator(local *LocalAdapter, remote *RemoteClient, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		canned: NewCannedMatcher(),
		local:  local,
		remote: remote,
		logger: zap.NewNop(),
		cfg:    Config{Provider: ProviderCanned},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.remote == nil {
		c.remote = NewRemoteClient("", c.logger)
	}
	return c
}

// SetConfig merges patch into the current configuration.
func (c *Coordinator) SetConfig(patch ConfigPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if patch.Provider != nil {
		c.cfg.Provider = *patch.Provider
	}
	if patch.RemoteEndpoint != nil {
		c.cfg.RemoteEndpoint = *patch.RemoteEndpoint
	}
	if patch.APIKey != nil {
		c.cfg.APIKey = *patch.APIKey
	}
	c.logger.Debug("config updated",
		zap.String("provider", string(c.cfg.Provider)),
		zap.String("remote_endpoint", c.cfg.RemoteEndpoint),
		zap.Bool("api_key_set", c.cfg.APIKey != ""))
}

// Config returns a copy of the current configuration.
func (c *Coordinator) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// CurrentProvider returns the active provider.
func (c *Coordinator) CurrentProvider() Provider {
	return c.Config().Provider
}

// Initialize prepares the active provider. For local inference it loads the
// model, which may take a long time. For remote it probes the health
// endpoint, but an unreachable endpoint is only logged.
func (c *Coordinator) Initialize(ctx context.Context) error {
	cfg := c.Config()
	c.logger.Info("initializing provider", zap.String("provider", string(cfg.Provider)))

	switch cfg.Provider {
	case ProviderCanned:
		return nil
	case ProviderLocal:
		if c.local == nil {
			return fmt.Errorf("%w: local inference not configured", ErrConfig)
		}
		return c.local.Preload(ctx)
	case ProviderRemote:
		if cfg.RemoteEndpoint != "" && !c.remote.HealthCheck(ctx, cfg.RemoteEndpoint) {
			c.logger.Warn("remote endpoint unreachable", zap.String("endpoint", cfg.RemoteEndpoint))
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported provider %q", ErrConfig, cfg.Provider)
	}
}

// Generate answers userText with the active provider. Failures of a
// non-canned provider are answered by the canned matcher instead; an error is
// only returned when the canned provider itself fails.
func (c *Coordinator) Generate(ctx context.Context, userText string) (Message, error) {
	cfg := c.Config()
	c.logger.Debug("generating response",
		zap.String("provider", string(cfg.Provider)),
		zap.Int("input_len", len(userText)))

	msg, err := c.strategy(cfg).Generate(ctx, userText)
	if err == nil {
		return msg, nil
	}
	if cfg.Provider == ProviderCanned {
		return Message{}, err
	}

	c.logger.Warn("provider failed, falling back to canned",
		zap.String("provider", string(cfg.Provider)),
		zap.Error(err))
	msg, err = c.canned.Generate(ctx, userText)
	if err != nil {
		c.logger.Error("canned fallback failed", zap.Error(err))
		return ErrorMessage(err), nil
	}
	return msg, nil
}

func (c *Coordinator) strategy(cfg Config) Strategy {
	switch cfg.Provider {
	case ProviderCanned:
		return c.canned
	case ProviderLocal:
		if c.local == nil {
			return StrategyFunc(func(context.Context, string) (Message, error) {
				return Message{}, fmt.Errorf("%w: local inference not configured", ErrConfig)
			})
		}
		return c.local
	case ProviderRemote:
		target := RemoteTarget{Endpoint: cfg.RemoteEndpoint, APIKey: cfg.APIKey}
		return StrategyFunc(func(ctx context.Context, userText string) (Message, error) {
			return c.remote.Generate(ctx, target, userText)
		})
	default:
		return StrategyFunc(func(context.Context, string) (Message, error) {
			return Message{}, fmt.Errorf("%w: unsupported provider %q", ErrConfig, cfg.Provider)
		})
	}
}

// SwitchProvider makes p the active provider and initializes it. On failure
// the previous provider is restored and the error returned unchanged.
func (c *Coordinator) SwitchProvider(ctx context.Context, p Provider) error {
	if !p.Valid() {
		return fmt.Errorf("%w: unsupported provider %q", ErrConfig, p)
	}

	c.switchMu.Lock()
	defer c.switchMu.Unlock()

	previous := c.CurrentProvider()
	c.SetConfig(ConfigPatch{Provider: &p})
	if err := c.Initialize(ctx); err != nil {
		c.logger.Error("provider switch failed",
			zap.String("provider", string(p)),
			zap.String("restored", string(previous)),
			zap.Error(err))
		c.SetConfig(ConfigPatch{Provider: &previous})
		return err
	}
	c.logger.Info("switched provider", zap.String("provider", string(p)))
	return nil
}

// Status reports the active provider's readiness. For remote it only
// reflects whether an endpoint is configured, not whether it is reachable.
func (c *Coordinator) Status() Status {
	cfg := c.Config()
	switch cfg.Provider {
	case ProviderLocal:
		state := ModelNotLoaded
		if c.local != nil {
			state = c.local.State()
		}
		return Status{Provider: ProviderLocal, Status: string(state), Ready: state == ModelReady}
	case ProviderRemote:
		if cfg.RemoteEndpoint == "" {
			return Status{Provider: ProviderRemote, Status: "not_configured"}
		}
		return Status{Provider: ProviderRemote, Status: "configured", Ready: true}
	case ProviderCanned:
		return Status{Provider: ProviderCanned, Status: "ready", Ready: true}
	default:
		return Status{Provider: cfg.Provider, Status: "unknown"}
	}
}
