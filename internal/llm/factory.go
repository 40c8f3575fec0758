package llm

import (
	"time"

	"go.uber.org/zap"
)

// Settings carries everything needed to wire a Coordinator.
type Settings struct {
	RemoteEndpoint string
	APIKey         string
	RemoteModel    string

	LocalBaseURL string
	LocalModel   string
	LocalAPIKey  string

	// SimulateLatency delays canned replies by one to two seconds.
	SimulateLatency bool
}

// NewCoordinatorFromSettings builds a Coordinator with all three strategies.
// It starts on the canned provider; callers switch to another provider
// explicitly.
func NewCoordinatorFromSettings(s Settings, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}

	var cannedOpts []CannedOption
	if s.SimulateLatency {
		cannedOpts = append(cannedOpts, WithLatency(time.Second, 2*time.Second))
	}

	local := NewLocalAdapter(
		NewOpenAILoader(s.LocalBaseURL, s.LocalAPIKey, s.LocalModel, logger.Named("local")),
		logger.Named("local"))
	remote := NewRemoteClient(s.RemoteModel, logger.Named("remote"))

	c := NewCoordinator(local, remote,
		WithLogger(logger.Named("coordinator")),
		WithCannedStrategy(NewCannedMatcher(cannedOpts...)))

	patch := ConfigPatch{}
	if s.RemoteEndpoint != "" {
		patch.RemoteEndpoint = &s.RemoteEndpoint
	}
	if s.APIKey != "" {
		patch.APIKey = &s.APIKey
	}
	c.SetConfig(patch)
	return c
}
