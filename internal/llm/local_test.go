package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// stubGenerator returns a fixed continuation and records its last call.
type stubGenerator struct {
	mu     sync.Mutex
	out    string
	err    error
	prompt string
	opts   SamplingOptions
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, opts SamplingOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompt, g.opts = prompt, opts
	return g.out, g.err
}

// stubLoader counts loads and optionally blocks until released.
type stubLoader struct {
	calls atomic.Int32
	gate  chan struct{}
	delay time.Duration
	err   atomic.Pointer[error]
	gen   TextGenerator
}

func (l *stubLoader) Load(ctx context.Context) (TextGenerator, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if errp := l.err.Load(); errp != nil {
		return nil, *errp
	}
	return l.gen, nil
}

func (l *stubLoader) fail(err error) {
	l.err.Store(&err)
}

func (l *stubLoader) succeed() {
	l.err.Store(nil)
}

func TestLocalAdapter_PreloadSingleFlight(t *testing.T) {
	loader := &stubLoader{gate: make(chan struct{}), gen: &stubGenerator{}}
	a := NewLocalAdapter(loader, nil)

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			return a.Preload(context.Background())
		})
	}

	require.Eventually(t, func() bool { return a.State() == ModelLoading }, time.Second, time.Millisecond)
	close(loader.gate)

	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Equal(t, ModelReady, a.State())

	// Once ready the handle is reused.
	require.NoError(t, a.Preload(context.Background()))
	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestLocalAdapter_ConcurrentGenerateSharesLoad(t *testing.T) {
	loader := &stubLoader{gate: make(chan struct{}), gen: &stubGenerator{out: "x"}}
	a := NewLocalAdapter(loader, nil)

	var g errgroup.Group
	g.Go(func() error { return a.Preload(context.Background()) })
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := a.Generate(context.Background(), "sum two numbers")
			return err
		})
	}

	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(loader.gate)

	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestLocalAdapter_StateTransitions(t *testing.T) {
	loader := &stubLoader{gate: make(chan struct{}), gen: &stubGenerator{}}
	a := NewLocalAdapter(loader, nil)
	assert.Equal(t, ModelNotLoaded, a.State())
	assert.False(t, a.Ready())

	done := make(chan error, 1)
	go func() { done <- a.Preload(context.Background()) }()

	require.Eventually(t, func() bool { return a.State() == ModelLoading }, time.Second, time.Millisecond)
	close(loader.gate)
	require.NoError(t, <-done)

	assert.Equal(t, ModelReady, a.State())
	assert.True(t, a.Ready())
}

func TestLocalAdapter_LoadErrorRequiresExplicitRetry(t *testing.T) {
	gen := &stubGenerator{out: "pass"}
	loader := &stubLoader{gen: gen}
	loader.fail(errors.New("weights not found"))
	a := NewLocalAdapter(loader, nil)

	err := a.Preload(context.Background())
	require.ErrorIs(t, err, ErrModelLoad)
	assert.Contains(t, err.Error(), "weights not found")
	assert.Equal(t, ModelError, a.State())

	// Generate reports the stored failure without loading again.
	_, err = a.Generate(context.Background(), "anything")
	require.ErrorIs(t, err, ErrModelLoad)
	assert.Equal(t, int32(1), loader.calls.Load())

	loader.succeed()
	require.NoError(t, a.Preload(context.Background()))
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, ModelReady, a.State())

	msg, err := a.Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, msg.HasCode())
}

func TestLocalAdapter_ConcurrentGenerateNeverRetriesFailedLoad(t *testing.T) {
	for i := 0; i < 500; i++ {
		loader := &stubLoader{delay: 5 * time.Microsecond}
		loader.fail(errors.New("weights not found"))
		a := NewLocalAdapter(loader, nil)

		var g errgroup.Group
		for j := 0; j < 8; j++ {
			g.Go(func() error {
				_, err := a.Generate(context.Background(), "anything")
				if !errors.Is(err, ErrModelLoad) {
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		require.Equal(t, int32(1), loader.calls.Load(), "iteration %d", i)
		require.Equal(t, ModelError, a.State())
	}
}

func TestLocalAdapter_LateFlightSeesStoredFailure(t *testing.T) {
	loader := &stubLoader{}
	loader.fail(errors.New("weights not found"))
	a := NewLocalAdapter(loader, nil)
	require.ErrorIs(t, a.Preload(context.Background()), ErrModelLoad)

	// A flight started by Generate after the failing one finished.
	_, err := a.loadModel(context.Background(), false)
	require.ErrorIs(t, err, ErrModelLoad)
	assert.Equal(t, int32(1), loader.calls.Load())

	// Preload still retries.
	loader.succeed()
	loader.gen = &stubGenerator{}
	_, err = a.loadModel(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, ModelReady, a.State())
}

func TestLocalAdapter_WaiterCancelDoesNotAbortLoad(t *testing.T) {
	loader := &stubLoader{gate: make(chan struct{}), gen: &stubGenerator{}}
	a := NewLocalAdapter(loader, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Preload(ctx) }()

	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, ModelLoading, a.State())

	close(loader.gate)
	require.NoError(t, a.Preload(context.Background()))
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Equal(t, ModelReady, a.State())
}

func TestLocalAdapter_Generate(t *testing.T) {
	gen := &stubGenerator{out: "add(a, b):\n    return a + b"}
	a := NewLocalAdapter(&stubLoader{gen: gen}, nil)

	msg, err := a.Generate(context.Background(), "add two numbers")
	require.NoError(t, err)

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, "python", msg.Language)
	assert.Equal(t, "Here's a python solution using local AI ⟡", msg.Content)
	assert.Equal(t, "# add two numbers\ndef add(a, b):\n    return a + b", msg.Code)
	assert.Equal(t, "# add two numbers\ndef ", gen.prompt)
	assert.Equal(t, DefaultSampling, gen.opts)
	assert.Equal(t, ModelReady, a.State())
}

func TestLocalAdapter_GenerateKeepsEchoedPrompt(t *testing.T) {
	prompt := BuildPrompt("reverse a string in rust", "rust")
	gen := &stubGenerator{out: prompt + "reverse(s: &str) -> String { s.chars().rev().collect() }"}
	a := NewLocalAdapter(&stubLoader{gen: gen}, nil)

	msg, err := a.Generate(context.Background(), "reverse a string in rust")
	require.NoError(t, err)
	assert.Equal(t, "rust", msg.Language)
	assert.Equal(t, 1, strings.Count(msg.Code, "// reverse a string in rust"))
}

func TestLocalAdapter_GenerationError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("out of memory")}
	a := NewLocalAdapter(&stubLoader{gen: gen}, nil)

	_, err := a.Generate(context.Background(), "anything")
	require.ErrorIs(t, err, ErrGeneration)
	assert.NotErrorIs(t, err, ErrModelLoad)
	assert.Equal(t, ModelReady, a.State())
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"write it in TypeScript", "typescript"},
		{"a ts helper", "typescript"},
		{"javascript please", "javascript"},
		{"node js script", "javascript"},
		{"in rust", "rust"},
		{"java program", "java"},
		{"golang server", "go"},
		{"in go", "go"},
		{"add two numbers", "python"},
		{"", "python"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.input))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	assert.Equal(t, "# task\ndef ", BuildPrompt("task", "python"))
	assert.Equal(t, "// task\nfunction ", BuildPrompt("task", "typescript"))
	assert.Equal(t, "// task\nfunction ", BuildPrompt("task", "javascript"))
	assert.Equal(t, "// task\nfn ", BuildPrompt("task", "rust"))
	assert.Equal(t, "// task\npublic static ", BuildPrompt("task", "java"))
	assert.Equal(t, "// task\nfunc ", BuildPrompt("task", "go"))
}
