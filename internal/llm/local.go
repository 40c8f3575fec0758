package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ModelState is the load state of the local model.
type ModelState string

const (
	ModelNotLoaded ModelState = "not_loaded"
	ModelLoading   ModelState = "loading"
	ModelReady     ModelState = "ready"
	ModelError     ModelState = "error"
)

// SamplingOptions are passed through to the text generator.
type SamplingOptions struct {
	MaxNewTokens int
	Temperature  float64
	DoSample     bool
	TopP         float64
}

// DefaultSampling is used for every local generation.
var DefaultSampling = SamplingOptions{
	MaxNewTokens: 200,
	Temperature:  0.7,
	DoSample:     true,
	TopP:         0.95,
}

// TextGenerator is a loaded model able to continue a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts SamplingOptions) (string, error)
}

// ModelLoader creates the TextGenerator. It may take a long time.
type ModelLoader interface {
	Load(ctx context.Context) (TextGenerator, error)
}

// LocalAdapter generates code with a lazily loaded local model. At most one
// load is in flight at any time; concurrent callers share its result.
type LocalAdapter struct {
	loader   ModelLoader
	sampling SamplingOptions
	logger   *zap.Logger

	group singleflight.Group

	mu      sync.Mutex
	state   ModelState
	model   TextGenerator
	loadErr error
}

// NewLocalAdapter creates a new local inference adapter.
func NewLocalAdapter(loader ModelLoader, logger *zap.Logger) *LocalAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalAdapter{
		loader:   loader,
		sampling: DefaultSampling,
		logger:   logger,
		state:    ModelNotLoaded,
	}
}

// State returns the current model state.
func (a *LocalAdapter) State() ModelState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Ready reports whether the model is loaded.
func (a *LocalAdapter) Ready() bool {
	return a.State() == ModelReady
}

// Preload loads the model if it is not loaded yet, or joins the load already
// in flight. It is also the only way to retry after a failed load.
func (a *LocalAdapter) Preload(ctx context.Context) error {
	_, err := a.load(ctx, true)
	return err
}

// load returns the loaded model, starting or joining a load as needed. A
// previous failure is returned as is unless retry is set.
func (a *LocalAdapter) load(ctx context.Context, retry bool) (TextGenerator, error) {
	a.mu.Lock()
	switch {
	case a.state == ModelReady:
		model := a.model
		a.mu.Unlock()
		return model, nil
	case a.state == ModelError && !retry:
		err := a.loadErr
		a.mu.Unlock()
		return nil, err
	}
	a.state = ModelLoading
	a.mu.Unlock()

	// Waiters may give up on ctx; the load itself always runs to completion.
	loadCtx := context.WithoutCancel(ctx)
	ch := a.group.DoChan("model", func() (any, error) {
		return a.loadModel(loadCtx, retry)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(TextGenerator), nil
	}
}

// loadModel runs inside the single flight. A flight can start just after an
// earlier one finished, so the state is checked again before loading.
func (a *LocalAdapter) loadModel(ctx context.Context, retry bool) (TextGenerator, error) {
	a.mu.Lock()
	switch {
	case a.state == ModelReady:
		model := a.model
		a.mu.Unlock()
		return model, nil
	case a.state == ModelError && !retry:
		err := a.loadErr
		a.mu.Unlock()
		return nil, err
	}
	a.mu.Unlock()

	a.logger.Info("loading local model")
	model, err := a.loader.Load(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state = ModelError
		a.loadErr = fmt.Errorf("%w: %v", ErrModelLoad, err)
		a.logger.Error("local model load failed", zap.Error(err))
		return nil, a.loadErr
	}
	a.state = ModelReady
	a.model = model
	a.loadErr = nil
	a.logger.Info("local model ready")
	return model, nil
}

// Generate implements Strategy. A model that failed to load is not retried
// here; call Preload again.
func (a *LocalAdapter) Generate(ctx context.Context, userText string) (Message, error) {
	model, err := a.load(ctx, false)
	if err != nil {
		return Message{}, err
	}

	language := DetectLanguage(userText)
	prompt := BuildPrompt(userText, language)
	a.logger.Debug("generating with local model",
		zap.String("language", language),
		zap.Int("max_new_tokens", a.sampling.MaxNewTokens))

	out, err := model.Generate(ctx, prompt, a.sampling)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if !strings.HasPrefix(out, prompt) {
		out = prompt + out
	}

	return assistantMessage(fmt.Sprintf("Here's a %s solution using local AI ⟡", language), out, language), nil
}

// DetectLanguage guesses the requested language from plain substring checks,
// defaulting to python. Checks run in order, so "typescript" wins over "java".
func DetectLanguage(userText string) string {
	text := strings.ToLower(userText)
	switch {
	case strings.Contains(text, "typescript") || strings.Contains(text, "ts"):
		return "typescript"
	case strings.Contains(text, "javascript") || strings.Contains(text, "js"):
		return "javascript"
	case strings.Contains(text, "rust"):
		return "rust"
	case strings.Contains(text, "java"):
		return "java"
	case strings.Contains(text, "go") || strings.Contains(text, "golang"):
		return "go"
	default:
		return "python"
	}
}

// BuildPrompt comments out the user's request and opens a stub in the
// target language for the model to complete.
func BuildPrompt(userText, language string) string {
	switch language {
	case "typescript", "javascript":
		return "// " + userText + "\nfunction "
	case "rust":
		return "// " + userText + "\nfn "
	case "java":
		return "// " + userText + "\npublic static "
	case "go":
		return "// " + userText + "\nfunc "
	default:
		return "# " + userText + "\ndef "
	}
}
