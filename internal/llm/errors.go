package llm

import "errors"

var (
	// ErrConfig reports missing or invalid configuration, such as a remote
	// provider without an endpoint.
	ErrConfig = errors.New("config error")

	// ErrEndpoint reports a non-success status or malformed body from the
	// remote endpoint.
	ErrEndpoint = errors.New("endpoint error")

	// ErrModelLoad reports that the local model could not be initialized.
	ErrModelLoad = errors.New("model load error")

	// ErrGeneration reports that the local model failed mid-call.
	ErrGeneration = errors.New("generation error")
)
