package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrUpstream is returned when a generation call fails after the retry
	// budget is exhausted.
	ErrUpstream = errors.New("upstream generation failed")

	// ErrInvalidConfig is returned when the backend cannot be configured
	// with the given settings.
	ErrInvalidConfig = errors.New("invalid generation configuration")

	// ErrNoModelAvailable is returned when no candidate model could be opened.
	ErrNoModelAvailable = errors.New("no generation model available")

	// ErrDegraded is returned by Generate when the invoker runs in demo mode.
	// Callers are expected to check Mode before generating.
	ErrDegraded = errors.New("generation invoker is in demo mode")

	// ErrModelNotFound marks a backend failure saying the model does not
	// exist or cannot generate content. The invoker answers it by switching
	// to FallbackModel.
	ErrModelNotFound = errors.New("generation model not found")

	// ErrPermanent marks a backend failure that retrying cannot fix, such as
	// a rejected request or bad credentials.
	ErrPermanent = errors.New("permanent generation failure")
)
