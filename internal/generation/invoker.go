package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/phrazzld/agro-api/internal/platform/metrics"
)

// Mode is the invoker's model-selection state.
type Mode int32

// Invoker modes. An invoker starts unconfigured and ends up either ready,
// with an active model, or degraded, serving demo answers.
const (
	ModeUnconfigured Mode = iota
	ModeConfiguring
	ModeReady
	ModeDegraded
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeUnconfigured:
		return "unconfigured"
	case ModeConfiguring:
		return "configuring"
	case ModeReady:
		return "ready"
	case ModeDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// FallbackModel is opened when the active model turns out to be unavailable
// at call time.
const FallbackModel = "gemini-1.5-flash"

// PreferredModels are tried, in order, after the requested model.
var PreferredModels = []string{
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-1.5-pro",
	"gemini-1.5-flash",
}

// Settings configure an Invoker.
type Settings struct {
	APIKey            string
	ModelName         string
	MockMode          bool
	SystemInstruction string
}

// RetryPolicy bounds the retries of a single generation call.
type RetryPolicy struct {
	MaxAttempts         int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultRetryPolicy allows three attempts with exponential backoff starting
// at half a second and capped at four seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:         3,
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         4 * time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.5,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialInterval
	expo.MaxInterval = p.MaxInterval
	expo.Multiplier = p.Multiplier
	expo.RandomizationFactor = p.RandomizationFactor
	expo.MaxElapsedTime = 0

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(retries)), ctx)
}

// Option customizes an Invoker.
type Option func(*Invoker)

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(i *Invoker) {
		i.retry = p
	}
}

type activeModel struct {
	model Model
}

// Invoker owns the generation backend. It selects the model on first use,
// then issues generation calls against it with retries.
//
// Configuration is not serialized: concurrent first calls may both probe the
// backend, and the last successful probe wins. All state is published through
// atomics.
type Invoker struct {
	backend  Backend
	settings Settings
	retry    RetryPolicy
	logger   *slog.Logger

	mode   atomic.Int32
	active atomic.Pointer[activeModel]
}

// NewInvoker creates an Invoker. The backend may be nil only when the
// settings already force demo mode (mock mode or no API key).
func NewInvoker(backend Backend, settings Settings, logger *slog.Logger, opts ...Option) (*Invoker, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if backend == nil && !settings.forcesDemo() {
		return nil, fmt.Errorf("%w: backend cannot be nil when an API key is configured", ErrInvalidConfig)
	}

	inv := &Invoker{
		backend:  backend,
		settings: settings,
		retry:    DefaultRetryPolicy(),
		logger:   logger.With(slog.String("component", "generation_invoker")),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv, nil
}

func (s Settings) forcesDemo() bool {
	return s.MockMode || strings.TrimSpace(s.APIKey) == ""
}

// Mode returns the current mode.
func (i *Invoker) Mode() Mode {
	return Mode(i.mode.Load())
}

// SetMode overrides the current mode. Switching to ModeReady has no effect
// unless a model has already been selected.
func (i *Invoker) SetMode(m Mode) {
	if m == ModeReady && i.active.Load() == nil {
		return
	}
	i.mode.Store(int32(m))
}

// ModelName returns the active model, or the configured model name when no
// model has been selected.
func (i *Invoker) ModelName() string {
	if a := i.active.Load(); a != nil {
		return a.model.Name()
	}
	return i.settings.ModelName
}

// Configure selects the model to use. It does nothing once the invoker is
// ready or degraded.
//
// Without an API key, or with mock mode on, the invoker goes straight to
// degraded mode without touching the backend. Otherwise each candidate from
// CandidateModels is opened in order and the first that opens becomes
// active. When none opens, the invoker is degraded and the last open error
// is returned wrapped in ErrNoModelAvailable. A cancelled context leaves
// the invoker unconfigured so a later request can try again.
func (i *Invoker) Configure(ctx context.Context) error {
	switch i.Mode() {
	case ModeReady, ModeDegraded:
		return nil
	}

	if i.settings.forcesDemo() {
		if !i.settings.MockMode {
			i.logger.WarnContext(ctx, "no API key provided, falling back to demo mode")
		}
		i.mode.Store(int32(ModeDegraded))
		return nil
	}

	i.mode.Store(int32(ModeConfiguring))

	available, err := i.backend.ListModels(ctx)
	if err != nil {
		i.logger.DebugContext(ctx, "could not list models, trying all candidates", slog.Any("error", err))
		available = nil
	}
	candidates := CandidateModels(i.settings.ModelName, available)

	var lastErr error
	for _, name := range candidates {
		model, err := i.backend.Open(ctx, name, i.settings.SystemInstruction)
		if err != nil {
			i.logger.DebugContext(ctx, "candidate model unavailable",
				slog.String("model", name),
				slog.Any("error", err))
			lastErr = err
			continue
		}
		i.active.Store(&activeModel{model: model})
		i.mode.Store(int32(ModeReady))
		i.logger.InfoContext(ctx, "generation model configured", slog.String("model", model.Name()))
		return nil
	}

	// A concurrent Configure may have succeeded while this one was probing.
	if i.active.Load() != nil {
		i.mode.Store(int32(ModeReady))
		return nil
	}
	if ctx.Err() != nil {
		i.mode.Store(int32(ModeUnconfigured))
		return ctx.Err()
	}
	if lastErr == nil {
		lastErr = errors.New("no candidate models")
	}
	i.mode.Store(int32(ModeDegraded))
	i.logger.ErrorContext(ctx, "failed to configure generation model, falling back to demo mode",
		slog.Int("candidates", len(candidates)),
		slog.Any("error", lastErr))
	return fmt.Errorf("%w: %w", ErrNoModelAvailable, lastErr)
}

// CandidateModels returns the models to try, in order: the requested model
// without a "-latest" suffix, then PreferredModels, without duplicates or
// empty names. When available is non-empty the list is narrowed to the
// models in it; if that leaves nothing, available itself is returned.
func CandidateModels(requested string, available []string) []string {
	requested = strings.TrimSuffix(strings.TrimSpace(requested), "-latest")

	seen := make(map[string]bool, len(PreferredModels)+1)
	candidates := make([]string, 0, len(PreferredModels)+1)
	for _, name := range append([]string{requested}, PreferredModels...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		candidates = append(candidates, name)
	}

	if len(available) == 0 {
		return candidates
	}

	offered := make(map[string]bool, len(available))
	for _, name := range available {
		offered[name] = true
	}
	narrowed := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if offered[name] {
			narrowed = append(narrowed, name)
		}
	}
	if len(narrowed) == 0 {
		return append([]string(nil), available...)
	}
	return narrowed
}

// Generate runs one generation call against the active model.
//
// Transient failures are retried with exponential backoff up to the retry
// policy's attempt budget. Permanent failures (ErrPermanent, or a rejected
// request or credential in the error text) end the call at once. When a failure says the model is not found or
// unsupported, the invoker switches to FallbackModel and repeats the call
// once within the same attempt. Once the budget is spent the last error is
// returned wrapped in ErrUpstream.
//
// Generate returns ErrDegraded when the invoker is not ready.
func (i *Invoker) Generate(ctx context.Context, prompt string, params Params) (*Response, error) {
	active := i.active.Load()
	if i.Mode() != ModeReady || active == nil {
		return nil, ErrDegraded
	}

	model := active.model
	start := time.Now()
	attempt := 0
	var resp *Response

	op := func() error {
		attempt++
		r, err := model.Generate(ctx, prompt, params)
		if err != nil && isModelUnavailable(err) {
			i.logger.InfoContext(ctx, "model unavailable, switching to fallback model",
				slog.String("model", model.Name()),
				slog.String("fallback", FallbackModel),
				slog.Any("error", err))

			fallback, openErr := i.backend.Open(ctx, FallbackModel, i.settings.SystemInstruction)
			if openErr != nil {
				err = openErr
			} else {
				i.active.Store(&activeModel{model: fallback})
				model = fallback
				r, err = model.Generate(ctx, prompt, params)
			}
		}

		if err != nil {
			i.logger.WarnContext(ctx, "generation call failed",
				slog.String("model", model.Name()),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			if ctx.Err() != nil || isPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(op, i.retry.backOff(ctx)); err != nil {
		metrics.ObserveGeneration(model.Name(), metrics.OutcomeError, time.Since(start))
		i.logger.ErrorContext(ctx, "generation failed after retries",
			slog.String("model", model.Name()),
			slog.Int("attempts", attempt),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	metrics.ObserveGeneration(model.Name(), metrics.OutcomeSuccess, time.Since(start))
	i.logger.DebugContext(ctx, "generation call succeeded",
		slog.String("model", model.Name()),
		slog.Int("attempts", attempt))
	return resp, nil
}

// isModelUnavailable reports whether err says the model does not exist or
// does not support generation.
func isModelUnavailable(err error) bool {
	if errors.Is(err, ErrModelNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "404") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "unsupported")
}

// permanentMarkers are error fragments of requests the API rejected outright,
// for backends that do not tag their errors with ErrPermanent.
var permanentMarkers = []string{
	"error 400",
	"error 401",
	"error 403",
	"invalid_argument",
	"unauthenticated",
	"permission_denied",
	"api key not valid",
}

func isPermanent(err error) bool {
	if errors.Is(err, ErrPermanent) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
