package generation_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/agro-api/internal/generation"
	"github.com/phrazzld/agro-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetry() generation.Option {
	return generation.WithRetryPolicy(generation.RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	})
}

func liveSettings(model string) generation.Settings {
	return generation.Settings{
		APIKey:            "test-key",
		ModelName:         model,
		SystemInstruction: "Eres un asistente agrícola.",
	}
}

// readyInvoker returns an invoker configured against backend with the
// requested model active.
func readyInvoker(t *testing.T, backend *mocks.MockBackend, model string) *generation.Invoker {
	t.Helper()
	inv, err := generation.NewInvoker(backend, liveSettings(model), discardLogger(), fastRetry())
	require.NoError(t, err)
	require.NoError(t, inv.Configure(context.Background()))
	require.Equal(t, generation.ModeReady, inv.Mode())
	return inv
}

func TestCandidateModels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		requested string
		available []string
		expected  []string
	}{
		{
			name:      "latest suffix stripped and duplicates removed",
			requested: "gemini-1.5-pro-latest",
			expected: []string{
				"gemini-1.5-pro", "gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash",
			},
		},
		{
			name:     "empty request uses preferences",
			expected: generation.PreferredModels,
		},
		{
			name:      "narrowed to available models",
			requested: "gemini-1.5-pro-latest",
			available: []string{"gemini-2.0-flash", "text-embedding-004", "gemini-1.5-flash"},
			expected:  []string{"gemini-2.0-flash", "gemini-1.5-flash"},
		},
		{
			name:      "requested model kept first when available",
			requested: "my-tuned-model",
			available: []string{"gemini-2.5-pro", "my-tuned-model"},
			expected:  []string{"my-tuned-model", "gemini-2.5-pro"},
		},
		{
			name:      "no overlap falls back to available set",
			requested: "gemini-1.5-pro",
			available: []string{"custom-a", "custom-b"},
			expected:  []string{"custom-a", "custom-b"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, generation.CandidateModels(tc.requested, tc.available))
		})
	}
}

func TestNewInvoker_Validation(t *testing.T) {
	t.Parallel()

	_, err := generation.NewInvoker(mocks.NewMockBackend(), liveSettings("m"), nil)
	assert.Error(t, err)

	_, err = generation.NewInvoker(nil, liveSettings("m"), discardLogger())
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	inv, err := generation.NewInvoker(nil, generation.Settings{ModelName: "m"}, discardLogger())
	require.NoError(t, err, "a nil backend is fine without an API key")
	assert.Equal(t, generation.ModeUnconfigured, inv.Mode())
}

func TestConfigure_DegradedWithoutBackendCalls(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings generation.Settings
	}{
		{"no api key", generation.Settings{ModelName: "gemini-1.5-pro"}},
		{"blank api key", generation.Settings{APIKey: "   ", ModelName: "gemini-1.5-pro"}},
		{"mock mode with key", generation.Settings{APIKey: "k", ModelName: "gemini-1.5-pro", MockMode: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			backend := mocks.NewMockBackend()
			inv, err := generation.NewInvoker(backend, tc.settings, discardLogger())
			require.NoError(t, err)

			require.NoError(t, inv.Configure(context.Background()))
			assert.Equal(t, generation.ModeDegraded, inv.Mode())
			assert.False(t, backend.Touched())
			assert.Equal(t, "gemini-1.5-pro", inv.ModelName())

			_, err = inv.Generate(context.Background(), "hola", generation.ParamsFor(""))
			assert.ErrorIs(t, err, generation.ErrDegraded)
			assert.False(t, backend.Touched())
		})
	}
}

func TestConfigure_FirstOpenableCandidateWins(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	backend.OpenErrs["gemini-1.5-pro"] = errors.New("404 not found")
	backend.OpenErrs["gemini-2.5-pro"] = errors.New("permission denied")

	inv := readyInvoker(t, backend, "gemini-1.5-pro-latest")

	assert.Equal(t, "gemini-2.5-flash", inv.ModelName())
	assert.Equal(t, []string{"gemini-1.5-pro", "gemini-2.5-pro", "gemini-2.5-flash"}, backend.Opened())
	assert.Equal(t, "Eres un asistente agrícola.", backend.SystemInstructions[0])

	require.NoError(t, inv.Configure(context.Background()))
	assert.Len(t, backend.Opened(), 3, "a ready invoker does not probe again")
}

func TestConfigure_UsesAvailableModels(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	backend.Available = []string{"gemini-2.0-flash"}

	inv := readyInvoker(t, backend, "gemini-1.5-pro-latest")
	assert.Equal(t, "gemini-2.0-flash", inv.ModelName())
	assert.Equal(t, []string{"gemini-2.0-flash"}, backend.Opened())
}

func TestConfigure_ListFailureTriesAllCandidates(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	backend.ListErr = errors.New("list failed")

	inv := readyInvoker(t, backend, "gemini-1.5-pro")
	assert.Equal(t, "gemini-1.5-pro", inv.ModelName())
}

func TestConfigure_AllCandidatesFail(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	lastErr := errors.New("boom flash")
	for _, name := range generation.CandidateModels("gemini-1.5-pro", nil) {
		backend.OpenErrs[name] = errors.New("boom " + name)
	}
	backend.OpenErrs["gemini-1.5-flash"] = lastErr

	inv, err := generation.NewInvoker(backend, liveSettings("gemini-1.5-pro"), discardLogger())
	require.NoError(t, err)

	err = inv.Configure(context.Background())
	assert.ErrorIs(t, err, generation.ErrNoModelAvailable)
	assert.ErrorIs(t, err, lastErr, "the last open error is surfaced")
	assert.Equal(t, generation.ModeDegraded, inv.Mode())

	opened := len(backend.Opened())
	require.NoError(t, inv.Configure(context.Background()))
	assert.Len(t, backend.Opened(), opened, "a degraded invoker does not probe again")
}

func TestConfigure_CancelledContextStaysUnconfigured(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	inv, err := generation.NewInvoker(backend, liveSettings("gemini-1.5-pro"), discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = inv.Configure(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, generation.ModeUnconfigured, inv.Mode())

	require.NoError(t, inv.Configure(context.Background()))
	assert.Equal(t, generation.ModeReady, inv.Mode())
}

type slowProbeKey struct{}

// racingBackend fails every Open made with a slow-probe context, after
// holding the first one until release is closed.
type racingBackend struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *racingBackend) ListModels(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (b *racingBackend) Open(ctx context.Context, name, systemInstruction string) (generation.Model, error) {
	if ctx.Value(slowProbeKey{}) != nil {
		b.once.Do(func() {
			close(b.entered)
			<-b.release
		})
		return nil, errors.New("Error 503, Status: UNAVAILABLE")
	}
	return &mocks.MockModel{ModelName: name}, nil
}

func TestConfigure_LateFailureKeepsReadyMode(t *testing.T) {
	t.Parallel()

	backend := &racingBackend{entered: make(chan struct{}), release: make(chan struct{})}
	inv, err := generation.NewInvoker(backend, liveSettings("gemini-1.5-pro"), discardLogger(), fastRetry())
	require.NoError(t, err)

	slowCtx := context.WithValue(context.Background(), slowProbeKey{}, true)
	done := make(chan error, 1)
	go func() { done <- inv.Configure(slowCtx) }()

	<-backend.entered
	require.NoError(t, inv.Configure(context.Background()))
	require.Equal(t, generation.ModeReady, inv.Mode())

	close(backend.release)
	assert.NoError(t, <-done)
	assert.Equal(t, generation.ModeReady, inv.Mode(), "a failed probe must not demote a ready invoker")

	_, err = inv.Generate(context.Background(), "p", generation.ParamsFor(""))
	assert.NoError(t, err)
}

func TestGenerate_Success(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	backend.Model("gemini-1.5-pro").Response = mocks.TextResponse("Riego por goteo.")
	inv := readyInvoker(t, backend, "gemini-1.5-pro")

	params := generation.ParamsFor("short")
	resp, err := inv.Generate(context.Background(), "¿Cómo riego?", params)
	require.NoError(t, err)

	assert.Equal(t, "Riego por goteo.", generation.Extract(resp).Text)
	model := backend.Model("gemini-1.5-pro")
	assert.Equal(t, []string{"¿Cómo riego?"}, model.Prompts())
	assert.Equal(t, params, model.Params()[0])
}

func TestGenerate_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	calls := 0
	backend.Model("gemini-1.5-pro").GenerateFn = func(
		ctx context.Context, prompt string, params generation.Params,
	) (*generation.Response, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("503 service unavailable")
		}
		return mocks.TextResponse("ok"), nil
	}
	inv := readyInvoker(t, backend, "gemini-1.5-pro")

	resp, err := inv.Generate(context.Background(), "p", generation.ParamsFor(""))
	require.NoError(t, err)
	assert.Equal(t, "ok", generation.Extract(resp).Text)
	assert.Equal(t, 3, backend.Model("gemini-1.5-pro").CallCount())
}

func TestGenerate_ExhaustedRetriesReturnUpstreamError(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	cause := errors.New("429 resource exhausted")
	backend.Model("gemini-1.5-pro").Err = cause
	inv := readyInvoker(t, backend, "gemini-1.5-pro")

	_, err := inv.Generate(context.Background(), "p", generation.ParamsFor(""))
	assert.ErrorIs(t, err, generation.ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, backend.Model("gemini-1.5-pro").CallCount(), "never more than three attempts")
}

func TestGenerate_PermanentFailuresAreNotRetried(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"tagged permanent", fmt.Errorf("%w: bad request", generation.ErrPermanent)},
		{"unauthenticated", errors.New("Error 401, Message: API key missing, Status: UNAUTHENTICATED")},
		{"permission denied", errors.New("Error 403, Message: forbidden, Status: PERMISSION_DENIED")},
		{"invalid argument", errors.New("Error 400, Message: bad field, Status: INVALID_ARGUMENT")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			backend := mocks.NewMockBackend()
			backend.Model("gemini-1.5-pro").Err = tc.err
			inv := readyInvoker(t, backend, "gemini-1.5-pro")

			_, err := inv.Generate(context.Background(), "p", generation.ParamsFor(""))
			assert.ErrorIs(t, err, generation.ErrUpstream)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, 1, backend.Model("gemini-1.5-pro").CallCount())
			assert.Equal(t, "gemini-1.5-pro", inv.ModelName(), "no fallback switch")
		})
	}
}

func TestGenerate_TaggedModelNotFoundSwitchesToFallback(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	backend.Model("gemini-2.5-pro").Err = fmt.Errorf("%w: Error 404", generation.ErrModelNotFound)
	inv := readyInvoker(t, backend, "gemini-2.5-pro")

	_, err := inv.Generate(context.Background(), "p", generation.ParamsFor(""))
	require.NoError(t, err)
	assert.Equal(t, generation.FallbackModel, inv.ModelName())
}

func TestGenerate_SwitchesToFallbackModel(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	backend.Model("gemini-2.5-pro").Err = errors.New("models/gemini-2.5-pro is not found for API version v1beta")
	backend.Model(generation.FallbackModel).Response = mocks.TextResponse("desde el modelo de respaldo")
	inv := readyInvoker(t, backend, "gemini-2.5-pro")

	resp, err := inv.Generate(context.Background(), "p", generation.ParamsFor(""))
	require.NoError(t, err)

	assert.Equal(t, "desde el modelo de respaldo", generation.Extract(resp).Text)
	assert.Equal(t, 1, backend.Model("gemini-2.5-pro").CallCount())
	assert.Equal(t, 1, backend.Model(generation.FallbackModel).CallCount())
	assert.Equal(t, generation.FallbackModel, inv.ModelName(), "later calls use the fallback model")
}

func TestGenerate_FallbackOpenFailureIsRetried(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	backend.Model("gemini-2.5-pro").Err = errors.New("unsupported model")
	inv := readyInvoker(t, backend, "gemini-2.5-pro")
	backend.OpenErrs[generation.FallbackModel] = errors.New("fallback unavailable")

	_, err := inv.Generate(context.Background(), "p", generation.ParamsFor(""))
	assert.ErrorIs(t, err, generation.ErrUpstream)
	assert.Equal(t, 3, backend.Model("gemini-2.5-pro").CallCount())
	assert.Equal(t, "gemini-2.5-pro", inv.ModelName())
}

func TestGenerate_CancelledContextIsNotRetried(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	ctx, cancel := context.WithCancel(context.Background())
	backend.Model("gemini-1.5-pro").GenerateFn = func(
		ctx context.Context, prompt string, params generation.Params,
	) (*generation.Response, error) {
		cancel()
		return nil, ctx.Err()
	}
	inv := readyInvoker(t, backend, "gemini-1.5-pro")

	_, err := inv.Generate(ctx, "p", generation.ParamsFor(""))
	assert.ErrorIs(t, err, generation.ErrUpstream)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, backend.Model("gemini-1.5-pro").CallCount())
}

func TestSetMode(t *testing.T) {
	t.Parallel()

	backend := mocks.NewMockBackend()
	inv, err := generation.NewInvoker(backend, liveSettings("gemini-1.5-pro"), discardLogger())
	require.NoError(t, err)

	inv.SetMode(generation.ModeReady)
	assert.Equal(t, generation.ModeUnconfigured, inv.Mode(), "ready requires a selected model")

	require.NoError(t, inv.Configure(context.Background()))
	inv.SetMode(generation.ModeDegraded)
	assert.Equal(t, generation.ModeDegraded, inv.Mode())

	_, err = inv.Generate(context.Background(), "p", generation.ParamsFor(""))
	assert.ErrorIs(t, err, generation.ErrDegraded)

	inv.SetMode(generation.ModeReady)
	_, err = inv.Generate(context.Background(), "p", generation.ParamsFor(""))
	assert.NoError(t, err)
}

func TestModeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unconfigured", generation.ModeUnconfigured.String())
	assert.Equal(t, "configuring", generation.ModeConfiguring.String())
	assert.Equal(t, "ready", generation.ModeReady.String())
	assert.Equal(t, "degraded", generation.ModeDegraded.String())
	assert.Equal(t, "unknown", generation.Mode(42).String())
}
