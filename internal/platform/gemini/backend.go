package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/phrazzld/agro-api/internal/generation"
	"google.golang.org/genai"
)

const (
	modelPrefix    = "models/"
	generateAction = "generateContent"
)

// modelsAPI is the subset of *genai.Models used by the adapter.
type modelsAPI interface {
	All(ctx context.Context) iter.Seq2[*genai.Model, error]
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Backend implements generation.Backend using the Gemini API.
type Backend struct {
	models modelsAPI
	logger *slog.Logger
}

var _ generation.Backend = (*Backend)(nil)

// NewBackend creates a Backend with a new Gemini API client.
//
// Parameters:
//   - ctx: Context for client initialization
//   - apiKey: The Gemini API key
//   - logger: A structured logger for operation logging
//
// Returns:
//   - A ready Backend, or an error if the key is missing or the client cannot be created
func NewBackend(ctx context.Context, apiKey string, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: %w", generation.ErrInvalidConfig, ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %w", generation.ErrInvalidConfig, err)
	}

	return newBackend(client.Models, logger), nil
}

func newBackend(models modelsAPI, logger *slog.Logger) *Backend {
	return &Backend{
		models: models,
		logger: logger.With(slog.String("component", "gemini_backend")),
	}
}

// ListModels returns the models that support content generation, without
// the "models/" prefix.
func (b *Backend) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	for m, err := range b.models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list Gemini models: %w", err)
		}
		if m == nil || !slices.Contains(m.SupportedActions, generateAction) {
			continue
		}
		names = append(names, strings.TrimPrefix(m.Name, modelPrefix))
	}

	b.logger.DebugContext(ctx, "listed generation models", slog.Int("count", len(names)))
	return names, nil
}

// Open probes the named model and returns a handle bound to the system
// instruction.
func (b *Backend) Open(ctx context.Context, name, systemInstruction string) (generation.Model, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), modelPrefix)
	if name == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	if _, err := b.models.Get(ctx, name, nil); err != nil {
		return nil, fmt.Errorf("failed to open model %s: %w", name, classifyError(err))
	}

	b.logger.InfoContext(ctx, "gemini model opened", slog.String("model", name))
	return &Model{
		name:              name,
		systemInstruction: systemInstruction,
		models:            b.models,
	}, nil
}

// Model implements generation.Model for one Gemini model.
type Model struct {
	name              string
	systemInstruction string
	models            modelsAPI
}

var _ generation.Model = (*Model)(nil)

// Name returns the model name without prefix.
func (m *Model) Name() string {
	return m.name
}

// Generate sends prompt to the model with the given parameters.
func (m *Model) Generate(
	ctx context.Context,
	prompt string,
	params generation.Params,
) (*generation.Response, error) {
	resp, err := m.models.GenerateContent(ctx, m.name, genai.Text(prompt), buildConfig(m.systemInstruction, params))
	if err != nil {
		return nil, classifyError(err)
	}
	return toResponse(resp), nil
}
