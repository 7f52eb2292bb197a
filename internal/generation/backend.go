package generation

import "context"

// Backend is the external generation service.
type Backend interface {
	// ListModels returns the names of the models that support content
	// generation, without any "models/" prefix. An empty result means the
	// backend cannot tell, and every candidate is tried.
	ListModels(ctx context.Context) ([]string, error)

	// Open returns a handle to the named model configured with the given
	// system instruction. It fails when the model does not exist or cannot
	// be used.
	Open(ctx context.Context, name, systemInstruction string) (Model, error)
}

// Model is an opened generation model.
type Model interface {
	Name() string
	Generate(ctx context.Context, prompt string, params Params) (*Response, error)
}
