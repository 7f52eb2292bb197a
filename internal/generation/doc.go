// Package generation owns the connection to the text-generation model. It
// selects a concrete model from a preference list intersected with what the
// backend offers, issues generation calls with fixed decoding parameters and
// safety thresholds, retries transient failures, and extracts answer text
// from the model response.
//
// The Backend and Model interfaces are the boundary to the external service;
// internal/platform/gemini implements them with the Gemini API. Responses
// cross that boundary as the Response type defined here, so everything above
// the adapter works with one fixed shape.
package generation
