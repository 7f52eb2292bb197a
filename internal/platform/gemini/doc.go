// Package gemini provides an implementation of the generation.Backend interface
// on top of Google's Gemini API.
//
// This package is an infrastructure adapter: it connects the advisory pipeline
// to the external Gemini service without exposing SDK types to the core.
//
// Key components:
//
// 1. Backend:
//   - Implements generation.Backend (model discovery and probing)
//   - Lists the models that support content generation
//
// 2. Model:
//   - Implements generation.Model for one opened Gemini model
//   - Translates generation.Params into the SDK's request configuration,
//     including the safety profile and the JSON response MIME type
//
// 3. Response mapping:
//   - Converts SDK responses into generation.Response exactly once, so
//     extraction never depends on SDK field shapes
//
// Retries, fallback models and degraded mode are handled by
// generation.Invoker, not here.
package gemini
