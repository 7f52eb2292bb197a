// Package advisor implements the advisory pipeline: it turns a query into a
// model answer, escalating through neutral reframes when the model blocks the
// answer, resolving structured recommendations for sensor readings, and
// serving deterministic demo answers while the generation backend is
// unavailable.
package advisor
