// Package service contains the application-level use cases that sit between
// the HTTP layer and storage.
//
// The advisory pipeline itself lives in the advisor subpackage. This package
// holds the history use case: recording each advisory exchange and serving
// the recent conversation and sensor history.
//
// Services receive their dependencies through constructor injection and
// depend on the store interfaces, never on a specific database
// implementation.
package service
