// Package task runs background work off the request path. A TaskQueue
// buffers tasks and a WorkerPool executes them; HistoryRecorder uses both to
// persist advisory history without delaying the HTTP response.
package task
