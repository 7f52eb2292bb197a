// Package api handles incoming HTTP requests, request validation and
// response formatting for the advisory endpoints. It adapts HTTP to the
// advisor and history services and maps their errors to status codes.
package api
