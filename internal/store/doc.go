// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the advisory pipeline, so history can be kept in PostgreSQL or left out
// entirely without touching request handling.
package store
