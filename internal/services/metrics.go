package services

import "sync/atomic"

// Metrics counts workspace activity across all sessions.
type Metrics struct {
	Mutations     atomic.Int64
	Refreshes     atomic.Int64
	StaleDiscards atomic.Int64
	FetchErrors   atomic.Int64
	Evictions     atomic.Int64
}
