package models

import (
	"encoding/json"
	"time"
)

// CacheEntry is the last-known-good value stored under a key.
// Entries never expire on their own; staleness is for the caller to judge.
type CacheEntry struct {
	Key      string          `json:"key"`
	Payload  json.RawMessage `json:"payload"`
	StoredAt time.Time       `json:"storedAt"`
}

// Age reports how long ago the entry was written.
func (c CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(c.StoredAt)
}
