// Package connectivity tracks whether the remote server is reachable.
//
// State is the single shared record of the last known status. Monitor owns
// it: RefreshStatus is the only writer, while IsConnectedNow is a cheap read
// that never touches the network.
package connectivity

import (
	"sync"
	"time"
)

type State struct {
	mu            sync.RWMutex
	connected     bool
	lastCheckedAt time.Time
}

// NewState starts optimistic: connected, never checked. The first
// RefreshStatus therefore always probes.
func NewState() *State {
	return &State{connected: true}
}

func (s *State) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *State) Snapshot() (connected bool, lastCheckedAt time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected, s.lastCheckedAt
}

func (s *State) set(connected bool, at time.Time) {
	s.mu.Lock()
	s.connected = connected
	s.lastCheckedAt = at
	s.mu.Unlock()
}
