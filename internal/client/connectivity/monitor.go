package connectivity

import (
	"context"
	"time"

	"github.com/fieldsync/fieldsync/internal/client/metrics"
	"github.com/fieldsync/fieldsync/internal/logging"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultProbeTimeout = 5 * time.Second
	DefaultDebounce     = 10 * time.Second
)

type Monitor struct {
	state    *State
	probes   []Probe
	timeout  time.Duration
	debounce time.Duration
	group    singleflight.Group
	metrics  *metrics.Metrics
	log      logging.Logger
	now      func() time.Time
}

type Option func(*Monitor)

func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithDebounce sets the window in which RefreshStatus reuses the last
// result. Zero disables debouncing.
func WithDebounce(d time.Duration) Option {
	return func(m *Monitor) {
		if d >= 0 {
			m.debounce = d
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = mt }
}

func NewMonitor(state *State, probes []Probe, log logging.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		state:    state,
		probes:   probes,
		timeout:  DefaultProbeTimeout,
		debounce: DefaultDebounce,
		log:      log.With("component", "connectivity"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsConnectedNow returns the last known status without probing.
func (m *Monitor) IsConnectedNow() bool {
	return m.state.Connected()
}

// LastCheckedAt is the time of the last completed probe round, zero if none.
func (m *Monitor) LastCheckedAt() time.Time {
	_, at := m.state.Snapshot()
	return at
}

// RefreshStatus probes the targets in order and records the outcome. Within
// the debounce window of the previous round it returns the recorded status
// without probing. Concurrent callers share one probe round.
func (m *Monitor) RefreshStatus(ctx context.Context) bool {
	connected, last := m.state.Snapshot()
	if !last.IsZero() && m.now().Sub(last) < m.debounce {
		return connected
	}

	v, _, _ := m.group.Do("refresh", func() (any, error) {
		// another round may have finished while this caller waited
		connected, last := m.state.Snapshot()
		if !last.IsZero() && m.now().Sub(last) < m.debounce {
			return connected, nil
		}

		ok := m.probeAll(ctx)
		if !ok && ctx.Err() != nil {
			m.log.Debug(ctx, "probe round abandoned", "error", ctx.Err())
			return connected, nil
		}
		if ok != connected {
			m.log.Info(ctx, "connectivity changed", "connected", ok)
		}
		m.state.set(ok, m.now())
		return ok, nil
	})
	return v.(bool)
}

func (m *Monitor) probeAll(ctx context.Context) bool {
	for _, p := range m.probes {
		pctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := p.Check(pctx)
		cancel()

		m.metrics.Probe(err == nil)
		if err == nil {
			m.log.Debug(ctx, "probe succeeded", "target", p.Name())
			return true
		}
		m.log.Debug(ctx, "probe failed", "target", p.Name(), "error", err)
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}

// Watch refreshes the status every interval until ctx is done, calling
// onChange (if set) whenever the status flips.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, onChange func(connected bool)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := m.IsConnectedNow()
	for {
		select {
		case <-ticker.C:
			cur := m.RefreshStatus(ctx)
			if cur != prev {
				prev = cur
				if onChange != nil {
					onChange(cur)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
