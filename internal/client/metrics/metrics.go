// Package metrics exposes Prometheus counters for the sync client. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "fieldsync"

type Metrics struct {
	registry       *prometheus.Registry
	remoteRequests *prometheus.CounterVec
	cacheReads     *prometheus.CounterVec
	probes         *prometheus.CounterVec
	syncCycles     *prometheus.CounterVec
	syncRecords    *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Remote gateway requests by outcome kind.",
		}, []string{"method", "outcome"}),
		cacheReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_reads_total",
			Help:      "Cache-aside reads by result (fresh, cached, fallback, miss, failed).",
		}, []string{"result"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connectivity_probes_total",
			Help:      "Connectivity probes by result.",
		}, []string{"result"}),
		syncCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_cycles_total",
			Help:      "Full sync cycles by result.",
		}, []string{"result"}),
		syncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_records_total",
			Help:      "Pending records processed by the upload phase.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.remoteRequests, m.cacheReads, m.probes, m.syncCycles, m.syncRecords)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RemoteRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.remoteRequests.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) CacheRead(result string) {
	if m == nil {
		return
	}
	m.cacheReads.WithLabelValues(result).Inc()
}

func (m *Metrics) Probe(ok bool) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(okLabel(ok)).Inc()
}

func (m *Metrics) SyncCycle(result string) {
	if m == nil {
		return
	}
	m.syncCycles.WithLabelValues(result).Inc()
}

func (m *Metrics) SyncRecord(ok bool) {
	if m == nil {
		return
	}
	m.syncRecords.WithLabelValues(okLabel(ok)).Inc()
}

// WriteText dumps every collected family in the text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, f := range families {
		if _, err := expfmt.MetricFamilyToText(w, f); err != nil {
			return err
		}
	}
	return nil
}

func okLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
