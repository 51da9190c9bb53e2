// Package metrics renders the status store in the Prometheus text format.
// Nothing is cached: every scrape reads a fresh snapshot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hamed0406/pong/internal/repo"
)

const namespace = "pong"

type Collector struct {
	source  repo.StatusReader
	elapsed *prometheus.Desc
	up      *prometheus.Desc
	changed *prometheus.Desc
}

func NewCollector(source repo.StatusReader) *Collector {
	labels := []string{"task_type", "target"}
	return &Collector{
		source: source,
		elapsed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "target", "elapsed_milliseconds"),
			"Latency of the most recent probe in milliseconds, -1 when it failed.",
			labels, nil,
		),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "target", "up"),
			"Whether the most recent probe succeeded.",
			labels, nil,
		),
		changed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "target", "last_change_timestamp_seconds"),
			"Unix time the stored result last changed.",
			labels, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.elapsed
	ch <- c.up
	ch <- c.changed
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range c.source.Snapshot() {
		typ := st.Type.String()
		up := 0.0
		if st.Up() {
			up = 1
		}
		ch <- prometheus.MustNewConstMetric(c.elapsed, prometheus.GaugeValue, float64(st.Elapsed), typ, st.Target)
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up, typ, st.Target)
		ch <- prometheus.MustNewConstMetric(c.changed, prometheus.GaugeValue,
			float64(st.UpdatedAt.UnixNano())/1e9, typ, st.Target)
	}
}

// NewRegistry returns a registry holding the status collector plus the
// standard Go runtime and process collectors.
func NewRegistry(source repo.StatusReader) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(source),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
