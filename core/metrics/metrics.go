// Package metrics exposes the control plane's Prometheus instrumentation:
// per-processor status and throughput gauges/counters, wired into
// core/processor via the processor.Metrics interface, and the content
// repository's write counters.
package metrics

import (
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rusk-dataflow/rusk/core/processor"
)

// Processor implements processor.Metrics against a dedicated Prometheus
// registry.
type Processor struct {
	status  *prometheus.GaugeVec
	packets *prometheus.CounterVec
}

// NewProcessor registers its collectors against reg and returns a ready
// Processor sink.
func NewProcessor(reg prometheus.Registerer) *Processor {
	p := &Processor{
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rusk_processor_status",
			Help: "Current status of a processor: 0=Stopped, 1=Running, 2=Errored.",
		}, []string{"processor_id", "name", "kind"}),
		packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rusk_processor_packets_processed_total",
			Help: "Total successful fan-out rounds performed by a processor.",
		}, []string{"processor_id", "name", "kind"}),
	}
	reg.MustRegister(p.status, p.packets)
	return p
}

// SetStatus implements processor.Metrics.
func (p *Processor) SetStatus(id uuid.UUID, name string, kind processor.Kind, status processor.Status) {
	p.status.WithLabelValues(id.String(), name, kind.String()).Set(float64(status))
}

// IncPacketsProcessed implements processor.Metrics.
func (p *Processor) IncPacketsProcessed(id uuid.UUID, name string, kind processor.Kind) {
	p.packets.WithLabelValues(id.String(), name, kind.String()).Inc()
}

// ContentRepo holds the content repository's write counters.
type ContentRepo struct {
	recordsWritten *prometheus.CounterVec
	bytesWritten   *prometheus.CounterVec
}

// NewContentRepo registers its collectors against reg.
func NewContentRepo(reg prometheus.Registerer) *ContentRepo {
	c := &ContentRepo{
		recordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rusk_content_repo_records_written_total",
			Help: "Total records successfully appended to the content repository file.",
		}, []string{"file"}),
		bytesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rusk_content_repo_bytes_written_total",
			Help: "Total payload bytes successfully appended, excluding the record delimiter.",
		}, []string{"file"}),
	}
	reg.MustRegister(c.recordsWritten, c.bytesWritten)
	return c
}

// ObserveWrite records one successful append of n payload bytes to file.
func (c *ContentRepo) ObserveWrite(file string, n int) {
	c.recordsWritten.WithLabelValues(file).Inc()
	c.bytesWritten.WithLabelValues(file).Add(float64(n))
}
