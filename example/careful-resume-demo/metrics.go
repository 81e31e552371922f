package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// crDemoMetrics holds Prometheus gauges for the simulated Careful Resume
// run, adapted from the L4S echo demo's Prague gauges to CR's own vocabulary
// (jump size, pipesize, phase, persisted CREvents) rather than Prague alpha.
type crDemoMetrics struct {
	JumpBytes     prometheus.Gauge
	PipesizeBytes prometheus.Gauge
	Phase         prometheus.Gauge
	CREventsTotal prometheus.Counter
}

func newCRDemoMetrics() *crDemoMetrics {
	return &crDemoMetrics{
		JumpBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "careful_resume_demo_jump_bytes",
			Help: "Bytes by which the last SendPacket call enlarged the congestion window",
		}),
		PipesizeBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "careful_resume_demo_pipesize_bytes",
			Help: "Current Careful Resume pipesize estimate",
		}),
		Phase: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "careful_resume_demo_phase",
			Help: "Current Careful Resume phase (0=Reconnaissance,1=Unvalidated,2=Validating,3=SafeRetreat,4=Normal)",
		}),
		CREventsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "careful_resume_demo_cr_events_total",
			Help: "Number of CREvents persisted by CRMetrics.MaybeUpdate across all simulated connections",
		}),
	}
}

func (m *crDemoMetrics) observePhase(kind int) {
	m.Phase.Set(float64(kind))
}

func (m *crDemoMetrics) observeJump(jumpBytes int64) {
	m.JumpBytes.Set(float64(jumpBytes))
}

func (m *crDemoMetrics) observePipesize(pipesizeBytes int64) {
	m.PipesizeBytes.Set(float64(pipesizeBytes))
}

func (m *crDemoMetrics) observeCREvent() {
	m.CREventsTotal.Inc()
}
