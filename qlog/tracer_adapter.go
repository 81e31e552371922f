package qlog

import (
	"time"

	"github.com/quic-go/careful-resume/internal/congestion"
	"github.com/quic-go/careful-resume/internal/protocol"
	"github.com/quic-go/careful-resume/qlogwriter"
)

// ConnectionTracerAdapter bridges a connection's callback-style reporting
// onto a qlogwriter.Trace. It wraps a CarefulResumeProjector for the phase
// stream and adds a companion metrics event, so a connection that wants both
// can hold a single tracer value rather than wiring the projector directly.
type ConnectionTracerAdapter struct {
	trace     qlogwriter.Trace
	projector *CarefulResumeProjector
}

// NewConnectionTracerAdapter creates an adapter recording onto trace.
// previousRTT/previousCwnd are the values Careful Resume was Setup with; cwnd
// and ssthresh are read lazily at event time, same as NewCarefulResumeProjector.
func NewConnectionTracerAdapter(trace qlogwriter.Trace, previousRTT time.Duration, previousCwnd protocol.ByteCount, cwnd, ssthresh func() protocol.ByteCount) *ConnectionTracerAdapter {
	return &ConnectionTracerAdapter{
		trace:     trace,
		projector: NewCarefulResumeProjector(trace, previousRTT, previousCwnd, cwnd, ssthresh),
	}
}

// UpdatedCarefulResumePhase is a congestion.PhaseChangeFunc: wire it via
// Resume.SetTracer to record CarefulResumePhaseUpdated events through the
// wrapped projector.
func (c *ConnectionTracerAdapter) UpdatedCarefulResumePhase(old, new congestion.Phase, trigger congestion.Trigger, pipesize protocol.ByteCount) {
	if c == nil {
		return
	}
	c.projector.OnPhaseChange(old, new, trigger, pipesize)
}

// UpdatedCarefulResumeMetrics records a point-in-time (minRTT, cwnd) snapshot
// alongside the phase stream, for callers that want to correlate Careful
// Resume transitions with the congestion window they rode in on.
func (c *ConnectionTracerAdapter) UpdatedCarefulResumeMetrics(minRTT time.Duration, cwnd protocol.ByteCount) {
	if c == nil || c.trace == nil {
		return
	}
	recorder := c.trace.AddProducer()
	if recorder == nil {
		return
	}
	defer recorder.Close()

	recorder.RecordEvent(CarefulResumeMetricsUpdated{
		MinRTT:           minRTT,
		CongestionWindow: cwnd,
	})
}
