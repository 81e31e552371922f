// Package qlog defines the event types recorded onto a qlogwriter.Trace and
// the adapter that bridges a connection's callback-style reporting onto
// that trace.
package qlog

import (
	"time"

	"github.com/quic-go/careful-resume/internal/congestion"
	"github.com/quic-go/careful-resume/internal/protocol"
	"github.com/quic-go/careful-resume/qlogwriter"
)

// CarefulResumePhaseUpdated is emitted on every Careful Resume phase
// transition (spec §4.3): old phase (if any), new phase, the current
// pipesize, the phase's packet-number mark (0 for Reconnaissance/Normal),
// current cwnd/ssthresh, the remembered previous (rtt, cwnd) when non-zero,
// and the trigger recorded at the last change_state call.
type CarefulResumePhaseUpdated struct {
	OldPhase *string
	NewPhase string

	Pipesize protocol.ByteCount
	Mark     protocol.PacketNumber

	CongestionWindow   protocol.ByteCount
	SlowStartThreshold protocol.ByteCount

	PreviousRTT  time.Duration
	PreviousCwnd protocol.ByteCount

	Trigger string
}

func (CarefulResumePhaseUpdated) Name() string { return "recovery:careful_resume_phase_updated" }

// CarefulResumeMetricsUpdated is a lightweight companion event recorded by
// ConnectionTracerAdapter alongside the phase stream, correlating a minRTT
// sample with the congestion window in effect at the time.
type CarefulResumeMetricsUpdated struct {
	MinRTT           time.Duration
	CongestionWindow protocol.ByteCount
}

func (CarefulResumeMetricsUpdated) Name() string { return "recovery:careful_resume_metrics_updated" }

// CarefulResumeProjector translates Resume phase-change callbacks into
// CarefulResumePhaseUpdated events, suppressing events when the phase has
// not actually changed (the projector described in spec §4.3). It is
// "optional" in the sense that a build without telemetry can simply never
// construct one; Resume itself has no compile-time dependency on qlog.
type CarefulResumeProjector struct {
	trace qlogwriter.Trace

	previousRTT  time.Duration
	previousCwnd protocol.ByteCount

	cwnd     func() protocol.ByteCount
	ssthresh func() protocol.ByteCount
}

// NewCarefulResumeProjector creates a projector that records onto trace.
// cwnd and ssthresh are read lazily at event time from the owning
// congestion controller.
func NewCarefulResumeProjector(trace qlogwriter.Trace, previousRTT time.Duration, previousCwnd protocol.ByteCount, cwnd, ssthresh func() protocol.ByteCount) *CarefulResumeProjector {
	return &CarefulResumeProjector{
		trace:        trace,
		previousRTT:  previousRTT,
		previousCwnd: previousCwnd,
		cwnd:         cwnd,
		ssthresh:     ssthresh,
	}
}

// OnPhaseChange is a congestion.PhaseChangeFunc: wire it via Resume.SetTracer.
func (p *CarefulResumeProjector) OnPhaseChange(old, new congestion.Phase, trigger congestion.Trigger, pipesize protocol.ByteCount) {
	if p == nil || p.trace == nil {
		return
	}
	if old.Kind == new.Kind && old.Mark == new.Mark {
		return
	}

	recorder := p.trace.AddProducer()
	if recorder == nil {
		return
	}
	defer recorder.Close()

	oldPhase := old.Kind.String()
	ev := CarefulResumePhaseUpdated{
		OldPhase: &oldPhase,
		NewPhase: new.Kind.String(),
		Pipesize: pipesize,
		Mark:     markOf(new),
		Trigger:  string(trigger),
	}
	if p.cwnd != nil {
		ev.CongestionWindow = p.cwnd()
	}
	if p.ssthresh != nil {
		ev.SlowStartThreshold = p.ssthresh()
	}
	if p.previousRTT != 0 {
		ev.PreviousRTT = p.previousRTT
	}
	if p.previousCwnd != 0 {
		ev.PreviousCwnd = p.previousCwnd
	}

	recorder.RecordEvent(ev)
}

// markOf returns the phase's packet-number mark, or 0 for the two phases
// that don't carry one (spec §4.3).
func markOf(p congestion.Phase) protocol.PacketNumber {
	switch p.Kind {
	case congestion.PhaseUnvalidated, congestion.PhaseValidating, congestion.PhaseSafeRetreat:
		return p.Mark
	default:
		return 0
	}
}
