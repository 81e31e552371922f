// Package logging defines the textual, human-facing tracer callbacks used
// for debugging Prague/L4S and Careful Resume behavior, independent of the
// machine-readable qlog event stream.
package logging

import "time"

// ByteCount mirrors protocol.ByteCount without importing internal/protocol,
// keeping this package dependency-free for callers that only want logging.
type ByteCount int64

// PacketNumber mirrors protocol.PacketNumber for the same reason.
type PacketNumber int64

// CongestionState is the high-level sender state surfaced to a human reader.
// Distinct from qlog.CongestionState: this package never imports qlog.
type CongestionState uint8

const (
	CongestionStateSlowStart CongestionState = iota
	CongestionStateCongestionAvoidance
	CongestionStateRecovery
	CongestionStateApplicationLimited
)

func (s CongestionState) String() string {
	switch s {
	case CongestionStateSlowStart:
		return "SlowStart"
	case CongestionStateCongestionAvoidance:
		return "CongestionAvoidance"
	case CongestionStateRecovery:
		return "Recovery"
	case CongestionStateApplicationLimited:
		return "ApplicationLimited"
	default:
		return "Unknown"
	}
}

// ConnectionTracer is a struct of independently-nilable callbacks a caller
// wires up to observe a single connection's congestion behavior. Any field
// left nil is simply never called.
type ConnectionTracer struct {
	UpdatedPragueAlpha     func(alpha float64, markingFraction float64)
	PragueECNFeedback      func(ecnMarkedBytes, totalBytes ByteCount)
	L4SStateChanged        func(enabled bool, algorithm string)
	UpdatedCongestionState func(state CongestionState)

	// UpdatedCarefulResumePhase fires on every Careful Resume phase
	// transition: old/new phase names, the mark (0 if none), and the
	// trigger recorded for the transition.
	UpdatedCarefulResumePhase func(oldPhase, newPhase string, mark PacketNumber, trigger string)

	// UpdatedCarefulResumeMetrics fires whenever the Observe change
	// detector emits a new (min RTT, cwnd) snapshot worth persisting.
	UpdatedCarefulResumeMetrics func(minRTT time.Duration, cwnd ByteCount)
}
