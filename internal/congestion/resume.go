package congestion

import (
	"time"

	"github.com/quic-go/careful-resume/internal/protocol"
)

// PhaseKind identifies which of the five Careful Resume phases a connection
// is in. Three of the five carry a packet-number "mark"; see Phase.
type PhaseKind uint8

const (
	// PhaseReconnaissance is the initial phase: no jump has been attempted.
	PhaseReconnaissance PhaseKind = iota
	// PhaseUnvalidated means a jump has been taken; Mark is the first packet
	// number sent after the jump.
	PhaseUnvalidated
	// PhaseValidating means an ack for the Unvalidated mark (or later) has
	// arrived; Mark is the highest packet number sent during Unvalidated.
	PhaseValidating
	// PhaseSafeRetreat means a congestion event occurred during Unvalidated
	// or Validating; Mark is the packet number whose ack ends the retreat.
	PhaseSafeRetreat
	// PhaseNormal is terminal: Careful Resume no longer influences the
	// controller for the life of this connection.
	PhaseNormal
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseReconnaissance:
		return "Reconnaissance"
	case PhaseUnvalidated:
		return "Unvalidated"
	case PhaseValidating:
		return "Validating"
	case PhaseSafeRetreat:
		return "SafeRetreat"
	case PhaseNormal:
		return "Normal"
	default:
		return "Unknown"
	}
}

// Phase is the Careful Resume phase together with its packet-number mark.
// Mark is meaningful only for Unvalidated, Validating, and SafeRetreat; it is
// reported as 0 for Reconnaissance and Normal (see spec §4.3).
type Phase struct {
	Kind PhaseKind
	Mark protocol.PacketNumber
}

// Trigger is the telemetry-level reason recorded alongside a phase
// transition (spec §6).
type Trigger string

const (
	TriggerCongestionWindowLimited       Trigger = "CongestionWindowLimited"
	TriggerRttNotValidated               Trigger = "RttNotValidated"
	TriggerRttNotValidatedSingleFlight   Trigger = "RttNotValidatedSingleFlight" // reserved, unused
	TriggerCrMarkAcknowledged            Trigger = "CrMarkAcknowledged"
	TriggerPacketLoss                    Trigger = "PacketLoss"
	TriggerECNCE                         Trigger = "ECN_CE"
	TriggerExitRecovery                  Trigger = "ExitRecovery"
)

// PhaseChangeFunc is called synchronously on every phase transition, after
// the new phase and pipesize are already in effect. It is the hook the qlog
// projector (spec §4.3) and the CR logger attach to.
type PhaseChangeFunc func(old, new Phase, trigger Trigger, pipesize protocol.ByteCount)

// AckResult is the two independent optional outputs of ProcessAck (spec
// §4.1.3). A nil field means "no change"; this is the idiomatic Go rendering
// of the "optional pair" spec §9 calls out.
type AckResult struct {
	NewCwnd     *protocol.ByteCount
	NewSsthresh *protocol.ByteCount
}

// Resume implements the Careful Resume state machine (spec §4.1). It is
// owned by the outer congestion controller for the lifetime of a single
// connection and driven serially from the connection's event loop; it has no
// locks and performs no I/O (spec §5).
type Resume struct {
	enabled bool
	phase   Phase

	previousRTT  time.Duration
	previousCwnd protocol.ByteCount
	pipesize     protocol.ByteCount

	onPhaseChange PhaseChangeFunc
}

// NewResume creates a Resume instance in the disabled Reconnaissance phase,
// as the outer controller does once per connection at initial-window time
// (spec §3 Lifecycle).
func NewResume() *Resume {
	return &Resume{}
}

// SetTracer installs (or clears, with nil) the phase-change callback used by
// the qlog projector and/or the CR logger.
func (r *Resume) SetTracer(f PhaseChangeFunc) {
	r.onPhaseChange = f
}

// Setup enables Careful Resume and stores the remembered parameters from the
// previous connection. It is idempotent and never itself changes the phase
// (spec §4.1.1).
func (r *Resume) Setup(previousRTT time.Duration, previousCwnd protocol.ByteCount) {
	r.enabled = true
	r.previousRTT = previousRTT
	r.previousCwnd = previousCwnd
}

// Enabled reports whether the user enabled CR and the phase has not yet
// settled into Normal (spec §4.1.5).
func (r *Resume) Enabled() bool {
	return r.enabled && r.phase.Kind != PhaseNormal
}

// Reset returns the phase to Reconnaissance and pipesize to 0, leaving
// enabled and the remembered previous parameters untouched. Used on
// connection migration or similar (spec §3, §4.1.5).
func (r *Resume) Reset() {
	r.phase = Phase{}
	r.pipesize = 0
}

// Phase returns the current phase, primarily for tests and telemetry.
func (r *Resume) Phase() Phase { return r.phase }

// Pipesize returns the current running estimate of bytes successfully in
// flight during the jump.
func (r *Resume) Pipesize() protocol.ByteCount { return r.pipesize }

func (r *Resume) changeState(new Phase, trigger Trigger) {
	old := r.phase
	r.phase = new
	if r.onPhaseChange != nil && (old.Kind != new.Kind || old.Mark != new.Mark) {
		r.onPhaseChange(old, new, trigger, r.pipesize)
	}
}

// SendPacket is called on every outgoing ack-eliciting packet. It returns the
// number of bytes by which the outer controller should enlarge its cwnd
// beyond its own normal growth (spec §4.1.2).
func (r *Resume) SendPacket(rttSample time.Duration, cwnd protocol.ByteCount, largestPktSent protocol.PacketNumber, appLimited bool) protocol.ByteCount {
	if r.phase.Kind != PhaseReconnaissance {
		return 0
	}
	if appLimited {
		return 0
	}

	jump := protocol.SaturatingSubByteCount(r.previousCwnd/2, cwnd)
	if jump == 0 {
		r.changeState(Phase{Kind: PhaseNormal}, TriggerCongestionWindowLimited)
		return 0
	}
	if rttSample <= r.previousRTT/2 || rttSample >= r.previousRTT*10 {
		r.changeState(Phase{Kind: PhaseNormal}, TriggerRttNotValidated)
		return 0
	}

	r.pipesize = cwnd
	r.changeState(Phase{Kind: PhaseUnvalidated, Mark: largestPktSent}, TriggerCongestionWindowLimited)
	return jump
}

// AckedPacket describes a single acknowledged packet, as passed to ProcessAck.
type AckedPacket struct {
	PacketNumber protocol.PacketNumber
	Size         protocol.ByteCount
}

// ProcessAck is called for each individually acknowledged packet (spec
// §4.1.3). flightsize is the outer controller's current bytes-in-flight.
func (r *Resume) ProcessAck(largestPktSent protocol.PacketNumber, packet AckedPacket, flightsize protocol.ByteCount) AckResult {
	switch r.phase.Kind {
	case PhaseUnvalidated:
		r.pipesize += packet.Size
		if packet.PacketNumber >= r.phase.Mark {
			r.changeState(Phase{Kind: PhaseValidating, Mark: largestPktSent}, TriggerCrMarkAcknowledged)
			cwnd := flightsize
			return AckResult{NewCwnd: &cwnd}
		}
		return AckResult{}

	case PhaseValidating:
		r.pipesize += packet.Size
		if packet.PacketNumber >= r.phase.Mark {
			r.changeState(Phase{Kind: PhaseNormal}, TriggerCrMarkAcknowledged)
		}
		return AckResult{}

	case PhaseSafeRetreat:
		if packet.PacketNumber >= r.phase.Mark {
			ssthresh := r.pipesize
			r.changeState(Phase{Kind: PhaseNormal}, TriggerExitRecovery)
			return AckResult{NewSsthresh: &ssthresh}
		}
		r.pipesize += packet.Size
		return AckResult{}

	default: // Reconnaissance, Normal
		return AckResult{}
	}
}

// CongestionEvent is called when the outer controller observes loss or
// ECN-CE (spec §4.1.4). The return value is the cwnd the outer controller
// should adopt; 0 means no CR-mandated change.
func (r *Resume) CongestionEvent(largestPktSent protocol.PacketNumber) protocol.ByteCount {
	switch r.phase.Kind {
	case PhaseUnvalidated:
		r.pipesize /= 2
		r.changeState(Phase{Kind: PhaseSafeRetreat, Mark: largestPktSent}, TriggerPacketLoss)
		return r.pipesize

	case PhaseValidating:
		// The retreat mark is the stored Unvalidated-phase last-sent packet
		// number, not the current largestPktSent (spec §4.1.4, §9).
		mark := r.phase.Mark
		r.pipesize /= 2
		r.changeState(Phase{Kind: PhaseSafeRetreat, Mark: mark}, TriggerPacketLoss)
		return r.pipesize

	case PhaseReconnaissance:
		r.changeState(Phase{Kind: PhaseNormal}, TriggerPacketLoss)
		return 0

	default: // SafeRetreat, Normal
		return 0
	}
}
