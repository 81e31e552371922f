package congestion

import (
	"time"

	"github.com/quic-go/careful-resume/internal/protocol"
)

const hybridStartLowWindow = protocol.ByteCount(16)

// HybridSlowStart implements the ack-train and delay-based slow-start exit
// heuristics from the original Cubic proposal, adapted to byte-denominated
// windows.
type HybridSlowStart struct {
	started       bool
	endPacketNumber protocol.PacketNumber

	lastSampleIsValid bool
	currentMinRTT     time.Duration
	rttSampleCount    int
}

// OnPacketSent records a newly-sent packet number as the boundary of the
// current ack train.
func (h *HybridSlowStart) OnPacketSent(packetNumber protocol.PacketNumber) {
	h.started = true
	h.endPacketNumber = packetNumber
}

// OnPacketAcked marks the end of the current ack train once the packet that
// defined it has itself been acked. The delay-based samples are kept; only
// Restart clears them.
func (h *HybridSlowStart) OnPacketAcked(ackedPacketNumber protocol.PacketNumber) {
	if h.started && ackedPacketNumber >= h.endPacketNumber {
		h.started = false
	}
}

// Restart clears all accumulated state, as happens on an RTO.
func (h *HybridSlowStart) Restart() {
	h.started = false
	h.lastSampleIsValid = false
	h.currentMinRTT = 0
	h.rttSampleCount = 0
}

// ShouldExitSlowStart reports whether the delay-based heuristic has detected
// queueing that warrants leaving slow start early, below cwnd reaching
// ssthresh.
func (h *HybridSlowStart) ShouldExitSlowStart(latestRTT, minRTT time.Duration, congestionWindow protocol.ByteCount) bool {
	if !h.started {
		return false
	}
	if congestionWindow < hybridStartLowWindow {
		return false
	}
	h.rttSampleCount++
	if h.rttSampleCount <= 8 {
		if !h.lastSampleIsValid || latestRTT < h.currentMinRTT {
			h.currentMinRTT = latestRTT
			h.lastSampleIsValid = true
		}
	}
	if h.rttSampleCount < 8 || minRTT == 0 {
		return false
	}
	delayThreshold := minRTT / 8
	if delayThreshold < time.Millisecond {
		delayThreshold = time.Millisecond
	}
	return h.lastSampleIsValid && h.currentMinRTT-minRTT >= delayThreshold
}
