package congestion

import (
	"github.com/quic-go/careful-resume/internal/protocol"
)

// PrrSender implements Proportional Rate Reduction (RFC 6937), pacing
// retransmissions and new data out during recovery so bytes-in-flight
// converges on ssthresh rather than dropping to it in one step.
type PrrSender struct {
	bytesSentSinceLoss protocol.ByteCount
	bytesDeliveredSinceLoss protocol.ByteCount
	ackCountSinceLoss   uint64
	bytesInFlightBeforeLoss protocol.ByteCount
}

// OnPacketLost records the flight size at the moment recovery begins.
func (p *PrrSender) OnPacketLost(priorInFlight protocol.ByteCount) {
	p.bytesSentSinceLoss = 0
	p.bytesInFlightBeforeLoss = priorInFlight
	p.bytesDeliveredSinceLoss = 0
	p.ackCountSinceLoss = 0
}

// OnPacketSent accounts for a retransmission or new packet sent during
// recovery.
func (p *PrrSender) OnPacketSent(sentBytes protocol.ByteCount) {
	p.bytesSentSinceLoss += sentBytes
}

// OnPacketAcked accounts for an ack received during recovery.
func (p *PrrSender) OnPacketAcked(ackedBytes protocol.ByteCount) {
	p.bytesDeliveredSinceLoss += ackedBytes
	p.ackCountSinceLoss++
}

// CanSend reports whether PRR currently permits sending another packet,
// given the outer controller's congestion window, bytes in flight, and
// ssthresh (RFC 6937 §3).
func (p *PrrSender) CanSend(congestionWindow, bytesInFlight, slowStartThreshold protocol.ByteCount) bool {
	if p.bytesSentSinceLoss == 0 || bytesInFlight < slowStartThreshold {
		return true
	}
	if congestionWindow < bytesInFlight {
		return p.bytesDeliveredSinceLoss > p.bytesSentSinceLoss
	}
	sendQuantum := slowStartThreshold
	if p.ackCountSinceLoss == 0 {
		sendQuantum = 0
	}
	limit := p.bytesDeliveredSinceLoss * sendQuantum / p.bytesInFlightBeforeLossOrOne()
	return p.bytesSentSinceLoss < limit
}

func (p *PrrSender) bytesInFlightBeforeLossOrOne() protocol.ByteCount {
	if p.bytesInFlightBeforeLoss == 0 {
		return 1
	}
	return p.bytesInFlightBeforeLoss
}
