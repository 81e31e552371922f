package congestion

import (
	"time"

	"github.com/quic-go/careful-resume/internal/monotime"
	"github.com/quic-go/careful-resume/internal/protocol"
)

const (
	maxBurstPackets          = 10
	minPacingDelay           = 100 * time.Microsecond
)

// pacer spreads packets evenly across a congestion window instead of sending
// them all in a single burst, using a token-bucket budget replenished
// according to the current bandwidth estimate.
type pacer struct {
	budgetAtLastSent      protocol.ByteCount
	maxDatagramSize       protocol.ByteCount
	lastSentTime          monotime.Time
	getBandwidth          func() Bandwidth
	adjustedNextSendTime  monotime.Time
}

func newPacer(getBandwidth func() Bandwidth) *pacer {
	return &pacer{
		getBandwidth:    getBandwidth,
		maxDatagramSize: protocol.MinInitialPacketSize,
	}
}

// SentPacket records that a packet of size bytes was just sent, debiting the budget.
func (p *pacer) SentPacket(sendTime monotime.Time, bytes protocol.ByteCount) {
	budget := p.Budget(sendTime)
	if bytes > budget {
		p.budgetAtLastSent = 0
	} else {
		p.budgetAtLastSent = budget - bytes
	}
	p.lastSentTime = sendTime
}

// Budget returns the number of bytes that can be sent right now without
// exceeding the pacing rate.
func (p *pacer) Budget(now monotime.Time) protocol.ByteCount {
	if p.lastSentTime.IsZero() {
		return p.maxBurstSize()
	}
	bw := p.getBandwidth()
	budget := p.budgetAtLastSent + protocol.ByteCount(float64(bw)*now.Sub(p.lastSentTime).Seconds())
	return protocol.MinByteCount(p.maxBurstSize(), budget)
}

func (p *pacer) maxBurstSize() protocol.ByteCount {
	return protocol.MaxByteCountOf(protocol.ByteCount(maxBurstPackets)*p.maxDatagramSize, protocol.ByteCount(1.25*float64(p.maxDatagramSize)))
}

// TimeUntilSend returns the monotonic time at which the next packet can be
// sent without violating the pacing rate; the zero value means "now".
func (p *pacer) TimeUntilSend() monotime.Time {
	if p.lastSentTime.IsZero() || p.budgetAtLastSent >= p.maxDatagramSize {
		return monotime.Time{}
	}
	bw := p.getBandwidth()
	if bw == 0 {
		return monotime.Time{}
	}
	missing := p.maxDatagramSize - p.budgetAtLastSent
	d := time.Duration(float64(missing) / float64(bw) * float64(time.Second))
	if d < minPacingDelay {
		return monotime.Time{}
	}
	return p.lastSentTime.Add(d)
}

// SetMaxDatagramSize updates the datagram size used to size pacing bursts.
func (p *pacer) SetMaxDatagramSize(s protocol.ByteCount) {
	p.maxDatagramSize = s
}
