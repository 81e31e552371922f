package congestion

import (
	"time"

	"github.com/quic-go/careful-resume/internal/monotime"
	"github.com/quic-go/careful-resume/internal/protocol"
)

// Bandwidth is in bytes per second.
type Bandwidth uint64

// BandwidthFromDelta calculates the bandwidth from a size and a time delta.
func BandwidthFromDelta(bytes protocol.ByteCount, delta time.Duration) Bandwidth {
	if delta <= 0 {
		return 0
	}
	return Bandwidth(float64(bytes) * float64(time.Second) / float64(delta))
}

// SendAlgorithm is the interface the outer connection drives its congestion
// controller through. It is the "outer congestion controller" collaborator
// that spec §6 describes as calling into Resume on three edges.
type SendAlgorithm interface {
	TimeUntilSend(bytesInFlight protocol.ByteCount) monotime.Time
	HasPacingBudget(now monotime.Time) bool
	OnPacketSent(sentTime monotime.Time, bytesInFlight protocol.ByteCount, packetNumber protocol.PacketNumber, bytes protocol.ByteCount, isRetransmittable bool)
	CanSend(bytesInFlight protocol.ByteCount) bool
	MaybeExitSlowStart()
	OnPacketAcked(number protocol.PacketNumber, ackedBytes protocol.ByteCount, priorInFlight protocol.ByteCount, eventTime monotime.Time)
	OnCongestionEvent(number protocol.PacketNumber, lostBytes protocol.ByteCount, priorInFlight protocol.ByteCount)
	OnRetransmissionTimeout(packetsRetransmitted bool)
	SetMaxDatagramSize(protocol.ByteCount)
}

// SendAlgorithmWithDebugInfos exposes additional state for logging/qlog.
type SendAlgorithmWithDebugInfos interface {
	SendAlgorithm
	InSlowStart() bool
	InRecovery() bool
	GetCongestionWindow() protocol.ByteCount
}
