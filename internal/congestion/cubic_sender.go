package congestion

import (
	"github.com/quic-go/careful-resume/internal/monotime"
	"github.com/quic-go/careful-resume/internal/protocol"
	"github.com/quic-go/careful-resume/internal/utils"
)

const (
	cubicMinCwnd     = 2 // Minimum congestion window, in packets.
	cubicInitialCwnd = 32
	renoBeta float64 = 0.7
)

// cubicSender implements the RFC 9002 default congestion controller: Cubic
// congestion avoidance with a classic-Reno fallback, hybrid slow start, and
// PRR-paced recovery.
type cubicSender struct {
	hybridSlowStart HybridSlowStart
	prr             PrrSender
	rttStats        *utils.RTTStats
	connStats       *utils.ConnectionStats
	cubic           *Cubic

	largestSentPacketNumber  protocol.PacketNumber
	largestAckedPacketNumber protocol.PacketNumber
	largestSentAtLastCutback protocol.PacketNumber

	congestionWindow   protocol.ByteCount
	slowStartThreshold protocol.ByteCount

	lastCutbackExitedSlowstart bool
	inRecovery                 bool

	maxDatagramSize            protocol.ByteCount
	initialCongestionWindow    protocol.ByteCount
	initialMaxCongestionWindow protocol.ByteCount

	numConnections        int
	congestionWindowCount uint64

	reno bool

	pacer *pacer
	clock Clock

	resume *Resume
}

var (
	_ SendAlgorithm               = &cubicSender{}
	_ SendAlgorithmWithDebugInfos = &cubicSender{}
)

// NewCubicSender creates the RFC 9002 default sender. resume may be nil, in
// which case an internal, never-enabled Resume is used so the Careful Resume
// wiring below is always safe to call unconditionally.
func NewCubicSender(
	clock Clock,
	rttStats *utils.RTTStats,
	connStats *utils.ConnectionStats,
	initialMaxDatagramSize protocol.ByteCount,
	reno bool,
	resume *Resume,
) *cubicSender {
	if resume == nil {
		resume = NewResume()
	}
	c := &cubicSender{
		clock:                      clock,
		rttStats:                   rttStats,
		connStats:                  connStats,
		maxDatagramSize:            initialMaxDatagramSize,
		reno:                       reno,
		numConnections:             1,
		initialCongestionWindow:    protocol.ByteCount(cubicInitialCwnd) * initialMaxDatagramSize,
		initialMaxCongestionWindow: protocol.DefaultInitialMaxStreamData,
		cubic:                      NewCubic(clock),
		resume:                     resume,
	}
	c.congestionWindow = c.initialCongestionWindow
	c.slowStartThreshold = protocol.MaxByteCount
	c.pacer = newPacer(c.BandwidthEstimate)
	return c
}

func (c *cubicSender) TimeUntilSend(bytesInFlight protocol.ByteCount) monotime.Time {
	return c.pacer.TimeUntilSend()
}

func (c *cubicSender) HasPacingBudget(now monotime.Time) bool {
	return c.pacer.Budget(now) >= c.maxDatagramSize
}

func (c *cubicSender) OnPacketSent(
	sentTime monotime.Time,
	bytesInFlight protocol.ByteCount,
	packetNumber protocol.PacketNumber,
	bytes protocol.ByteCount,
	isRetransmittable bool,
) {
	c.pacer.SentPacket(sentTime, bytes)

	if !isRetransmittable {
		return
	}
	if c.InRecovery() {
		c.prr.OnPacketSent(bytes)
	}
	c.largestSentPacketNumber = packetNumber
	c.hybridSlowStart.OnPacketSent(packetNumber)

	appLimited := bytesInFlight+bytes < c.congestionWindow
	rttSample := c.rttStats.LatestRTT()
	jump := c.resume.SendPacket(rttSample, c.congestionWindow, packetNumber, appLimited)
	if jump > 0 {
		c.congestionWindow += jump
	}
}

func (c *cubicSender) CanSend(bytesInFlight protocol.ByteCount) bool {
	if c.InRecovery() {
		return c.prr.CanSend(c.congestionWindow, bytesInFlight, c.slowStartThreshold)
	}
	return bytesInFlight < c.congestionWindow
}

func (c *cubicSender) MaybeExitSlowStart() {
	if c.InSlowStart() && c.hybridSlowStart.ShouldExitSlowStart(c.rttStats.LatestRTT(), c.rttStats.MinRTT(), c.congestionWindow/c.maxDatagramSize) {
		c.slowStartThreshold = c.congestionWindow
	}
}

func (c *cubicSender) InRecovery() bool {
	return c.largestAckedPacketNumber <= c.largestSentAtLastCutback && c.largestAckedPacketNumber != 0
}

func (c *cubicSender) InSlowStart() bool {
	return c.congestionWindow < c.slowStartThreshold
}

func (c *cubicSender) GetCongestionWindow() protocol.ByteCount {
	return c.congestionWindow
}

// Resume returns the Careful Resume state machine driving this sender, so
// the owning connection can call Setup/SetTracer on it once at construction
// time (spec §3 Lifecycle).
func (c *cubicSender) Resume() *Resume {
	return c.resume
}

func (c *cubicSender) OnPacketAcked(
	number protocol.PacketNumber,
	ackedBytes protocol.ByteCount,
	priorInFlight protocol.ByteCount,
	eventTime monotime.Time,
) {
	if number > c.largestAckedPacketNumber {
		c.largestAckedPacketNumber = number
	}

	result := c.resume.ProcessAck(c.largestSentPacketNumber, AckedPacket{PacketNumber: number, Size: ackedBytes}, priorInFlight)
	if result.NewCwnd != nil {
		c.congestionWindow = *result.NewCwnd
	}
	if result.NewSsthresh != nil {
		c.slowStartThreshold = *result.NewSsthresh
	}

	if c.InRecovery() {
		c.prr.OnPacketAcked(ackedBytes)
		return
	}
	c.maybeIncreaseCwnd(ackedBytes, priorInFlight)
	if c.InSlowStart() {
		c.hybridSlowStart.OnPacketAcked(number)
	}
}

func (c *cubicSender) OnCongestionEvent(
	number protocol.PacketNumber,
	lostBytes protocol.ByteCount,
	priorInFlight protocol.ByteCount,
) {
	if number <= c.largestSentAtLastCutback {
		return
	}

	if newCwnd := c.resume.CongestionEvent(c.largestSentPacketNumber); newCwnd > 0 {
		c.congestionWindow = newCwnd
		c.slowStartThreshold = newCwnd
		c.lastCutbackExitedSlowstart = c.InSlowStart()
		c.largestSentAtLastCutback = c.largestSentPacketNumber
		c.congestionWindowCount = 0
		return
	}

	c.lastCutbackExitedSlowstart = c.InSlowStart()
	c.prr.OnPacketLost(priorInFlight)

	if c.reno {
		c.congestionWindow = protocol.ByteCount(float64(c.congestionWindow) * c.renoBeta())
	} else {
		c.congestionWindow = c.cubic.CongestionWindowAfterPacketLoss(c.congestionWindow)
	}
	if c.congestionWindow < c.minCongestionWindow() {
		c.congestionWindow = c.minCongestionWindow()
	}
	c.slowStartThreshold = c.congestionWindow
	c.largestSentAtLastCutback = c.largestSentPacketNumber
	c.congestionWindowCount = 0
}

func (c *cubicSender) renoBeta() float64 {
	return (float64(c.numConnections) - 1 + renoBeta) / float64(c.numConnections)
}

func (c *cubicSender) maybeIncreaseCwnd(ackedBytes, bytesInFlight protocol.ByteCount) {
	if !c.isCwndLimited(bytesInFlight) {
		c.cubic.OnApplicationLimited()
		return
	}
	if c.congestionWindow >= c.initialMaxCongestionWindow {
		return
	}
	if c.InSlowStart() {
		c.congestionWindow += c.maxDatagramSize
		return
	}
	if c.reno {
		c.congestionWindowCount++
		packetsAcked := protocol.ByteCount(c.congestionWindowCount*uint64(c.numConnections)) * c.maxDatagramSize
		if packetsAcked >= c.congestionWindow {
			c.congestionWindow += c.maxDatagramSize
			c.congestionWindowCount = 0
		}
		return
	}
	grown := c.cubic.CongestionWindowAfterAck(c.congestionWindow, c.rttStats.MinRTT())
	if grown < c.initialMaxCongestionWindow {
		c.congestionWindow = grown
	} else {
		c.congestionWindow = c.initialMaxCongestionWindow
	}
}

func (c *cubicSender) isCwndLimited(bytesInFlight protocol.ByteCount) bool {
	if bytesInFlight >= c.congestionWindow {
		return true
	}
	available := c.congestionWindow - bytesInFlight
	slowStartLimited := c.InSlowStart() && bytesInFlight > c.congestionWindow/2
	return slowStartLimited || available <= 3*c.maxDatagramSize
}

func (c *cubicSender) minCongestionWindow() protocol.ByteCount {
	return protocol.ByteCount(cubicMinCwnd) * c.maxDatagramSize
}

func (c *cubicSender) BandwidthEstimate() Bandwidth {
	srtt := c.rttStats.SmoothedRTT()
	if srtt == 0 {
		return 0
	}
	return BandwidthFromDelta(c.congestionWindow, srtt)
}

func (c *cubicSender) SetNumEmulatedConnections(n int) {
	if n < 1 {
		n = 1
	}
	c.numConnections = n
	c.cubic.SetNumConnections(n)
}

func (c *cubicSender) OnRetransmissionTimeout(packetsRetransmitted bool) {
	c.largestSentAtLastCutback = protocol.InvalidPacketNumber
	if !packetsRetransmitted {
		return
	}
	c.hybridSlowStart.Restart()
	c.cubic.Reset()
	c.slowStartThreshold = c.congestionWindow / 2
	c.congestionWindow = c.minCongestionWindow()
}

func (c *cubicSender) SetMaxDatagramSize(maxDatagramSize protocol.ByteCount) {
	if maxDatagramSize < c.maxDatagramSize {
		panic("congestion BUG: decreasing max datagram size")
	}
	wasMin := c.congestionWindow == c.minCongestionWindow()
	c.maxDatagramSize = maxDatagramSize
	if wasMin {
		c.congestionWindow = c.minCongestionWindow()
	}
}
