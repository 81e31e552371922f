package congestion

import (
	"math"
	"time"

	"github.com/quic-go/careful-resume/internal/monotime"
	"github.com/quic-go/careful-resume/internal/protocol"
)

// Cubic implements the window-growth function from RFC 8312, scaled to
// bytes. It tracks the last congestion event seen and computes the target
// window for a given elapsed time since that event.
type Cubic struct {
	clock Clock

	numConnections int

	epoch                       monotime.Time
	epochSet                    bool
	lastMaxCongestionWindow     protocol.ByteCount
	originPointCongestionWindow protocol.ByteCount
	kDuration                   float64
	ackedBytesCount             protocol.ByteCount
}

const (
	betaCubic = 0.7 // Cubic backoff factor.
	cCubic    = 0.4 // RFC 8312 C constant.
)

// NewCubic creates a Cubic window calculator driven by clock.
func NewCubic(clock Clock) *Cubic {
	c := &Cubic{clock: clock, numConnections: 1}
	c.Reset()
	return c
}

// Reset clears all Cubic state, as happens after an RTO (spec-adjacent: this
// mirrors the teacher's own OnRetransmissionTimeout handling).
func (c *Cubic) Reset() {
	c.epochSet = false
	c.lastMaxCongestionWindow = 0
	c.ackedBytesCount = 0
	c.originPointCongestionWindow = 0
	c.kDuration = 0
}

func (c *Cubic) SetNumConnections(n int) {
	if n < 1 {
		n = 1
	}
	c.numConnections = n
}

func (c *Cubic) OnApplicationLimited() {
	c.epochSet = false
}

// CongestionWindowAfterPacketLoss returns the window to adopt immediately
// after a loss event, in bytes.
func (c *Cubic) CongestionWindowAfterPacketLoss(currentCongestionWindow protocol.ByteCount) protocol.ByteCount {
	if currentCongestionWindow < c.lastMaxCongestionWindow {
		c.lastMaxCongestionWindow = protocol.ByteCount(float64(currentCongestionWindow) * betaCubic)
	} else {
		c.lastMaxCongestionWindow = currentCongestionWindow
	}
	c.epochSet = false
	return protocol.ByteCount(float64(currentCongestionWindow) * betaCubic)
}

// CongestionWindowAfterAck returns the Cubic-grown window, in bytes, rttMin
// being the connection's minimum observed RTT.
func (c *Cubic) CongestionWindowAfterAck(currentCongestionWindow protocol.ByteCount, rttMin time.Duration) protocol.ByteCount {
	c.ackedBytesCount += 1

	now := c.clock.Now()
	if !c.epochSet {
		c.epoch = now
		c.epochSet = true
		c.ackedBytesCount = 0
		c.originPointCongestionWindow = currentCongestionWindow
		if c.lastMaxCongestionWindow <= currentCongestionWindow {
			c.kDuration = 0
		} else {
			c.kDuration = math.Cbrt(float64(c.lastMaxCongestionWindow-currentCongestionWindow) / cCubic)
		}
	}

	elapsed := now.Sub(c.epoch).Seconds()
	offset := elapsed - c.kDuration
	deltaCongestionWindow := cCubic * offset * offset * offset
	targetCongestionWindow := float64(c.originPointCongestionWindow) + deltaCongestionWindow

	if targetCongestionWindow < float64(currentCongestionWindow) {
		return currentCongestionWindow
	}
	return protocol.ByteCount(targetCongestionWindow)
}
