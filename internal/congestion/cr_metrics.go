package congestion

import (
	"time"

	"github.com/quic-go/careful-resume/internal/monotime"
	"github.com/quic-go/careful-resume/internal/protocol"
)

// forceUpdateAfter is the silence window after which any legal input forces
// an update, keeping the stored measurement alive on long-lived quiet
// connections (spec §4.2).
const forceUpdateAfter = 60 * time.Second

// CREvent is a (min-RTT, cwnd) pair worth persisting for the next connection
// to the same peer (spec §6).
type CREvent struct {
	MinRTT time.Duration
	Cwnd   protocol.ByteCount
}

// CRMetrics (the "Observe" estimator, spec §4.2) decides whether a freshly
// observed (min-RTT, cwnd) pair has drifted enough from the last emitted one
// to be worth recording for the next connection. It holds no locks and is
// driven serially by the outer controller, typically once per ack
// processing round.
type CRMetrics struct {
	iw protocol.ByteCount

	minRTT     time.Duration
	cwnd       protocol.ByteCount
	lastUpdate monotime.Time

	clock Clock
}

// NewCRMetrics creates an Observe estimator for a connection whose configured
// initial window is iw.
func NewCRMetrics(iw protocol.ByteCount, clock Clock) *CRMetrics {
	if clock == nil {
		clock = DefaultClock{}
	}
	return &CRMetrics{iw: iw, clock: clock}
}

// MaybeUpdate runs the decision procedure of spec §4.2 and returns the
// CREvent to persist, or nil if this observation isn't worth recording.
func (m *CRMetrics) MaybeUpdate(newMinRTT time.Duration, newCwnd protocol.ByteCount) *CREvent {
	if newCwnd < m.iw*4 {
		return nil
	}

	now := m.clock.Now()

	if m.lastUpdate.IsZero() {
		return m.store(newMinRTT, newCwnd, now)
	}

	dt := now.Sub(m.lastUpdate)
	if dt > forceUpdateAfter {
		return m.store(newMinRTT, newCwnd, now)
	}

	dtSeconds := dt.Seconds()
	if dtSeconds == 0.0 {
		// Same tick as the last update: never update (spec §4.2 step 4),
		// and critically avoids dividing by zero below.
		return nil
	}

	r := 1.0 / dtSeconds
	rttLow := time.Duration(float64(m.minRTT) * (1 - r))
	rttHigh := time.Duration(float64(m.minRTT) * (1 + r))
	cwndLow := protocol.ByteCount(float64(m.cwnd) * (1 - r))
	cwndHigh := protocol.ByteCount(float64(m.cwnd) * (1 + r))

	if newMinRTT < rttLow || newMinRTT > rttHigh || newCwnd < cwndLow || newCwnd > cwndHigh {
		return m.store(newMinRTT, newCwnd, now)
	}

	return nil
}

func (m *CRMetrics) store(minRTT time.Duration, cwnd protocol.ByteCount, now monotime.Time) *CREvent {
	m.minRTT = minRTT
	m.cwnd = cwnd
	m.lastUpdate = now
	return &CREvent{MinRTT: minRTT, Cwnd: cwnd}
}
