package congestion

import (
	"testing"
	"time"

	"github.com/quic-go/careful-resume/internal/protocol"
	"github.com/stretchr/testify/require"
)

func newSetupResume(previousRTT time.Duration, previousCwnd protocol.ByteCount) *Resume {
	r := NewResume()
	r.Setup(previousRTT, previousCwnd)
	return r
}

// TestSendPacket_ValidEntry reproduces the literal `valid_rtt` source test
// cited in spec §9: setup(50ms, 12000), send_packet(60ms, 1350, 10, false)
// must yield jump==4650 and pipesize==1350.
func TestSendPacket_ValidEntry(t *testing.T) {
	r := newSetupResume(50*time.Millisecond, 12000)
	jump := r.SendPacket(60*time.Millisecond, 1350, 10, false)
	require.Equal(t, protocol.ByteCount(4650), jump)
	require.Equal(t, protocol.ByteCount(1350), r.Pipesize())
	require.Equal(t, PhaseUnvalidated, r.Phase().Kind)
	require.Equal(t, protocol.PacketNumber(10), r.Phase().Mark)
}

// S1 — cwnd already exceeds jump target.
func TestSendPacket_CwndAlreadyAtTarget(t *testing.T) {
	r := newSetupResume(30*time.Millisecond, 120000)
	jump := r.SendPacket(0, 150000, 50, false)
	require.Equal(t, protocol.ByteCount(0), jump)
	require.Equal(t, PhaseNormal, r.Phase().Kind)
}

// S2 — RTT sample too small relative to the remembered RTT.
func TestSendPacket_RTTTooSmall(t *testing.T) {
	r := newSetupResume(30*time.Millisecond, 120000)
	jump := r.SendPacket(10*time.Millisecond, 1350, 10, false)
	require.Equal(t, protocol.ByteCount(0), jump)
	require.Equal(t, PhaseNormal, r.Phase().Kind)
}

// S3 — RTT sample too large relative to the remembered RTT.
func TestSendPacket_RTTTooLarge(t *testing.T) {
	r := newSetupResume(30*time.Millisecond, 120000)
	jump := r.SendPacket(600*time.Millisecond, 1350, 10, false)
	require.Equal(t, protocol.ByteCount(0), jump)
	require.Equal(t, PhaseNormal, r.Phase().Kind)
}

func TestSendPacket_AppLimited_NeverJumps(t *testing.T) {
	r := newSetupResume(50*time.Millisecond, 12000)
	jump := r.SendPacket(60*time.Millisecond, 1350, 10, true)
	require.Equal(t, protocol.ByteCount(0), jump)
	require.Equal(t, PhaseReconnaissance, r.Phase().Kind)
	require.Equal(t, protocol.ByteCount(0), r.Pipesize())
}

func TestSendPacket_NonReconnaissancePhasesAreNoOps(t *testing.T) {
	r := newSetupResume(50*time.Millisecond, 12000)
	r.SendPacket(60*time.Millisecond, 1350, 10, false)
	require.Equal(t, PhaseUnvalidated, r.Phase().Kind)

	jump := r.SendPacket(60*time.Millisecond, 1350, 11, false)
	require.Equal(t, protocol.ByteCount(0), jump)
	require.Equal(t, PhaseUnvalidated, r.Phase().Kind)
}

// TestHappyPath reproduces the shape of S5: entry into Unvalidated, a
// validating ack, and settling into Normal with the jump locked in via
// flightsize and no ssthresh change.
func TestHappyPath(t *testing.T) {
	r := newSetupResume(25*time.Millisecond, 120000)

	jump := r.SendPacket(25*time.Millisecond, 12000, 15, false)
	require.Greater(t, jump, protocol.ByteCount(0))
	require.Equal(t, PhaseUnvalidated, r.Phase().Kind)
	require.Equal(t, protocol.PacketNumber(15), r.Phase().Mark)

	// Acks 4..15 (before the mark): stays Unvalidated, no cwnd lock yet.
	for pn := protocol.PacketNumber(4); pn < 15; pn++ {
		res := r.ProcessAck(24, AckedPacket{PacketNumber: pn, Size: 1000}, 50000)
		require.Nil(t, res.NewCwnd)
		require.Nil(t, res.NewSsthresh)
		require.Equal(t, PhaseUnvalidated, r.Phase().Kind)
	}

	// Ack for 15 itself (>= mark 15): transitions to Validating, locks cwnd.
	res := r.ProcessAck(23, AckedPacket{PacketNumber: 15, Size: 1000}, 60000)
	require.NotNil(t, res.NewCwnd)
	require.Equal(t, protocol.ByteCount(60000), *res.NewCwnd)
	require.Nil(t, res.NewSsthresh)
	require.Equal(t, PhaseValidating, r.Phase().Kind)
	require.Equal(t, protocol.PacketNumber(23), r.Phase().Mark)

	// Acks 16..22: stays Validating.
	for pn := protocol.PacketNumber(16); pn < 23; pn++ {
		res := r.ProcessAck(24, AckedPacket{PacketNumber: pn, Size: 1000}, 60000)
		require.Nil(t, res.NewCwnd)
		require.Nil(t, res.NewSsthresh)
		require.Equal(t, PhaseValidating, r.Phase().Kind)
	}

	// Ack for 23 (>= mark 23): transitions to Normal, no output.
	res = r.ProcessAck(24, AckedPacket{PacketNumber: 23, Size: 1000}, 60000)
	require.Nil(t, res.NewCwnd)
	require.Nil(t, res.NewSsthresh)
	require.Equal(t, PhaseNormal, r.Phase().Kind)
	require.False(t, r.Enabled())
}

// S6 — loss while Unvalidated retreats to SafeRetreat with the pipesize
// halved. The retreat's exit is covered by
// TestSafeRetreat_ExitEmitsSsthreshAtPipesizeOnExit.
func TestCongestionEvent_DuringUnvalidated(t *testing.T) {
	r := newSetupResume(25*time.Millisecond, 120000)
	r.SendPacket(25*time.Millisecond, 12000, 15, false)
	require.Equal(t, PhaseUnvalidated, r.Phase().Kind)

	for _, pn := range []protocol.PacketNumber{5, 6, 7, 8, 9, 10, 11, 12, 13, 14} {
		r.ProcessAck(15, AckedPacket{PacketNumber: pn, Size: 1000}, 50000)
	}
	p0Plus10000 := r.Pipesize() // 12000 (iw) + 10*1000

	newCwnd := r.CongestionEvent(15)
	require.Equal(t, PhaseSafeRetreat, r.Phase().Kind)
	require.Equal(t, protocol.PacketNumber(15), r.Phase().Mark)
	require.Equal(t, p0Plus10000/2, newCwnd)
	require.Equal(t, p0Plus10000/2, r.Pipesize())
}

// Preserve the stored Unvalidated→Validating mark as the retreat mark, per
// spec §9's congestion_full_2: loss during Validating(p) retreats to
// SafeRetreat(p), using the stored p rather than the call's largestPktSent.
func TestCongestionEvent_Validating_UsesStoredMark(t *testing.T) {
	r := newSetupResume(25*time.Millisecond, 120000)
	r.SendPacket(25*time.Millisecond, 12000, 15, false)
	r.ProcessAck(23, AckedPacket{PacketNumber: 15, Size: 1000}, 60000)
	require.Equal(t, PhaseValidating, r.Phase().Kind)
	require.Equal(t, protocol.PacketNumber(23), r.Phase().Mark)

	newCwnd := r.CongestionEvent(999) // current largestPktSent is irrelevant
	require.Equal(t, PhaseSafeRetreat, r.Phase().Kind)
	require.Equal(t, protocol.PacketNumber(23), r.Phase().Mark)
	require.Equal(t, protocol.ByteCount(6500), newCwnd) // pipesize (12000 + 1000) / 2
}

func TestCongestionEvent_DuringReconnaissance_GoesNormal(t *testing.T) {
	r := newSetupResume(25*time.Millisecond, 120000)
	newCwnd := r.CongestionEvent(5)
	require.Equal(t, PhaseNormal, r.Phase().Kind)
	require.Equal(t, protocol.ByteCount(0), newCwnd)
}

func TestCongestionEvent_InSafeRetreatOrNormal_IsNoOp(t *testing.T) {
	r := newSetupResume(25*time.Millisecond, 120000)
	r.SendPacket(25*time.Millisecond, 12000, 15, false)
	r.CongestionEvent(15) // -> SafeRetreat
	require.Equal(t, PhaseSafeRetreat, r.Phase().Kind)

	newCwnd := r.CongestionEvent(20)
	require.Equal(t, protocol.ByteCount(0), newCwnd)
	require.Equal(t, PhaseSafeRetreat, r.Phase().Kind)
}

func TestSafeRetreat_ExitEmitsSsthreshAtPipesizeOnExit(t *testing.T) {
	r := newSetupResume(25*time.Millisecond, 120000)
	r.SendPacket(25*time.Millisecond, 12000, 15, false)
	for _, pn := range []protocol.PacketNumber{5, 6, 7, 8, 9, 10, 11, 12, 13, 14} {
		r.ProcessAck(15, AckedPacket{PacketNumber: pn, Size: 1000}, 50000)
	}
	r.CongestionEvent(15) // SafeRetreat(15), pipesize halved

	// Further acks before the mark keep crediting pipesize.
	pipesizeBeforeExit := r.Pipesize()
	res := r.ProcessAck(16, AckedPacket{PacketNumber: 14, Size: 1000}, 40000)
	require.Nil(t, res.NewCwnd)
	require.Nil(t, res.NewSsthresh)
	require.Equal(t, pipesizeBeforeExit+1000, r.Pipesize())

	// Ack >= mark 15 exits to Normal, emitting ssthresh == pipesize at exit.
	finalPipesize := r.Pipesize()
	res = r.ProcessAck(16, AckedPacket{PacketNumber: 15, Size: 1000}, 40000)
	require.NotNil(t, res.NewSsthresh)
	require.Equal(t, finalPipesize, *res.NewSsthresh)
	require.Nil(t, res.NewCwnd)
	require.Equal(t, PhaseNormal, r.Phase().Kind)
}

func TestOutOfOrderAckInSafeRetreat_CreditedNotMark(t *testing.T) {
	r := newSetupResume(25*time.Millisecond, 120000)
	r.SendPacket(25*time.Millisecond, 12000, 15, false)
	r.CongestionEvent(15)
	before := r.Pipesize()
	res := r.ProcessAck(16, AckedPacket{PacketNumber: 3, Size: 500}, 20000)
	require.Nil(t, res.NewCwnd)
	require.Nil(t, res.NewSsthresh)
	require.Equal(t, before+500, r.Pipesize())
	require.Equal(t, PhaseSafeRetreat, r.Phase().Kind)
}

func TestEnabled_FalseUntilSetup(t *testing.T) {
	r := NewResume()
	require.False(t, r.Enabled())
	r.Setup(10*time.Millisecond, 1000)
	require.True(t, r.Enabled())
}

func TestEnabled_FalseOnceNormal(t *testing.T) {
	r := newSetupResume(30*time.Millisecond, 120000)
	require.True(t, r.Enabled())
	r.SendPacket(0, 150000, 1, false) // jump==0 -> Normal
	require.False(t, r.Enabled())
}

func TestSetup_Idempotent_LaterCallsOverwrite(t *testing.T) {
	r := NewResume()
	r.Setup(10*time.Millisecond, 1000)
	r.Setup(20*time.Millisecond, 2000)
	require.Equal(t, 20*time.Millisecond, r.previousRTT)
	require.Equal(t, protocol.ByteCount(2000), r.previousCwnd)
}

func TestReset_ReturnsToReconnaissanceKeepingSetup(t *testing.T) {
	r := newSetupResume(25*time.Millisecond, 120000)
	r.SendPacket(25*time.Millisecond, 12000, 15, false)
	require.NotEqual(t, PhaseReconnaissance, r.Phase().Kind)

	r.Reset()
	require.Equal(t, PhaseReconnaissance, r.Phase().Kind)
	require.Equal(t, protocol.ByteCount(0), r.Pipesize())
	require.True(t, r.Enabled())

	// A fresh send_packet after reset behaves exactly like a new connection
	// with the same remembered parameters.
	fresh := newSetupResume(25*time.Millisecond, 120000)
	jumpFresh := fresh.SendPacket(25*time.Millisecond, 12000, 15, false)
	jumpReset := r.SendPacket(25*time.Millisecond, 12000, 15, false)
	require.Equal(t, jumpFresh, jumpReset)
}

func TestPhaseChangeHook_FiresOnlyOnActualTransition(t *testing.T) {
	r := newSetupResume(30*time.Millisecond, 120000)
	var transitions []Trigger
	r.SetTracer(func(old, new Phase, trigger Trigger, pipesize protocol.ByteCount) {
		transitions = append(transitions, trigger)
	})

	r.SendPacket(0, 150000, 1, false) // jump == 0 -> Normal
	require.Equal(t, []Trigger{TriggerCongestionWindowLimited}, transitions)

	// Subsequent calls in Normal are no-ops and must not fire the hook again.
	r.SendPacket(0, 150000, 2, false)
	require.Len(t, transitions, 1)
}
