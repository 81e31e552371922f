package congestion

import (
	"time"

	"github.com/quic-go/careful-resume/internal/protocol"
)

// ParameterStore is the persistence port a connection uses to remember and
// recall the (min RTT, cwnd) pair Careful Resume needs from one connection
// to the next. The core never talks to storage directly; callers outside
// this package own the actual implementation (disk, cache, whatever keys
// off the peer's identity).
type ParameterStore interface {
	// Save persists ev for future connections under key.
	Save(key string, ev CREvent) error
	// Load returns the most recently saved CREvent for key, and whether one
	// exists.
	Load(key string) (CREvent, bool)
}

// PersistObservation runs metrics' drift check and, if it decides the new
// (minRTT, cwnd) observation is worth recording, saves it to store under
// key. It is a no-op (returns nil) when MaybeUpdate declines to emit.
func PersistObservation(store ParameterStore, key string, metrics *CRMetrics, minRTT time.Duration, cwnd protocol.ByteCount) error {
	ev := metrics.MaybeUpdate(minRTT, cwnd)
	if ev == nil {
		return nil
	}
	return store.Save(key, *ev)
}
