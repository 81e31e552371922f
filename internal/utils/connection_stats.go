package utils

import "github.com/quic-go/careful-resume/internal/protocol"

// ConnectionStats accumulates counters describing a connection's congestion
// history, consulted by congestion controllers when deciding how hard to cut
// back after a loss.
type ConnectionStats struct {
	SlowstartPacketsLost int
	SlowstartBytesLost   protocol.ByteCount
}
