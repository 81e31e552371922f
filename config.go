package quic

import (
	"fmt"
	"time"

	"github.com/quic-go/careful-resume/internal/protocol"
)

// Config configures a Careful Resume-capable congestion control stack. It
// intentionally carries none of the transport/handshake knobs a full QUIC
// Config would (idle timeouts, TLS, stream limits): those live with the
// connection/transport layer, an external collaborator this module does not
// implement.
type Config struct {
	// CongestionControlAlgorithm selects the outer send algorithm. Defaults
	// to protocol.CongestionControlRFC9002 when zero-valued and EnableL4S is
	// false.
	CongestionControlAlgorithm protocol.CongestionControlAlgorithm

	// EnableL4S turns on Prague/ECN marking-based congestion control. Only
	// valid together with an explicit CongestionControlPrague: validateConfig
	// rejects it with the zero-valued (RFC9002) algorithm.
	EnableL4S bool

	// EnableCarefulResume opts this connection into RFC 9040 Careful Resume:
	// the new connection starts from a previous path's validated (min RTT,
	// cwnd) instead of the standard slow-start floor.
	EnableCarefulResume bool

	// CarefulResumePreviousRTT is the min RTT observed on the previous path.
	// Required when EnableCarefulResume is true.
	CarefulResumePreviousRTT time.Duration

	// CarefulResumePreviousCwnd is the validated congestion window from the
	// previous path. Required when EnableCarefulResume is true.
	CarefulResumePreviousCwnd protocol.ByteCount

	// MaxIdleTimeout, HandshakeIdleTimeout, and KeepAlivePeriod are carried
	// here only so callers have somewhere conventional to set them; nothing
	// in this module reads them.
	MaxIdleTimeout       time.Duration
	HandshakeIdleTimeout time.Duration
	KeepAlivePeriod      time.Duration

	// Tracer, if set, receives a *logging.ConnectionTracer-shaped set of
	// callbacks. Declared here as an opaque hook so config stays independent
	// of the logging package's import graph.
	Tracer func(connID []byte) any
}

// ValidateConfig checks a Config for internally contradictory settings
// (L4S without Prague, Careful Resume without previous-path metrics).
func ValidateConfig(config *Config) error {
	return validateConfig(config)
}

// PopulateConfig returns a copy of config with defaults filled in.
func PopulateConfig(config *Config) *Config {
	return populateConfig(config)
}

// GetCongestionControlAlgorithm resolves the effective algorithm for config,
// accounting for the L4S-forces-Prague rule.
func GetCongestionControlAlgorithm(config *Config) protocol.CongestionControlAlgorithm {
	return getCongestionControlAlgorithm(config)
}

func validateConfig(config *Config) error {
	if config == nil {
		return nil
	}
	if config.EnableL4S && config.CongestionControlAlgorithm != protocol.CongestionControlPrague {
		// An explicit RFC9002 selection combined with L4S is a contradiction;
		// the zero value (also RFC9002) is equally rejected rather than
		// silently promoted, so misconfiguration fails loudly.
		return fmt.Errorf("quic: L4S can only be enabled when using Prague congestion control algorithm")
	}
	if config.EnableCarefulResume {
		if config.CarefulResumePreviousRTT <= 0 {
			return fmt.Errorf("quic: Careful Resume requires a positive CarefulResumePreviousRTT")
		}
		if config.CarefulResumePreviousCwnd <= 0 {
			return fmt.Errorf("quic: Careful Resume requires a positive CarefulResumePreviousCwnd")
		}
	}
	return nil
}

// populateConfig fills in defaults for a caller-supplied (possibly nil)
// config, returning a new, fully-populated Config. The input is never
// mutated.
func populateConfig(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}
	populated := *config
	if populated.MaxIdleTimeout <= 0 {
		populated.MaxIdleTimeout = 30 * time.Second
	}
	if populated.HandshakeIdleTimeout <= 0 {
		populated.HandshakeIdleTimeout = 5 * time.Second
	}
	return &populated
}

// getCongestionControlAlgorithm resolves the effective algorithm for a
// (possibly nil) config: L4S always forces Prague regardless of what
// CongestionControlAlgorithm was explicitly set to.
func getCongestionControlAlgorithm(config *Config) protocol.CongestionControlAlgorithm {
	if config == nil {
		return protocol.CongestionControlRFC9002
	}
	if config.EnableL4S {
		return protocol.CongestionControlPrague
	}
	return config.CongestionControlAlgorithm
}
