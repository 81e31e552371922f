// Command l4s-logging demonstrates the logging package's human-facing
// tracer callbacks for Prague/L4S and Careful Resume, without standing up a
// real connection.
package main

import (
	"fmt"
	"log"
	"time"

	quic "github.com/quic-go/careful-resume"
	"github.com/quic-go/careful-resume/internal/protocol"
	"github.com/quic-go/careful-resume/logging"
)

func main() {
	fmt.Println("=== L4S Prague + Careful Resume Logging Example ===")

	connectionID := "demo-conn"
	tracer := logging.CreatePragueConnectionTracer(connectionID, true)

	config := &quic.Config{
		EnableL4S:                  true,
		CongestionControlAlgorithm: protocol.CongestionControlPrague,
		EnableCarefulResume:        true,
		CarefulResumePreviousRTT:   30 * time.Millisecond,
		CarefulResumePreviousCwnd:  120000,
	}

	if err := quic.ValidateConfig(config); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	fmt.Printf("L4S Enabled: %t\n", config.EnableL4S)
	fmt.Printf("Algorithm: %s\n", config.CongestionControlAlgorithm.String())
	fmt.Printf("Careful Resume Enabled: %t (previous RTT=%s, previous cwnd=%d)\n",
		config.EnableCarefulResume, config.CarefulResumePreviousRTT, config.CarefulResumePreviousCwnd)

	fmt.Println("\nSimulated logging events for a typical connection:")
	simulateLoggingEvents(tracer)

	fmt.Println("\n=== Example Complete ===")
}

func simulateLoggingEvents(tracer *logging.ConnectionTracer) {
	if tracer == nil {
		return
	}

	if tracer.L4SStateChanged != nil {
		tracer.L4SStateChanged(true, "Prague")
	}
	if tracer.UpdatedCongestionState != nil {
		tracer.UpdatedCongestionState(logging.CongestionStateSlowStart)
	}
	if tracer.UpdatedCarefulResumePhase != nil {
		tracer.UpdatedCarefulResumePhase("Reconnaissance", "Unvalidated", 12, "CongestionWindowLimited")
	}
	if tracer.PragueECNFeedback != nil {
		tracer.PragueECNFeedback(1200, 4800) // 25% marking
	}
	if tracer.UpdatedPragueAlpha != nil {
		tracer.UpdatedPragueAlpha(0.25, 0.25)
	}
	if tracer.UpdatedCongestionState != nil {
		tracer.UpdatedCongestionState(logging.CongestionStateCongestionAvoidance)
	}
	if tracer.UpdatedCarefulResumePhase != nil {
		tracer.UpdatedCarefulResumePhase("Unvalidated", "Validating", 20, "CrMarkAcknowledged")
	}
	if tracer.UpdatedCarefulResumeMetrics != nil {
		tracer.UpdatedCarefulResumeMetrics(28*time.Millisecond, 150000)
	}
	if tracer.PragueECNFeedback != nil {
		tracer.PragueECNFeedback(2400, 4800) // 50% marking
	}
	if tracer.UpdatedPragueAlpha != nil {
		tracer.UpdatedPragueAlpha(0.375, 0.50)
	}
}
