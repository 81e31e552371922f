// Command l4s-config demonstrates Config validation for L4S/Prague and
// Careful Resume, calling the package's own validateConfig/populateConfig
// logic directly rather than standing up a real connection.
package main

import (
	"fmt"
	"time"

	quic "github.com/quic-go/careful-resume"
	"github.com/quic-go/careful-resume/internal/protocol"
)

func main() {
	fmt.Println("L4S and Careful Resume Configuration Examples")

	fmt.Println("\n1. Valid L4S Configuration:")
	validL4SConfig := &quic.Config{
		EnableL4S:                  true,
		CongestionControlAlgorithm: protocol.CongestionControlPrague,
		MaxIdleTimeout:             300 * time.Second,
	}
	describe(validL4SConfig)

	fmt.Println("\n2. Invalid L4S Configuration (L4S with RFC9002):")
	invalidL4SConfig := &quic.Config{
		EnableL4S:                  true,
		CongestionControlAlgorithm: protocol.CongestionControlRFC9002,
	}
	describe(invalidL4SConfig)

	fmt.Println("\n3. Default Configuration:")
	populated := quic.PopulateConfig(&quic.Config{})
	fmt.Printf("   - EnableL4S: %v\n", populated.EnableL4S)
	fmt.Printf("   - Algorithm: %v\n", populated.CongestionControlAlgorithm)
	fmt.Printf("   - MaxIdleTimeout: %v\n", populated.MaxIdleTimeout)

	fmt.Println("\n4. Prague Algorithm without L4S:")
	describe(&quic.Config{CongestionControlAlgorithm: protocol.CongestionControlPrague})

	fmt.Println("\n5. Careful Resume with previous-path metrics:")
	describe(&quic.Config{
		EnableCarefulResume:       true,
		CarefulResumePreviousRTT:  30 * time.Millisecond,
		CarefulResumePreviousCwnd: 120000,
	})

	fmt.Println("\n6. Careful Resume missing previous-path metrics (invalid):")
	describe(&quic.Config{EnableCarefulResume: true})

	fmt.Println("\n7. Available Congestion Control Algorithms:")
	for _, alg := range []protocol.CongestionControlAlgorithm{
		protocol.CongestionControlRFC9002,
		protocol.CongestionControlPrague,
	} {
		fmt.Printf("   - %s (%d)\n", alg.String(), alg)
	}
}

func describe(config *quic.Config) {
	if err := quic.ValidateConfig(config); err != nil {
		fmt.Printf("   invalid: %v\n", err)
		return
	}
	fmt.Printf("   valid: EnableL4S=%v EnableCarefulResume=%v Algorithm=%s\n",
		config.EnableL4S, config.EnableCarefulResume, quic.GetCongestionControlAlgorithm(config))
}
