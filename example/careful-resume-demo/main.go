// Command careful-resume-demo fans out several simulated connections, each
// driving its own Resume/CRMetrics pair through a scripted send/ack/loss
// sequence, and exposes Prometheus gauges for the result. It exists to
// exercise the third-party stack that the trimmed congestion-control core
// itself has no occasion to use: errgroup fan-out, rate-limited pacing, and
// Prometheus metrics export.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/quic-go/careful-resume/internal/congestion"
	"github.com/quic-go/careful-resume/internal/monotime"
	"github.com/quic-go/careful-resume/internal/protocol"
)

// manualClock lets the demo compress what would be 60s+ of real wall-clock
// time (CRMetrics' forceUpdateAfter window) into a handful of scripted
// ticks, while still driving the real CRMetrics.MaybeUpdate decision logic.
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() monotime.Time {
	return monotime.FromTime(c.now)
}

func (c *manualClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

const numSimulatedConnections = 4

func main() {
	metrics := newCRDemoMetrics()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(":2112", nil); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	store := make(chan congestion.CREvent, numSimulatedConnections*8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range store {
			metrics.observeCREvent()
			fmt.Printf("persisted CREvent: min_rtt=%s cwnd=%d\n", ev.MinRTT, ev.Cwnd)
		}
	}()

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < numSimulatedConnections; i++ {
		id := i
		g.Go(func() error {
			return simulateConnection(ctx, id, metrics, store)
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("simulation error: %v", err)
	}
	close(store)
	<-done
}

// simulateConnection drives one independent Resume/CRMetrics pair through a
// fixed scenario: a Careful Resume jump, a run of acks that validates it,
// a couple of ack-triggered CRMetrics.MaybeUpdate observations, each paced
// by limiter.Wait so the demo exercises real backpressure instead of a tight
// loop.
func simulateConnection(ctx context.Context, id int, metrics *crDemoMetrics, store chan<- congestion.CREvent) error {
	const previousRTT = 30 * time.Millisecond
	const previousCwnd = protocol.ByteCount(120_000)
	const initialWindow = 10 * protocol.DefaultTCPMSS

	clock := &manualClock{now: time.Now()}
	resume := congestion.NewResume()
	resume.Setup(previousRTT, previousCwnd)
	resume.SetTracer(func(old, new congestion.Phase, trigger congestion.Trigger, pipesize protocol.ByteCount) {
		metrics.observePhase(int(new.Kind))
		metrics.observePipesize(int64(pipesize))
		fmt.Printf("conn %d: phase %s -> %s (trigger=%s, pipesize=%d)\n", id, old.Kind, new.Kind, trigger, pipesize)
	})
	crMetrics := congestion.NewCRMetrics(initialWindow, clock)

	limiter := rate.NewLimiter(rate.Limit(20), 1)

	cwnd := initialWindow
	var largestSent protocol.PacketNumber

	for step := 0; step < 12; step++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		largestSent++
		rttSample := previousRTT + time.Duration(id)*time.Millisecond
		jump := resume.SendPacket(rttSample, cwnd, largestSent, false)
		if jump > 0 {
			cwnd += jump
			metrics.observeJump(int64(jump))
		}

		if step == 1 && id == 0 {
			// Exercise the loss/ECN-CE path on one connection so the demo
			// doesn't only ever show the validating-success branch.
			if newCwnd := resume.CongestionEvent(largestSent); newCwnd > 0 {
				cwnd = newCwnd
			}
			continue
		}

		ackResult := resume.ProcessAck(largestSent, congestion.AckedPacket{
			PacketNumber: largestSent,
			Size:         protocol.DefaultTCPMSS,
		}, cwnd)
		if ackResult.NewCwnd != nil {
			cwnd = *ackResult.NewCwnd
		}

		clock.advance(5 * time.Second)
		if ev := crMetrics.MaybeUpdate(rttSample, cwnd); ev != nil {
			select {
			case store <- *ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Force one more, well-separated observation so every connection emits
	// at least one CREvent even if the drift thresholds above never trip.
	clock.advance(2 * time.Minute)
	if ev := crMetrics.MaybeUpdate(previousRTT, cwnd); ev != nil {
		select {
		case store <- *ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
