package yolostream

import (
	"math"
	"testing"
	"time"
)

func TestStatsLatency(t *testing.T) {

	var s Stats

	if mean, std := s.Latency(); mean != 0 || std != 0 {
		t.Errorf("expected zero latency without samples, got %f %f", mean, std)
	}

	s.Observe(10 * time.Millisecond)

	if mean, std := s.Latency(); mean != 10 || std != 0 {
		t.Errorf("expected single sample mean 10, got %f %f", mean, std)
	}

	s.Observe(20 * time.Millisecond)
	s.Observe(30 * time.Millisecond)

	mean, std := s.Latency()

	if math.Abs(mean-20) > 1e-9 || math.Abs(std-10) > 1e-9 {
		t.Errorf("expected mean 20 std 10, got %f %f", mean, std)
	}
}

func TestStatsLatencyWindow(t *testing.T) {

	var s Stats

	for i := 0; i < latencyWindow; i++ {
		s.Observe(time.Second)
	}

	// replace the whole window with faster frames
	for i := 0; i < latencyWindow; i++ {
		s.Observe(time.Millisecond)
	}

	if len(s.latencies) != latencyWindow {
		t.Errorf("expected window of %d, got %d", latencyWindow, len(s.latencies))
	}

	if mean, _ := s.Latency(); math.Abs(mean-1) > 1e-9 {
		t.Errorf("expected mean of recent frames 1ms, got %f", mean)
	}

	fields := s.Fields()

	if _, ok := fields["latency_mean_ms"]; !ok {
		t.Errorf("expected latency field, got %v", fields)
	}
}
