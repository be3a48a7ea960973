package yolostream

import (
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// latencyWindow is the number of most recent frame latencies summarized
const latencyWindow = 1000

// Stats records counters and frame latencies of a stream run
type Stats struct {
	// Frames is the number of frames read from the source
	Frames int
	// Detections is the number of detections kept after suppression
	Detections int
	// Unlabeled is the number of detections drawn without a label
	Unlabeled int
	// Failed is the number of frames where a pipeline stage failed
	Failed int

	// latencies is a ring of frame processing times in milliseconds
	latencies []float64
	next      int
}

// Observe records the processing time of a frame
func (s *Stats) Observe(d time.Duration) {

	ms := float64(d) / float64(time.Millisecond)

	if len(s.latencies) < latencyWindow {
		s.latencies = append(s.latencies, ms)
		return
	}

	s.latencies[s.next] = ms
	s.next = (s.next + 1) % latencyWindow
}

// Latency returns the mean and standard deviation in milliseconds of the
// recent frame processing times
func (s *Stats) Latency() (float64, float64) {

	if len(s.latencies) == 0 {
		return 0, 0
	}

	if len(s.latencies) == 1 {
		return s.latencies[0], 0
	}

	return stat.MeanStdDev(s.latencies, nil)
}

// Fields returns the statistics as log fields
func (s *Stats) Fields() logrus.Fields {

	mean, std := s.Latency()

	return logrus.Fields{
		"frames":          s.Frames,
		"detections":      s.Detections,
		"unlabeled":       s.Unlabeled,
		"failed":          s.Failed,
		"latency_mean_ms": mean,
		"latency_std_ms":  std,
	}
}
