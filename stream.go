package yolostream

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/overlaycv/yolostream/postprocess"
	"github.com/overlaycv/yolostream/preprocess"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// State is the lifecycle state of a StreamLoop
type State int

const (
	// StateRunning is the initial state, frames are being processed
	StateRunning State = iota
	// StateStopped is terminal, no further frames are read
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Annotator draws a single detection onto a frame, returning false when the
// detection could not be labeled
type Annotator interface {
	Annotate(img *gocv.Mat, det postprocess.DetectResult) bool
}

// Pipeline holds the collaborators a StreamLoop drives
type Pipeline struct {
	Source       FrameSource
	Preprocessor preprocess.Preprocessor
	Network      Network
	Decoder      *postprocess.YOLOv3
	Annotator    Annotator
	Display      Display
	// Window is the name frames are presented under
	Window string
	Log    logrus.FieldLogger
}

// StreamLoop reads, detects, annotates and presents frames one at a time
// until the source ends, the display requests exit or the context is
// cancelled
type StreamLoop struct {
	p     Pipeline
	log   logrus.FieldLogger
	state State
	stats Stats
	// frame is reused for every frame read from the source
	frame gocv.Mat
	// cands holds the candidates of the current frame only
	cands *postprocess.Candidates
}

// NewStreamLoop returns a loop in the RUNNING state
func NewStreamLoop(p Pipeline) *StreamLoop {

	log := p.Log

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &StreamLoop{
		p:     p,
		log:   log,
		state: StateRunning,
		frame: gocv.NewMat(),
		cands: postprocess.NewCandidates(256),
	}
}

// State returns the current lifecycle state
func (l *StreamLoop) State() State {
	return l.state
}

// Stats returns the statistics gathered so far
func (l *StreamLoop) Stats() Stats {
	return l.stats
}

// Run processes frames until the loop stops.  The context and the display's
// exit signal are checked once per frame boundary, a frame in progress is
// always completed.  Reaching the end of the stream is not an error
func (l *StreamLoop) Run(ctx context.Context) error {

	if l.state == StateStopped {
		return fmt.Errorf("stream loop already stopped")
	}

	log := l.log.WithField("run", uuid.NewString())
	log.Info("Stream started")

	for l.state == StateRunning {

		if err := ctx.Err(); err != nil {
			l.stop(log, "context cancelled")
			break
		}

		if !l.p.Source.Read(&l.frame) {
			l.stop(log, "end of stream")
			break
		}

		l.stats.Frames++
		l.processFrame(log.WithField("frame", l.stats.Frames))

		if l.p.Display.PollExit() {
			l.stop(log, "exit requested")
		} else if ctx.Err() != nil {
			l.stop(log, "context cancelled")
		}
	}

	log.WithFields(l.stats.Fields()).Info("Stream stopped")

	return nil
}

func (l *StreamLoop) stop(log logrus.FieldLogger, reason string) {
	l.state = StateStopped
	log.WithField("reason", reason).Debug("Stopping stream")
}

// processFrame runs detection on the current frame, draws the kept
// detections and presents it.  Failures are logged and the frame is still
// presented so they never cross the frame boundary
func (l *StreamLoop) processFrame(log logrus.FieldLogger) {

	start := time.Now()
	failed := false

	dets, err := l.detect()

	if err != nil {
		log.WithError(err).Warn("Detection failed, presenting frame unannotated")
		failed = true
	}

	for _, det := range dets {
		if !l.p.Annotator.Annotate(&l.frame, det) {
			log.WithField("class", det.Class).Debug("Class id has no label")
			l.stats.Unlabeled++
		}
	}

	l.stats.Detections += len(dets)

	if err := l.p.Display.Present(l.p.Window, l.frame); err != nil {
		log.WithError(err).Warn("Failed to present frame")
		failed = true
	}

	if failed {
		l.stats.Failed++
	}

	l.stats.Observe(time.Since(start))
}

// detect preprocesses the frame, runs the network and returns the
// detections surviving Non-Maximum Suppression
func (l *StreamLoop) detect() ([]postprocess.DetectResult, error) {

	// candidates never carry over from a previous frame
	l.cands.Reset()

	blob, err := l.p.Preprocessor.Process(l.frame)

	if err != nil {
		blob.Close()
		return nil, fmt.Errorf("preprocess: %w", err)
	}

	defer blob.Close()

	outputs, err := l.p.Network.Forward(blob)

	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}

	l.p.Decoder.DecodeOutputs(outputs, l.frame.Cols(), l.frame.Rows(), l.cands)
	keep := l.p.Decoder.Suppress(l.cands)

	return l.cands.Results(keep), nil
}

// Close releases the frame buffer and closes the source, network and
// display
func (l *StreamLoop) Close() error {

	l.state = StateStopped

	return multierr.Combine(
		l.frame.Close(),
		l.p.Source.Close(),
		l.p.Network.Close(),
		l.p.Display.Close(),
	)
}
