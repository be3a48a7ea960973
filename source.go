package yolostream

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FrameSource provides the frames to run detection on
type FrameSource interface {
	// Read decodes the next frame into dst and returns false at the end of
	// the stream
	Read(dst *gocv.Mat) bool
	Close() error
}

// CaptureSource reads frames from a camera device, video file or stream URL
// through OpenCV's VideoCapture
type CaptureSource struct {
	vc *gocv.VideoCapture
}

// OpenCaptureSource opens the given source.  A numeric source such as "0"
// opens the camera device with that id
func OpenCaptureSource(source string) (*CaptureSource, error) {

	vc, err := gocv.OpenVideoCapture(source)

	if err != nil {
		return nil, fmt.Errorf("error opening video source %s: %w", source, err)
	}

	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video source %s could not be opened", source)
	}

	return &CaptureSource{vc: vc}, nil
}

// Read decodes the next frame, a failed read or empty frame ends the stream
func (c *CaptureSource) Read(dst *gocv.Mat) bool {
	return c.vc.Read(dst) && !dst.Empty()
}

// Close releases the capture device
func (c *CaptureSource) Close() error {
	return c.vc.Close()
}
