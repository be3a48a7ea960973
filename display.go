package yolostream

import (
	"fmt"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// Display presents annotated frames and reports when the user asked to exit
type Display interface {
	Present(window string, frame gocv.Mat) error
	// PollExit returns true once the user requested the stream to stop
	PollExit() bool
	Close() error
}

// WindowDisplay shows frames in native OpenCV highgui windows
type WindowDisplay struct {
	windows map[string]*gocv.Window
	// last is the window most recently presented to, used for key polling
	last *gocv.Window
}

// NewWindowDisplay returns a display that opens windows on first use
func NewWindowDisplay() *WindowDisplay {
	return &WindowDisplay{
		windows: make(map[string]*gocv.Window),
	}
}

// Present shows the frame in the named window
func (w *WindowDisplay) Present(window string, frame gocv.Mat) error {

	if frame.Empty() {
		return fmt.Errorf("empty frame for window %s", window)
	}

	win, ok := w.windows[window]

	if !ok {
		win = gocv.NewWindow(window)
		w.windows[window] = win
	}

	win.IMShow(frame)
	w.last = win

	return nil
}

// PollExit waits 1ms for a key press, any key requests exit
func (w *WindowDisplay) PollExit() bool {

	if w.last == nil {
		return false
	}

	return w.last.WaitKey(1) >= 0
}

// Close destroys all windows
func (w *WindowDisplay) Close() error {

	var err error

	for name, win := range w.windows {
		err = multierr.Append(err, win.Close())
		delete(w.windows, name)
	}

	w.last = nil

	return err
}
