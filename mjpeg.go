package yolostream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	// DefaultJPEGQuality is the JPEG quality used when none is configured
	DefaultJPEGQuality = 80

	// shutdownTimeout bounds how long Close waits for clients to disconnect
	shutdownTimeout = 5 * time.Second
)

const indexPage = `<html><head><title>%s</title></head>
<body><img src="/stream"></body></html>`

// MJPEGDisplay serves the latest presented frame to browsers as a
// multipart JPEG stream.  The stream loop only ever swaps the encoded frame,
// each HTTP client is served from its own goroutine
type MJPEGDisplay struct {
	addr    string
	quality int
	log     logrus.FieldLogger

	mu     sync.Mutex
	frame  []byte
	window string
	// updated is closed and replaced each time a new frame is presented
	updated chan struct{}

	// done is closed on Close to end all client streams
	done      chan struct{}
	closeOnce sync.Once

	server *http.Server
}

// NewMJPEGDisplay returns a display serving frames on addr, format
// address:port
func NewMJPEGDisplay(addr string, quality int, log logrus.FieldLogger) *MJPEGDisplay {

	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	return &MJPEGDisplay{
		addr:    addr,
		quality: quality,
		log:     log,
		updated: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Handler returns the HTTP routes of the display
func (d *MJPEGDisplay) Handler() http.Handler {

	r := mux.NewRouter()
	r.HandleFunc("/", d.index).Methods(http.MethodGet)
	r.HandleFunc("/stream", d.stream).Methods(http.MethodGet)
	r.HandleFunc("/snapshot", d.snapshot).Methods(http.MethodGet)

	return r
}

// Start listens on the configured address and serves in the background
func (d *MJPEGDisplay) Start() error {

	ln, err := net.Listen("tcp", d.addr)

	if err != nil {
		return fmt.Errorf("error listening on %s: %w", d.addr, err)
	}

	d.server = &http.Server{Handler: d.Handler()}

	go func() {
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.log.WithError(err).Error("MJPEG server stopped")
		}
	}()

	d.log.Infof("Open browser and view video at http://%s/", ln.Addr())

	return nil
}

// Present encodes the frame as JPEG and makes it the latest frame served
func (d *MJPEGDisplay) Present(window string, frame gocv.Mat) error {

	if frame.Empty() {
		return fmt.Errorf("empty frame for window %s", window)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame,
		[]int{gocv.IMWriteJpegQuality, d.quality})

	if err != nil {
		return fmt.Errorf("error encoding frame: %w", err)
	}

	// copy out of C memory before the buffer is released
	jpg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	d.mu.Lock()
	d.frame = jpg
	d.window = window
	close(d.updated)
	d.updated = make(chan struct{})
	d.mu.Unlock()

	return nil
}

// PollExit never requests exit, the stream is stopped through its context
func (d *MJPEGDisplay) PollExit() bool {
	return false
}

// Close ends all client streams and shuts down the HTTP server
func (d *MJPEGDisplay) Close() error {

	d.closeOnce.Do(func() { close(d.done) })

	if d.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return d.server.Shutdown(ctx)
}

// latest returns the current frame and the channel closed on the next update
func (d *MJPEGDisplay) latest() ([]byte, string, <-chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame, d.window, d.updated
}

func (d *MJPEGDisplay) index(w http.ResponseWriter, r *http.Request) {
	_, window, _ := d.latest()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexPage, window)
}

func (d *MJPEGDisplay) snapshot(w http.ResponseWriter, r *http.Request) {

	frame, _, _ := d.latest()

	if frame == nil {
		http.Error(w, "no frame available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(frame)
}

// stream writes every new frame to the client until it disconnects
func (d *MJPEGDisplay) stream(w http.ResponseWriter, r *http.Request) {

	log := d.log.WithField("client", r.RemoteAddr)
	log.Info("New client connection established")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	flusher, _ := w.(http.Flusher)

	for {
		frame, _, updated := d.latest()

		if frame != nil {
			w.Write([]byte("--frame\r\n"))
			w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
			w.Write(frame)

			if _, err := w.Write([]byte("\r\n")); err != nil {
				log.WithError(err).Debug("Client write failed")
				return
			}

			if flusher != nil {
				flusher.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			log.Info("Client disconnected")
			return
		case <-d.done:
			return
		case <-updated:
		}
	}
}
