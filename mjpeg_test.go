package yolostream

import (
	"bufio"
	"context"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"gocv.io/x/gocv"
)

func TestMJPEGDisplay(t *testing.T) {

	logger, _ := test.NewNullLogger()
	display := NewMJPEGDisplay("localhost:0", 0, logger)
	defer display.Close()

	server := httptest.NewServer(display.Handler())
	defer server.Close()

	// no frame presented yet
	resp, err := http.Get(server.URL + "/snapshot")

	if err != nil {
		t.Fatalf("snapshot request failed: %v", err)
	}

	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before first frame, got %d", resp.StatusCode)
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 255, 0, 0), 48, 64,
		gocv.MatTypeCV8UC3)
	defer frame.Close()

	if err := display.Present("detections", frame); err != nil {
		t.Fatalf("Present failed: %v", err)
	}

	if display.PollExit() {
		t.Errorf("mjpeg display should never request exit")
	}

	resp, err = http.Get(server.URL + "/snapshot")

	if err != nil {
		t.Fatalf("snapshot request failed: %v", err)
	}

	img, err := jpeg.Decode(resp.Body)
	resp.Body.Close()

	if err != nil {
		t.Fatalf("snapshot is not a JPEG: %v", err)
	}

	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("expected 64x48 snapshot, got %v", b)
	}

	resp, err = http.Get(server.URL + "/")

	if err != nil {
		t.Fatalf("index request failed: %v", err)
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if !strings.Contains(string(body), "detections") || !strings.Contains(string(body), "/stream") {
		t.Errorf("unexpected index page %s", body)
	}
}

func TestMJPEGStream(t *testing.T) {

	logger, _ := test.NewNullLogger()
	display := NewMJPEGDisplay("localhost:0", 90, logger)
	defer display.Close()

	server := httptest.NewServer(display.Handler())
	defer server.Close()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 255, 0), 32, 32,
		gocv.MatTypeCV8UC3)
	defer frame.Close()

	display.Present("stream", frame)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/stream", nil)
	resp, err := http.DefaultClient.Do(req)

	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}

	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("unexpected content type %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')

	if err != nil {
		t.Fatalf("failed reading stream: %v", err)
	}

	if line != "--frame\r\n" {
		t.Errorf("expected frame boundary, got %q", line)
	}
}

func TestMJPEGPresentEmptyFrame(t *testing.T) {

	logger, _ := test.NewNullLogger()
	display := NewMJPEGDisplay("localhost:0", 0, logger)

	empty := gocv.NewMat()
	defer empty.Close()

	if err := display.Present("x", empty); err == nil {
		t.Errorf("expected error presenting empty frame")
	}
}

func TestMJPEGStartAndClose(t *testing.T) {

	logger, _ := test.NewNullLogger()
	display := NewMJPEGDisplay("127.0.0.1:0", 0, logger)

	if err := display.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := display.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
