package preprocess

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"gocv.io/x/gocv"
)

// uniformFrame returns a BGR frame filled with a single color
func uniformFrame(width, height int, b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0),
		height, width, gocv.MatTypeCV8UC3)
}

func TestNewPreprocessor(t *testing.T) {

	tests := []struct {
		resampler string
		size      int
		valid     bool
	}{
		{ResamplerOpenCV, 416, true},
		{"", 416, true},
		{ResamplerBilinear, 320, true},
		{ResamplerCatmullRom, 608, true},
		{ResamplerLanczos, 416, true},
		{"nearest", 416, false},
		{ResamplerOpenCV, 0, false},
	}

	for _, tc := range tests {
		_, err := New(tc.resampler, tc.size)

		if tc.valid && err != nil {
			t.Errorf("resampler %q size %d: unexpected error %v", tc.resampler, tc.size, err)
		}

		if !tc.valid && err == nil {
			t.Errorf("resampler %q size %d: expected error", tc.resampler, tc.size)
		}
	}

	if _, err := New("nearest", 416); !errors.Is(err, ErrUnknownResampler) {
		t.Errorf("expected ErrUnknownResampler, got %v", err)
	}
}

func TestProcessBlobLayout(t *testing.T) {

	resamplers := []string{ResamplerOpenCV, ResamplerBilinear,
		ResamplerCatmullRom, ResamplerLanczos}

	frame := uniformFrame(640, 480, 10, 20, 30)
	defer frame.Close()

	// channels are expected in RGB order after preprocessing
	want := []float32{30.0 / 255, 20.0 / 255, 10.0 / 255}

	for _, name := range resamplers {

		pre, err := New(name, 64)

		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		blob, err := pre.Process(frame)

		if err != nil {
			t.Errorf("%s: process failed: %v", name, err)
			continue
		}

		sizes := blob.Size()

		if len(sizes) != 4 || sizes[0] != 1 || sizes[1] != 3 || sizes[2] != 64 || sizes[3] != 64 {
			t.Errorf("%s: unexpected blob shape %v", name, sizes)
			blob.Close()
			continue
		}

		data, err := blob.DataPtrFloat32()

		if err != nil {
			t.Errorf("%s: blob data: %v", name, err)
			blob.Close()
			continue
		}

		plane := 64 * 64

		for c := 0; c < 3; c++ {
			for _, i := range []int{0, plane / 2, plane - 1} {
				got := data[c*plane+i]
				if math.Abs(float64(got-want[c])) > 1.5/255 {
					t.Errorf("%s: channel %d pixel %d expected %f, got %f",
						name, c, i, want[c], got)
				}
			}
		}

		blob.Close()
	}
}

func TestProcessEmptyFrame(t *testing.T) {

	empty := gocv.NewMat()
	defer empty.Close()

	for _, name := range []string{ResamplerOpenCV, ResamplerBilinear} {

		pre, _ := New(name, 32)
		blob, err := pre.Process(empty)

		if !errors.Is(err, ErrEmptyFrame) {
			t.Errorf("%s: expected ErrEmptyFrame, got %v", name, err)
		}

		if !blob.Empty() {
			t.Errorf("%s: expected empty blob on error", name)
		}

		blob.Close()
	}
}

func TestToNCHW(t *testing.T) {

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(1, 0, color.RGBA{R: 0, G: 255, B: 0, A: 255})
	img.Set(0, 1, color.RGBA{R: 0, G: 0, B: 255, A: 255})
	img.Set(1, 1, color.RGBA{R: 51, G: 102, B: 204, A: 255})

	dst := make([]float32, 12)
	ToNCHW(img, 2, dst)

	want := []float32{
		1, 0, 0, 0.2, // R plane
		0, 1, 0, 0.4, // G plane
		0, 0, 1, 0.8, // B plane
	}

	for i := range want {
		if math.Abs(float64(dst[i]-want[i])) > 1e-6 {
			t.Errorf("index %d: expected %f, got %f", i, want[i], dst[i])
		}
	}

	// non RGBA images take the generic color path
	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.SetGray(0, 0, color.Gray{Y: 255})

	dst = make([]float32, 3)
	ToNCHW(gray, 1, dst)

	for i, v := range dst {
		if v != 1 {
			t.Errorf("gray index %d: expected 1, got %f", i, v)
		}
	}
}
