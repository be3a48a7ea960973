package preprocess

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

const (
	// ResamplerOpenCV builds the input blob with OpenCV's blobFromImage
	ResamplerOpenCV = "opencv"
	// ResamplerBilinear resizes in Go with bilinear interpolation
	ResamplerBilinear = "bilinear"
	// ResamplerCatmullRom resizes in Go with the Catmull-Rom kernel
	ResamplerCatmullRom = "catmullrom"
	// ResamplerLanczos resizes in Go with a Lanczos3 kernel
	ResamplerLanczos = "lanczos"

	// DefaultInputSize is the square input dimension of the network
	DefaultInputSize = 416
)

var (
	// ErrEmptyFrame is returned when a frame without pixel data is passed
	// for preprocessing
	ErrEmptyFrame = errors.New("empty frame")
	// ErrUnknownResampler is returned for an unsupported resampler name
	ErrUnknownResampler = errors.New("unknown resampler")
)

// Preprocessor converts a BGR frame into the NCHW float32 input blob of the
// network.  The returned Mat is owned by the caller and must be closed.  On
// error an empty Mat is returned, which the caller closes as well
type Preprocessor interface {
	Process(frame gocv.Mat) (gocv.Mat, error)
}

// New returns the Preprocessor for the named resampler producing square
// blobs of the given size
func New(resampler string, size int) (Preprocessor, error) {

	if size <= 0 {
		return nil, fmt.Errorf("invalid input size %d", size)
	}

	switch resampler {
	case ResamplerOpenCV, "":
		return NewBlob(size), nil
	case ResamplerBilinear, ResamplerCatmullRom, ResamplerLanczos:
		return NewImage(size, resampler), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownResampler, resampler)
}

// Blob defines the struct for preprocessing frames with OpenCV's
// blobFromImage.  The frame is resized to a square without keeping aspect,
// pixel values are scaled to [0,1] and BGR channel order is swapped to RGB
type Blob struct {
	// size is the width and height of the network input
	size int
	// mean is subtracted from each channel, zero for YOLO
	mean gocv.Scalar
}

// NewBlob returns a Blob preprocessor for the given square input size
func NewBlob(size int) *Blob {
	return &Blob{
		size: size,
		mean: gocv.NewScalar(0, 0, 0, 0),
	}
}

// Size returns the input dimension of the blobs produced
func (b *Blob) Size() int {
	return b.size
}

// Process creates the 1x3xSxS input blob from the frame
func (b *Blob) Process(frame gocv.Mat) (gocv.Mat, error) {

	if frame.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(b.size, b.size),
		b.mean, true, false)

	return blob, nil
}
