package preprocess

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// Image defines the struct for preprocessing frames through Go's image
// package.  It produces the same blob layout as Blob but allows choosing the
// resampling kernel
type Image struct {
	// size is the width and height of the network input
	size int
	// resampler is the name of the interpolation kernel
	resampler string
	// dst is reused across frames for the draw based kernels
	dst *image.RGBA
}

// NewImage returns an Image preprocessor using the named resampler
func NewImage(size int, resampler string) *Image {
	return &Image{
		size:      size,
		resampler: resampler,
		dst:       image.NewRGBA(image.Rect(0, 0, size, size)),
	}
}

// Size returns the input dimension of the blobs produced
func (p *Image) Size() int {
	return p.size
}

// Process converts the frame to RGB, resizes it and writes the normalized
// planes into a new 1x3xSxS float32 Mat
func (p *Image) Process(frame gocv.Mat) (gocv.Mat, error) {

	if frame.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}

	// ToImage swaps the BGR Mat into an RGBA image
	src, err := frame.ToImage()

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error converting frame: %w", err)
	}

	resized := p.scale(src)

	blob := gocv.NewMatWithSizes([]int{1, 3, p.size, p.size}, gocv.MatTypeCV32F)
	data, err := blob.DataPtrFloat32()

	if err != nil {
		blob.Close()
		return gocv.NewMat(), fmt.Errorf("error accessing blob data: %w", err)
	}

	ToNCHW(resized, p.size, data)

	return blob, nil
}

// scale resizes src to the square input size
func (p *Image) scale(src image.Image) image.Image {

	switch p.resampler {
	case ResamplerLanczos:
		return resize.Resize(uint(p.size), uint(p.size), src, resize.Lanczos3)

	case ResamplerCatmullRom:
		draw.CatmullRom.Scale(p.dst, p.dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	default:
		draw.BiLinear.Scale(p.dst, p.dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}

	return p.dst
}

// ToNCHW writes the RGB channels of a size x size image into dst as three
// consecutive planes scaled to [0,1].  dst must hold 3*size*size values
func ToNCHW(img image.Image, size int, dst []float32) {

	plane := size * size
	bounds := img.Bounds()

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				off := rgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				i := y*size + x
				dst[i] = float32(rgba.Pix[off]) / 255
				dst[plane+i] = float32(rgba.Pix[off+1]) / 255
				dst[2*plane+i] = float32(rgba.Pix[off+2]) / 255
			}
		}
		return
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := y*size + x
			dst[i] = float32(r) / 65535
			dst[plane+i] = float32(g) / 65535
			dst[2*plane+i] = float32(b) / 65535
		}
	}
}
