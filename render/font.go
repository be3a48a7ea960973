package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Font defines the parameters for rendering label text on a frame using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
}

// DefaultFont returns default font settings of black Hershey Simplex text at
// half scale
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     Black,
		Thickness: 1,
		LineType:  gocv.Line8,
	}
}

// Measure returns the size of text rendered in this font and the baseline
// offset below the text origin
func (f Font) Measure(text string) (image.Point, int) {
	return gocv.GetTextSizeWithBaseline(text, f.Face, f.Scale, f.Thickness)
}
