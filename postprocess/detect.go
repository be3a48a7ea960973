package postprocess

import (
	"image"
	"math"
)

// Box is the bounding box of a detected object in absolute pixel units of the
// source frame.  Coordinates are not clipped and may extend past the frame
// edges
type Box struct {
	Left   float32
	Top    float32
	Width  float32
	Height float32
}

// Right returns the x coordinate of the right edge of the box
func (b Box) Right() float32 {
	return b.Left + b.Width
}

// Bottom returns the y coordinate of the bottom edge of the box
func (b Box) Bottom() float32 {
	return b.Top + b.Height
}

// Center returns the center point of the box
func (b Box) Center() (float32, float32) {
	return b.Left + b.Width/2, b.Top + b.Height/2
}

// Area returns the area of the box, negative dimensions count as zero
func (b Box) Area() float32 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}

	return b.Width * b.Height
}

// Rect converts the box to an integer image.Rectangle for drawing
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(float64(b.Left))),
		int(math.Round(float64(b.Top))),
		int(math.Round(float64(b.Right()))),
		int(math.Round(float64(b.Bottom()))),
	)
}

// IoU calculates the Intersection over Union of two boxes.  A zero area union
// returns 0
func (b Box) IoU(other Box) float32 {

	w := minf(b.Right(), other.Right()) - maxf(b.Left, other.Left)
	h := minf(b.Bottom(), other.Bottom()) - maxf(b.Top, other.Top)

	if w <= 0 || h <= 0 {
		return 0
	}

	intersection := w * h
	union := b.Area() + other.Area() - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}

// DetectResult defines the attributes of a single object detected
type DetectResult struct {
	// Class is the line number in the labels file the Model was trained on
	// defining the Class of the detected object
	Class int
	// Box are the bounding box dimensions of the object location
	Box Box
	// Probability is the confidence score of the object detected, being the
	// maximum class score of the candidate row
	Probability float32
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
