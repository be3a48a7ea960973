package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/overlaycv/yolostream/postprocess"
	"gocv.io/x/gocv"
)

// Style defines how detections are drawn onto a frame
type Style struct {
	// Thickness of the box outline in pixels
	Thickness int
	// BoxColor is used for the outline and label background unless
	// ClassColors is set
	BoxColor color.RGBA
	// ClassColors selects a palette color per class id
	ClassColors bool
	// Font used for the label text
	Font Font
}

// DefaultStyle returns a green outline of 3 pixels with black label text on
// a green background
func DefaultStyle() Style {
	return Style{
		Thickness: 3,
		BoxColor:  Green,
		Font:      DefaultFont(),
	}
}

// LabelLayout holds the computed placement of a label above a box
type LabelLayout struct {
	// Background is the filled rectangle the text is drawn on
	Background image.Rectangle
	// Origin is the bottom left corner of the text
	Origin image.Point
}

// LayoutLabel places a label of textSize above the box top edge at left,top.
// The anchor is pushed down to at least the text height so the label never
// leaves the top of the frame.  The background extends 1.5 times the text
// size above and to the right of the anchor and baseline pixels below it
func LayoutLabel(left, top int, textSize image.Point, baseline int) LabelLayout {

	if top < textSize.Y {
		top = textSize.Y
	}

	bgTop := top - int(math.Round(1.5*float64(textSize.Y)))
	bgRight := left + int(math.Round(1.5*float64(textSize.X)))

	return LabelLayout{
		Background: image.Rect(left, bgTop, bgRight, top+baseline),
		Origin:     image.Pt(left, top),
	}
}

// LabelText formats the label drawn for a detection
func LabelText(className string, probability float32) string {
	return fmt.Sprintf("%s: %.2f", className, probability)
}

// Annotator draws detection results onto frames
type Annotator struct {
	labels []string
	style  Style
}

// NewAnnotator returns an Annotator resolving class ids against labels
func NewAnnotator(labels []string, style Style) *Annotator {
	return &Annotator{
		labels: labels,
		style:  style,
	}
}

// Style returns the drawing style in use
func (a *Annotator) Style() Style {
	return a.style
}

// Annotate draws the box outline and label for a single detection.  When the
// class id has no label the outline is still drawn but the label is skipped
// and false is returned
func (a *Annotator) Annotate(img *gocv.Mat, det postprocess.DetectResult) bool {

	clr := a.color(det.Class)
	rect := det.Box.Rect()

	gocv.Rectangle(img, rect, clr, a.style.Thickness)

	if det.Class < 0 || det.Class >= len(a.labels) {
		return false
	}

	text := LabelText(a.labels[det.Class], det.Probability)
	textSize, baseline := a.style.Font.Measure(text)
	layout := LayoutLabel(rect.Min.X, rect.Min.Y, textSize, baseline)

	// draw box text gets written on
	gocv.Rectangle(img, layout.Background, clr, -1)

	gocv.PutTextWithParams(img, text, layout.Origin, a.style.Font.Face,
		a.style.Font.Scale, a.style.Font.Color, a.style.Font.Thickness,
		a.style.Font.LineType, false)

	return true
}

// AnnotateAll draws every detection and returns how many had no label
func (a *Annotator) AnnotateAll(img *gocv.Mat, dets []postprocess.DetectResult) int {

	skipped := 0

	for _, det := range dets {
		if !a.Annotate(img, det) {
			skipped++
		}
	}

	return skipped
}

func (a *Annotator) color(classID int) color.RGBA {
	if a.style.ClassColors {
		return ClassColor(classID)
	}
	return a.style.BoxColor
}
