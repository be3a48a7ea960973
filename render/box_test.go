package render

import (
	"image"
	"testing"

	"github.com/overlaycv/yolostream/postprocess"
	"gocv.io/x/gocv"
)

func TestLayoutLabel(t *testing.T) {

	tests := []struct {
		name       string
		left, top  int
		textSize   image.Point
		baseline   int
		background image.Rectangle
		origin     image.Point
	}{
		{
			name: "label above box",
			left: 100, top: 80,
			textSize: image.Pt(60, 10), baseline: 4,
			background: image.Rect(100, 65, 190, 84),
			origin:     image.Pt(100, 80),
		},
		{
			name: "anchor clamped to text height",
			left: 20, top: 3,
			textSize: image.Pt(40, 12), baseline: 5,
			background: image.Rect(20, -6, 80, 17),
			origin:     image.Pt(20, 12),
		},
		{
			name: "box above frame",
			left: 0, top: -30,
			textSize: image.Pt(10, 10), baseline: 2,
			background: image.Rect(0, -5, 15, 12),
			origin:     image.Pt(0, 10),
		},
		{
			name: "odd sizes round half away from zero",
			left: 5, top: 50,
			textSize: image.Pt(33, 11), baseline: 3,
			background: image.Rect(5, 33, 55, 53),
			origin:     image.Pt(5, 50),
		},
	}

	for _, tc := range tests {
		got := LayoutLabel(tc.left, tc.top, tc.textSize, tc.baseline)

		if got.Background != tc.background {
			t.Errorf("%s: background %v, expected %v", tc.name, got.Background, tc.background)
		}

		if got.Origin != tc.origin {
			t.Errorf("%s: origin %v, expected %v", tc.name, got.Origin, tc.origin)
		}

		if got.Origin.Y < tc.textSize.Y {
			t.Errorf("%s: label origin %d above text height %d", tc.name, got.Origin.Y, tc.textSize.Y)
		}
	}
}

func TestLabelText(t *testing.T) {

	tests := []struct {
		name     string
		prob     float32
		expected string
	}{
		{"person", 0.9, "person: 0.90"},
		{"dog", 0.506, "dog: 0.51"},
		{"traffic light", 1, "traffic light: 1.00"},
	}

	for _, tc := range tests {
		if got := LabelText(tc.name, tc.prob); got != tc.expected {
			t.Errorf("LabelText(%q, %f) = %q, expected %q", tc.name, tc.prob, got, tc.expected)
		}
	}
}

func TestClassColor(t *testing.T) {

	if ClassColor(0) != ClassColor(len(classColors)) {
		t.Errorf("expected palette to wrap around")
	}

	if ClassColor(-1) != classColors[0] {
		t.Errorf("expected negative class to use first color")
	}
}

// greenPixels counts pixels of a BGR frame within r whose green channel is
// saturated
func greenPixels(img gocv.Mat, r image.Rectangle) int {

	count := 0

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.GetVecbAt(y, x)[1] == 255 {
				count++
			}
		}
	}

	return count
}

func TestAnnotate(t *testing.T) {

	labels := []string{"cat", "dog"}
	annotator := NewAnnotator(labels, DefaultStyle())

	box := postprocess.Box{Left: 10, Top: 40, Width: 40, Height: 40}

	// region above the box where the label background is drawn
	labelRegion := image.Rect(12, 25, 40, 36)

	tests := []struct {
		name    string
		class   int
		labeled bool
	}{
		{"known class", 1, true},
		{"class past labels", 2, false},
		{"negative class", -1, false},
	}

	for _, tc := range tests {

		img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 120, 200,
			gocv.MatTypeCV8UC3)

		ok := annotator.Annotate(&img, postprocess.DetectResult{
			Class:       tc.class,
			Box:         box,
			Probability: 0.87,
		})

		if ok != tc.labeled {
			t.Errorf("%s: Annotate returned %v, expected %v", tc.name, ok, tc.labeled)
		}

		// the outline is drawn regardless of the class
		edge := img.GetVecbAt(60, 10)

		if edge[0] != 0 || edge[1] != 255 || edge[2] != 0 {
			t.Errorf("%s: expected green outline, got %v", tc.name, edge)
		}

		if n := greenPixels(img, labelRegion); tc.labeled && n == 0 {
			t.Errorf("%s: expected label background to be drawn", tc.name)
		} else if !tc.labeled && n != 0 {
			t.Errorf("%s: expected no label, found %d green pixels", tc.name, n)
		}

		img.Close()
	}
}

func TestAnnotateAllEmpty(t *testing.T) {

	annotator := NewAnnotator([]string{"cat"}, DefaultStyle())

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 50, 50,
		gocv.MatTypeCV8UC3)
	defer img.Close()

	if skipped := annotator.AnnotateAll(&img, nil); skipped != 0 {
		t.Errorf("expected nothing skipped, got %d", skipped)
	}

	flat := img.Reshape(1, 0)
	defer flat.Close()

	if n := gocv.CountNonZero(flat); n != 0 {
		t.Errorf("expected untouched frame, found %d non zero values", n)
	}
}
