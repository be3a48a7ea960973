package postprocess

import (
	"gonum.org/v1/gonum/floats"
)

// YOLOv3 defines the struct for decoding the raw output heads of a YOLOv3
// style multi-scale detector
type YOLOv3 struct {
	// Params are the decoding parameters
	Params YOLOv3Params
}

// YOLOv3Params defines the struct containing the YOLOv3 parameters to use
// for post processing operations
type YOLOv3Params struct {
	// ConfThreshold is the class score a candidate row must exceed to be
	// decoded into a detection
	ConfThreshold float32
	// ScoreThreshold is the minimum confidence a candidate must have to
	// be considered by Non-Maximum Suppression
	ScoreThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
}

// YOLOv3DefaultParams returns an instance of YOLOv3Params configured with
// default values of:
// - Conf Threshold: 0.5
// - Score Threshold: 0.5
// - NMS Threshold: 0.4
func YOLOv3DefaultParams() YOLOv3Params {
	return YOLOv3Params{
		ConfThreshold:  0.5,
		ScoreThreshold: 0.5,
		NMSThreshold:   0.4,
	}
}

// NewYOLOv3 returns an instance of the YOLOv3 post processor
func NewYOLOv3(p YOLOv3Params) *YOLOv3 {
	return &YOLOv3{
		Params: p,
	}
}

// Decode converts every row of the tensor into a detection when its best
// class score exceeds ConfThreshold.  Width and height are the pixel
// dimensions of the source frame
func (y *YOLOv3) Decode(t *Tensor, width, height int) []DetectResult {

	results := make([]DetectResult, 0)

	for i := 0; i < t.Rows(); i++ {
		if det, ok := y.decodeRow(t.Row(i), width, height); ok {
			results = append(results, det)
		}
	}

	return results
}

// DecodeOutputs decodes all output heads of a forward pass and appends the
// detections to the candidate buffers
func (y *YOLOv3) DecodeOutputs(outputs []*Tensor, width, height int,
	cands *Candidates) int {

	added := 0

	for _, t := range outputs {
		for i := 0; i < t.Rows(); i++ {
			if det, ok := y.decodeRow(t.Row(i), width, height); ok {
				cands.Add(det)
				added++
			}
		}
	}

	return added
}

// Suppress runs Non-Maximum Suppression over the candidates using the
// configured thresholds and returns the indices kept
func (y *YOLOv3) Suppress(cands *Candidates) []int {
	return NMS(cands.Boxes, cands.Scores, y.Params.ScoreThreshold,
		y.Params.NMSThreshold)
}

// decodeRow decodes a single candidate row
func (y *YOLOv3) decodeRow(row []float64, width, height int) (DetectResult, bool) {

	scores := row[GeometryColumns:]

	// MaxIdx returns the first index when several scores are equal
	classID := floats.MaxIdx(scores)
	confidence := float32(scores[classID])

	// NaN scores never compare above the threshold
	if !(confidence > y.Params.ConfThreshold) {
		return DetectResult{}, false
	}

	centerX := float32(row[0]) * float32(width)
	centerY := float32(row[1]) * float32(height)
	boxW := float32(row[2]) * float32(width)
	boxH := float32(row[3]) * float32(height)

	return DetectResult{
		Class: classID,
		Box: Box{
			Left:   centerX - boxW/2,
			Top:    centerY - boxH/2,
			Width:  boxW,
			Height: boxH,
		},
		Probability: confidence,
	}, true
}
