package postprocess

// Candidates holds the decoded but not yet suppressed detections of a single
// frame as three index aligned buffers.  The same index always refers to the
// same candidate
type Candidates struct {
	Boxes    []Box
	Scores   []float32
	ClassIDs []int
}

// NewCandidates returns empty candidate buffers with room for size entries
func NewCandidates(size int) *Candidates {
	return &Candidates{
		Boxes:    make([]Box, 0, size),
		Scores:   make([]float32, 0, size),
		ClassIDs: make([]int, 0, size),
	}
}

// Reset clears all buffers so no candidate of a previous frame remains.  The
// underlying storage is retained for reuse
func (c *Candidates) Reset() {
	c.Boxes = c.Boxes[:0]
	c.Scores = c.Scores[:0]
	c.ClassIDs = c.ClassIDs[:0]
}

// Add appends a detection to the buffers
func (c *Candidates) Add(det DetectResult) {
	c.Boxes = append(c.Boxes, det.Box)
	c.Scores = append(c.Scores, det.Probability)
	c.ClassIDs = append(c.ClassIDs, det.Class)
}

// Len returns the number of candidates held
func (c *Candidates) Len() int {
	return len(c.Boxes)
}

// Result returns the candidate at index i as a DetectResult
func (c *Candidates) Result(i int) DetectResult {
	return DetectResult{
		Class:       c.ClassIDs[i],
		Box:         c.Boxes[i],
		Probability: c.Scores[i],
	}
}

// Results returns the candidates at the given indices, typically those kept
// by NMS
func (c *Candidates) Results(indices []int) []DetectResult {

	group := make([]DetectResult, 0, len(indices))

	for _, i := range indices {
		group = append(group, c.Result(i))
	}

	return group
}
