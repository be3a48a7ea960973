package postprocess

import (
	"errors"
	"fmt"

	"github.com/x448/float16"
	"gonum.org/v1/gonum/mat"
)

// GeometryColumns is the number of leading columns in each candidate row
// holding the box geometry and objectness score, being:
//   - x & y coordinates for the center of the bounding box
//   - width and height of the box relative to whole image
//   - objectness score
//
// All columns after these are the per class scores
const GeometryColumns = 5

// ErrTensorShape is returned when tensor data does not match the requested
// shape or has no class score columns
var ErrTensorShape = errors.New("invalid tensor shape")

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// Tensor is a single raw output head of the detection network.  Each row is
// one detection candidate laid out as [cx, cy, w, h, objectness, score_0,
// score_1, ...] with geometry normalized to [0,1]
type Tensor struct {
	data *mat.Dense
}

// NewTensor copies the row major float32 data into a Tensor of the given
// shape
func NewTensor(rows, cols int, data []float32) (*Tensor, error) {

	if err := checkShape(rows, cols, len(data)); err != nil {
		return nil, err
	}

	buf := make([]float64, len(data))

	for i, v := range data {
		buf[i] = float64(v)
	}

	return newTensor(rows, cols, buf), nil
}

// NewTensorFromFloat16 converts the row major IEEE 754 half precision data
// into a Tensor of the given shape
func NewTensorFromFloat16(rows, cols int, data []uint16) (*Tensor, error) {

	if err := checkShape(rows, cols, len(data)); err != nil {
		return nil, err
	}

	buf := make([]float64, len(data))

	for i, v := range data {
		buf[i] = float64(f16LookupTable[v])
	}

	return newTensor(rows, cols, buf), nil
}

// newTensor wraps buf, an empty tensor is kept without a backing matrix as
// gonum does not allow zero sized matrices
func newTensor(rows, cols int, buf []float64) *Tensor {
	if rows == 0 {
		return &Tensor{}
	}
	return &Tensor{data: mat.NewDense(rows, cols, buf)}
}

func checkShape(rows, cols, size int) error {

	if cols <= GeometryColumns {
		return fmt.Errorf("%w: need more than %d columns, got %d",
			ErrTensorShape, GeometryColumns, cols)
	}

	if rows < 0 || rows*cols != size {
		return fmt.Errorf("%w: %dx%d does not match %d elements",
			ErrTensorShape, rows, cols, size)
	}

	return nil
}

// Rows returns the number of candidate rows in the tensor
func (t *Tensor) Rows() int {
	if t.data == nil {
		return 0
	}
	r, _ := t.data.Dims()
	return r
}

// Cols returns the number of columns of each candidate row
func (t *Tensor) Cols() int {
	if t.data == nil {
		return 0
	}
	_, c := t.data.Dims()
	return c
}

// Row returns a view of candidate row i.  The returned slice must not be
// modified
func (t *Tensor) Row(i int) []float64 {
	return t.data.RawRowView(i)
}
