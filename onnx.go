package yolostream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/overlaycv/yolostream/postprocess"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// ONNXSettings configures a network run through ONNX Runtime
type ONNXSettings struct {
	// Library is the path to the onnxruntime shared library
	Library string `yaml:"library"`
	// Input is the name of the image input of the graph
	Input string `yaml:"input"`
	// Outputs describes each detection head of the graph
	Outputs []ONNXOutput `yaml:"outputs"`
	// Threads sets the intra op thread count, 0 leaves the runtime default
	Threads int `yaml:"threads"`
}

// ONNXOutput describes a single output of the graph.  The last dimension of
// Shape is the row width, all others are multiplied into the row count
type ONNXOutput struct {
	Name  string  `yaml:"name"`
	Shape []int64 `yaml:"shape"`
	// FP16 marks outputs holding half precision floats
	FP16 bool `yaml:"fp16"`
}

// Validate checks the graph description is usable
func (s ONNXSettings) Validate() error {

	if s.Input == "" {
		return errors.New("no ONNX input name given")
	}

	if len(s.Outputs) == 0 {
		return errors.New("no ONNX outputs given")
	}

	for _, out := range s.Outputs {
		if _, _, err := out.dims(); err != nil {
			return err
		}
	}

	return nil
}

// dims returns the row count and row width of the output
func (o ONNXOutput) dims() (int, int, error) {

	if o.Name == "" {
		return 0, 0, errors.New("ONNX output has no name")
	}

	if len(o.Shape) < 2 {
		return 0, 0, fmt.Errorf("%w: output %s needs at least 2 dimensions",
			postprocess.ErrTensorShape, o.Name)
	}

	rows := int64(1)

	for _, d := range o.Shape[:len(o.Shape)-1] {
		if d <= 0 {
			return 0, 0, fmt.Errorf("%w: output %s has dimension %d",
				postprocess.ErrTensorShape, o.Name, d)
		}
		rows *= d
	}

	cols := o.Shape[len(o.Shape)-1]

	if cols <= postprocess.GeometryColumns {
		return 0, 0, fmt.Errorf("%w: output %s has %d columns",
			postprocess.ErrTensorShape, o.Name, cols)
	}

	return int(rows), int(cols), nil
}

var (
	ortOnce sync.Once
	ortErr  error
)

// initONNXRuntime loads the shared library and creates the runtime
// environment, only the first call has any effect
func initONNXRuntime(library string) error {

	ortOnce.Do(func() {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		ortErr = ort.InitializeEnvironment()
	})

	return ortErr
}

// onnxOutput binds an output description to its runtime tensor
type onnxOutput struct {
	spec ONNXOutput
	rows int
	cols int
	f32  *ort.Tensor[float32]
	f16  *ort.CustomDataTensor
}

// tensor converts the values of the last run into a postprocess.Tensor
func (o *onnxOutput) tensor() (*postprocess.Tensor, error) {

	if o.f32 != nil {
		return postprocess.NewTensor(o.rows, o.cols, o.f32.GetData())
	}

	raw := o.f16.GetData()
	halves := make([]uint16, len(raw)/2)

	for i := range halves {
		halves[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}

	return postprocess.NewTensorFromFloat16(o.rows, o.cols, halves)
}

func (o *onnxOutput) value() ort.ArbitraryTensor {
	if o.f32 != nil {
		return o.f32
	}
	return o.f16
}

func (o *onnxOutput) destroy() error {
	if o.f32 != nil {
		return o.f32.Destroy()
	}
	if o.f16 != nil {
		return o.f16.Destroy()
	}
	return nil
}

// ONNXNetwork runs a detector exported to ONNX through ONNX Runtime
type ONNXNetwork struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	outputs []*onnxOutput
}

// NewONNXNetwork creates the runtime session with preallocated input and
// output tensors
func NewONNXNetwork(s NetworkSettings) (*ONNXNetwork, error) {

	if err := s.ONNX.Validate(); err != nil {
		return nil, err
	}

	if err := initONNXRuntime(s.ONNX.Library); err != nil {
		return nil, fmt.Errorf("error initializing onnxruntime: %w", err)
	}

	n := &ONNXNetwork{}

	size := int64(s.InputSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))

	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	n.input = input

	names := make([]string, 0, len(s.ONNX.Outputs))
	values := make([]ort.ArbitraryTensor, 0, len(s.ONNX.Outputs))

	for _, spec := range s.ONNX.Outputs {

		out, err := newONNXOutput(spec)

		if err != nil {
			return nil, multierr.Append(err, n.Close())
		}

		n.outputs = append(n.outputs, out)
		names = append(names, spec.Name)
		values = append(values, out.value())
	}

	options, err := ort.NewSessionOptions()

	if err != nil {
		return nil, multierr.Append(
			fmt.Errorf("error creating session options: %w", err), n.Close())
	}

	defer options.Destroy()

	if s.ONNX.Threads > 0 {
		if err := options.SetIntraOpNumThreads(s.ONNX.Threads); err != nil {
			return nil, multierr.Append(
				fmt.Errorf("error setting threads: %w", err), n.Close())
		}
	}

	session, err := ort.NewAdvancedSession(
		s.Weights,
		[]string{s.ONNX.Input},
		names,
		[]ort.ArbitraryTensor{n.input},
		values,
		options,
	)

	if err != nil {
		return nil, multierr.Append(
			fmt.Errorf("error creating session: %w", err), n.Close())
	}

	n.session = session

	return n, nil
}

func newONNXOutput(spec ONNXOutput) (*onnxOutput, error) {

	rows, cols, err := spec.dims()

	if err != nil {
		return nil, err
	}

	out := &onnxOutput{
		spec: spec,
		rows: rows,
		cols: cols,
	}

	shape := ort.NewShape(spec.Shape...)

	if spec.FP16 {
		out.f16, err = ort.NewCustomDataTensor(shape, make([]byte, rows*cols*2),
			ort.TensorElementDataTypeFloat16)
	} else {
		out.f32, err = ort.NewEmptyTensor[float32](shape)
	}

	if err != nil {
		return nil, fmt.Errorf("error creating output tensor %s: %w", spec.Name, err)
	}

	return out, nil
}

// Forward copies the blob into the input tensor, runs the session and
// converts every output
func (n *ONNXNetwork) Forward(blob gocv.Mat) ([]*postprocess.Tensor, error) {

	data, err := blob.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading blob: %w", err)
	}

	dst := n.input.GetData()

	if len(data) != len(dst) {
		return nil, fmt.Errorf("blob has %d values, input expects %d",
			len(data), len(dst))
	}

	copy(dst, data)

	if err := n.session.Run(); err != nil {
		return nil, fmt.Errorf("error running session: %w", err)
	}

	tensors := make([]*postprocess.Tensor, 0, len(n.outputs))

	for _, out := range n.outputs {

		tensor, err := out.tensor()

		if err != nil {
			return nil, fmt.Errorf("output %s: %w", out.spec.Name, err)
		}

		tensors = append(tensors, tensor)
	}

	return tensors, nil
}

// Close destroys the session and all tensors
func (n *ONNXNetwork) Close() error {

	var err error

	if n.session != nil {
		err = multierr.Append(err, n.session.Destroy())
	}

	if n.input != nil {
		err = multierr.Append(err, n.input.Destroy())
	}

	for _, out := range n.outputs {
		err = multierr.Append(err, out.destroy())
	}

	return err
}
