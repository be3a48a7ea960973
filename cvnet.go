package yolostream

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/overlaycv/yolostream/postprocess"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// CVNetwork runs a detector through OpenCV's DNN module
type CVNetwork struct {
	net gocv.Net
	// outputNames are the unconnected output layers, one per detection head
	outputNames []string
}

// NewCVNetwork loads the network files and sets the preferable backend and
// target.  A .cfg config file is read as Darknet, any other combination is
// handed to OpenCV to detect the framework from the file extensions
func NewCVNetwork(s NetworkSettings) (*CVNetwork, error) {

	var net gocv.Net

	if strings.EqualFold(filepath.Ext(s.Config), ".cfg") {
		net = gocv.ReadNetFromDarknet(s.Config, s.Weights)
	} else {
		net = gocv.ReadNet(s.Weights, s.Config)
	}

	if net.Empty() {
		return nil, fmt.Errorf("error loading network from %s", s.Weights)
	}

	backend, ok := cvBackends[s.Backend]

	if !ok {
		return nil, multierr.Append(fmt.Errorf("%w: %q", ErrUnknownBackend, s.Backend),
			net.Close())
	}

	target, ok := cvTargets[s.Target]

	if !ok {
		return nil, multierr.Append(fmt.Errorf("%w: target %q", ErrUnknownBackend, s.Target),
			net.Close())
	}

	if err := net.SetPreferableBackend(backend); err != nil {
		return nil, multierr.Append(fmt.Errorf("error setting backend: %w", err),
			net.Close())
	}

	if err := net.SetPreferableTarget(target); err != nil {
		return nil, multierr.Append(fmt.Errorf("error setting target: %w", err),
			net.Close())
	}

	names, err := outputLayerNames(&net)

	if err != nil {
		return nil, multierr.Append(err, net.Close())
	}

	return &CVNetwork{
		net:         net,
		outputNames: names,
	}, nil
}

// outputLayerNames resolves the names of the layers with unconnected outputs
func outputLayerNames(net *gocv.Net) ([]string, error) {

	layers := net.GetLayerNames()
	ids := net.GetUnconnectedOutLayers()

	if len(ids) == 0 {
		return nil, errors.New("network has no output layers")
	}

	names := make([]string, 0, len(ids))

	for _, id := range ids {
		// layer ids are 1 based
		if id < 1 || id > len(layers) {
			return nil, fmt.Errorf("output layer id %d out of range", id)
		}
		names = append(names, layers[id-1])
	}

	return names, nil
}

// OutputNames returns the names of the output layers read on each forward
// pass
func (n *CVNetwork) OutputNames() []string {
	return n.outputNames
}

// Forward runs the blob through the network and returns the raw tensor of
// every output head
func (n *CVNetwork) Forward(blob gocv.Mat) ([]*postprocess.Tensor, error) {

	n.net.SetInput(blob, "")

	outs := n.net.ForwardLayers(n.outputNames)

	defer func() {
		for _, out := range outs {
			out.Close()
		}
	}()

	tensors := make([]*postprocess.Tensor, 0, len(outs))

	for i, out := range outs {

		tensor, err := matToTensor(out)

		if err != nil {
			return nil, fmt.Errorf("output %s: %w", n.outputNames[i], err)
		}

		tensors = append(tensors, tensor)
	}

	return tensors, nil
}

// matToTensor copies a float32 output Mat into a Tensor.  The last
// dimension is the row width, any leading dimensions are collapsed into the
// row count
func matToTensor(m gocv.Mat) (*postprocess.Tensor, error) {

	if m.Empty() {
		return postprocess.NewTensor(0, postprocess.GeometryColumns+1, nil)
	}

	rows, cols, err := matDims(m.Size())

	if err != nil {
		return nil, err
	}

	data, err := m.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading output: %w", err)
	}

	return postprocess.NewTensor(rows, cols, data)
}

// matDims returns the row count and row width of an output of the given
// dimensions
func matDims(size []int) (int, int, error) {

	if len(size) < 2 {
		return 0, 0, fmt.Errorf("%w: output has %d dimensions",
			postprocess.ErrTensorShape, len(size))
	}

	rows := 1

	for _, d := range size[:len(size)-1] {
		rows *= d
	}

	return rows, size[len(size)-1], nil
}

// Close frees the network
func (n *CVNetwork) Close() error {
	return n.net.Close()
}
