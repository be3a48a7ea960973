package yolostream

import (
	"errors"
	"fmt"

	"github.com/overlaycv/yolostream/postprocess"
	"gocv.io/x/gocv"
)

const (
	// EngineOpenCV runs the network through OpenCV's DNN module
	EngineOpenCV = "opencv"
	// EngineONNX runs the network through ONNX Runtime
	EngineONNX = "onnxruntime"
)

// ErrUnknownBackend is returned for an unsupported engine, backend or target
var ErrUnknownBackend = errors.New("unknown backend")

// Network is a detector that maps an input blob to one raw output tensor per
// output head
type Network interface {
	Forward(blob gocv.Mat) ([]*postprocess.Tensor, error)
	Close() error
}

// NetworkSettings selects and configures the detector network
type NetworkSettings struct {
	// Engine is the inference runtime, opencv or onnxruntime
	Engine string `yaml:"engine"`
	// Backend is the OpenCV DNN computation backend
	Backend string `yaml:"backend"`
	// Target is the OpenCV DNN target device
	Target string `yaml:"target"`
	// Config is the network description file, eg: yolov3.cfg.  Not used
	// for formats holding the graph in the weights file
	Config string `yaml:"config"`
	// Weights is the trained model file
	Weights string `yaml:"weights"`
	// InputSize is the square input dimension of the network
	InputSize int `yaml:"input_size"`
	// ONNX holds the ONNX Runtime settings
	ONNX ONNXSettings `yaml:"onnx"`
}

// cvBackends maps backend names to OpenCV DNN backends
var cvBackends = map[string]gocv.NetBackendType{
	"default":  gocv.NetBackendDefault,
	"halide":   gocv.NetBackendHalide,
	"openvino": gocv.NetBackendOpenVINO,
	"opencv":   gocv.NetBackendOpenCV,
	"vulkan":   gocv.NetBackendVKCOM,
	"cuda":     gocv.NetBackendCUDA,
}

// cvTargets maps target names to OpenCV DNN targets
var cvTargets = map[string]gocv.NetTargetType{
	"cpu":       gocv.NetTargetCPU,
	"fp32":      gocv.NetTargetFP32,
	"fp16":      gocv.NetTargetFP16,
	"vpu":       gocv.NetTargetVPU,
	"vulkan":    gocv.NetTargetVulkan,
	"fpga":      gocv.NetTargetFPGA,
	"cuda":      gocv.NetTargetCUDA,
	"cuda_fp16": gocv.NetTargetCUDAFP16,
}

// Validate checks the settings name a known engine and, for OpenCV, a known
// backend and target
func (s NetworkSettings) Validate() error {

	if s.Weights == "" {
		return errors.New("no network weights given")
	}

	if s.InputSize <= 0 || s.InputSize%32 != 0 {
		return fmt.Errorf("input size %d must be a positive multiple of 32",
			s.InputSize)
	}

	switch s.Engine {
	case EngineOpenCV:
		if _, ok := cvBackends[s.Backend]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownBackend, s.Backend)
		}
		if _, ok := cvTargets[s.Target]; !ok {
			return fmt.Errorf("%w: target %q", ErrUnknownBackend, s.Target)
		}

	case EngineONNX:
		return s.ONNX.Validate()

	default:
		return fmt.Errorf("%w: engine %q", ErrUnknownBackend, s.Engine)
	}

	return nil
}

// NewNetwork loads the network described by the settings
func NewNetwork(s NetworkSettings) (Network, error) {

	if err := s.Validate(); err != nil {
		return nil, err
	}

	if s.Engine == EngineONNX {
		return NewONNXNetwork(s)
	}

	return NewCVNetwork(s)
}
