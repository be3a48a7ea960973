package yolostream

import (
	"errors"
	"fmt"
	"os"

	"github.com/overlaycv/yolostream/postprocess"
	"github.com/overlaycv/yolostream/preprocess"
	"github.com/overlaycv/yolostream/render"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// DisplayWindow shows frames in a native window
	DisplayWindow = "window"
	// DisplayMJPEG serves frames over HTTP
	DisplayMJPEG = "mjpeg"
)

// Config is the complete program configuration
type Config struct {
	// Source is a camera id, video file or stream URL
	Source string `yaml:"source"`
	// Labels is the class names file
	Labels     string           `yaml:"labels"`
	Network    NetworkSettings  `yaml:"network"`
	Detection  DetectionConfig  `yaml:"detection"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Display    DisplayConfig    `yaml:"display"`
	Render     RenderConfig     `yaml:"render"`
	Log        LogSettings      `yaml:"log"`
	// CPUCores pins the process to these core numbers when set
	CPUCores []int `yaml:"cpu_cores"`
}

// DetectionConfig holds the decode and suppression thresholds
type DetectionConfig struct {
	ConfThreshold  float32 `yaml:"conf_threshold"`
	ScoreThreshold float32 `yaml:"score_threshold"`
	NMSThreshold   float32 `yaml:"nms_threshold"`
}

// PreprocessConfig selects how frames are resized into the input blob
type PreprocessConfig struct {
	// Resampler is opencv, bilinear, catmullrom or lanczos
	Resampler string `yaml:"resampler"`
}

// DisplayConfig selects where annotated frames are presented
type DisplayConfig struct {
	// Kind is window or mjpeg
	Kind string `yaml:"kind"`
	// Window is the window title
	Window string `yaml:"window"`
	// Addr is the HTTP listen address of the mjpeg display
	Addr string `yaml:"addr"`
	// Quality is the JPEG quality of the mjpeg display
	Quality int `yaml:"quality"`
}

// RenderConfig controls how detections are drawn
type RenderConfig struct {
	Thickness   int     `yaml:"thickness"`
	FontScale   float64 `yaml:"font_scale"`
	ClassColors bool    `yaml:"class_colors"`
}

// DefaultConfig returns the configuration of a YOLOv3 Darknet model read
// from the working directory, run on the CPU against camera 0
func DefaultConfig() Config {
	params := postprocess.YOLOv3DefaultParams()

	return Config{
		Source: "0",
		Labels: "coco.names",
		Network: NetworkSettings{
			Engine:    EngineOpenCV,
			Backend:   "opencv",
			Target:    "cpu",
			Config:    "yolov3.cfg",
			Weights:   "yolov3.weights",
			InputSize: preprocess.DefaultInputSize,
		},
		Detection: DetectionConfig{
			ConfThreshold:  params.ConfThreshold,
			ScoreThreshold: params.ScoreThreshold,
			NMSThreshold:   params.NMSThreshold,
		},
		Preprocess: PreprocessConfig{
			Resampler: preprocess.ResamplerOpenCV,
		},
		Display: DisplayConfig{
			Kind:    DisplayWindow,
			Window:  "YOLO-Object Detection",
			Addr:    "localhost:8080",
			Quality: DefaultJPEGQuality,
		},
		Render: RenderConfig{
			Thickness: 3,
			FontScale: 0.5,
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// LoadConfig reads the YAML file over the defaults and validates the result
func LoadConfig(path string) (Config, error) {

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)

	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every section of the configuration
func (c Config) Validate() error {

	if c.Source == "" {
		return errors.New("no video source given")
	}

	if c.Labels == "" {
		return errors.New("no labels file given")
	}

	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("network: %w", err)
	}

	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}

	if _, err := preprocess.New(c.Preprocess.Resampler, c.Network.InputSize); err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}

	switch c.Display.Kind {
	case DisplayWindow:
		if c.Display.Window == "" {
			return errors.New("display: no window name given")
		}
	case DisplayMJPEG:
		if c.Display.Addr == "" {
			return errors.New("display: no listen address given")
		}
	default:
		return fmt.Errorf("display: unknown kind %q", c.Display.Kind)
	}

	if c.Render.Thickness <= 0 {
		return fmt.Errorf("render: thickness %d must be positive", c.Render.Thickness)
	}

	if c.Render.FontScale <= 0 {
		return fmt.Errorf("render: font scale %f must be positive", c.Render.FontScale)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	return nil
}

// Validate checks all thresholds lie within [0,1]
func (d DetectionConfig) Validate() error {

	thresholds := []struct {
		name  string
		value float32
	}{
		{"conf_threshold", d.ConfThreshold},
		{"score_threshold", d.ScoreThreshold},
		{"nms_threshold", d.NMSThreshold},
	}

	for _, th := range thresholds {
		if !(th.value >= 0 && th.value <= 1) {
			return fmt.Errorf("%s %f outside [0,1]", th.name, th.value)
		}
	}

	return nil
}

// Params returns the decoder parameters
func (d DetectionConfig) Params() postprocess.YOLOv3Params {
	return postprocess.YOLOv3Params{
		ConfThreshold:  d.ConfThreshold,
		ScoreThreshold: d.ScoreThreshold,
		NMSThreshold:   d.NMSThreshold,
	}
}

// Style returns the drawing style
func (r RenderConfig) Style() render.Style {

	style := render.DefaultStyle()
	style.Thickness = r.Thickness
	style.Font.Scale = r.FontScale
	style.ClassColors = r.ClassColors

	return style
}
