/*
Example showing real time object detection on a video stream with the
detections drawn onto each frame.  Frames are shown in a window or, when an
HTTP address is given, served as an MJPEG stream to a browser.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/overlaycv/yolostream"
	"github.com/overlaycv/yolostream/postprocess"
	"github.com/overlaycv/yolostream/preprocess"
	"github.com/overlaycv/yolostream/render"
	"github.com/sirupsen/logrus"
)

func main() {
	// disable logging timestamps until the configured logger is ready
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	// read in cli flags
	configFile := flag.String("c", "", "YAML configuration file, flags override its values")
	source := flag.String("v", "0", "Camera id, video file or stream URL to run object detection on")
	labelFile := flag.String("l", "coco.names", "Text file containing model labels")
	cfgFile := flag.String("g", "yolov3.cfg", "Darknet network configuration file")
	modelFile := flag.String("m", "yolov3.weights", "Network weights or ONNX model file")
	engine := flag.String("e", yolostream.EngineOpenCV, "Inference engine [opencv|onnxruntime]")
	backend := flag.String("b", "opencv", "OpenCV DNN backend [default|opencv|openvino|cuda|vulkan|halide]")
	target := flag.String("t", "cpu", "OpenCV DNN target [cpu|fp32|fp16|vpu|vulkan|fpga|cuda|cuda_fp16]")
	resampler := flag.String("r", preprocess.ResamplerOpenCV, "Resampler [opencv|bilinear|catmullrom|lanczos]")
	httpAddr := flag.String("a", "", "HTTP Address to serve the MJPEG stream on, format address:port")
	logLevel := flag.String("d", "info", "Log level [debug|info|warn|error]")

	flag.Parse()

	cfg := yolostream.DefaultConfig()

	if *configFile != "" {
		var err error

		if cfg, err = yolostream.LoadConfig(*configFile); err != nil {
			logrus.Fatalf("Error loading configuration: %v", err)
		}
	}

	// apply only the flags given on the command line
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Source = *source
		case "l":
			cfg.Labels = *labelFile
		case "g":
			cfg.Network.Config = *cfgFile
		case "m":
			cfg.Network.Weights = *modelFile
		case "e":
			cfg.Network.Engine = *engine
		case "b":
			cfg.Network.Backend = *backend
		case "t":
			cfg.Network.Target = *target
		case "r":
			cfg.Preprocess.Resampler = *resampler
		case "a":
			cfg.Display.Kind = yolostream.DisplayMJPEG
			cfg.Display.Addr = *httpAddr
		case "d":
			cfg.Log.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	log, closeLog, err := yolostream.NewLogger(cfg.Log)

	if err != nil {
		logrus.Fatalf("Error creating logger: %v", err)
	}

	defer closeLog()

	if len(cfg.CPUCores) > 0 {
		if err := yolostream.SetCPUAffinity(cfg.CPUCores); err != nil {
			log.Fatalf("Failed to set CPU Affinity: %v", err)
		}
	}

	labels, err := yolostream.LoadLabels(cfg.Labels)

	if err != nil {
		log.Fatalf("Error loading labels: %v", err)
	}

	net, err := yolostream.NewNetwork(cfg.Network)

	if err != nil {
		log.Fatalf("Error loading network: %v", err)
	}

	pre, err := preprocess.New(cfg.Preprocess.Resampler, cfg.Network.InputSize)

	if err != nil {
		log.Fatalf("Error creating preprocessor: %v", err)
	}

	src, err := yolostream.OpenCaptureSource(cfg.Source)

	if err != nil {
		log.Fatalf("Error opening source: %v", err)
	}

	var display yolostream.Display

	switch cfg.Display.Kind {
	case yolostream.DisplayMJPEG:
		mjpeg := yolostream.NewMJPEGDisplay(cfg.Display.Addr, cfg.Display.Quality, log)

		if err := mjpeg.Start(); err != nil {
			log.Fatalf("Error starting MJPEG server: %v", err)
		}

		display = mjpeg

	default:
		display = yolostream.NewWindowDisplay()
	}

	log.WithFields(logrus.Fields{
		"source":  cfg.Source,
		"engine":  cfg.Network.Engine,
		"weights": cfg.Network.Weights,
		"classes": len(labels),
		"display": cfg.Display.Kind,
	}).Info("Pipeline ready")

	loop := yolostream.NewStreamLoop(yolostream.Pipeline{
		Source:       src,
		Preprocessor: pre,
		Network:      net,
		Decoder:      postprocess.NewYOLOv3(cfg.Detection.Params()),
		Annotator:    render.NewAnnotator(labels, cfg.Render.Style()),
		Display:      display,
		Window:       cfg.Display.Window,
		Log:          log,
	})

	// stop cleanly on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	if err := loop.Run(ctx); err != nil {
		log.WithError(err).Error("Stream failed")
	}

	if err := loop.Close(); err != nil {
		log.WithError(err).Error("Error closing stream")
	}
}
