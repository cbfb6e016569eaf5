package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LdDl/reframe-go/internal/config"
	"github.com/LdDl/reframe-go/pipeline"
	"github.com/LdDl/reframe-go/reframe"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Can't load configuration")
	}

	flag.StringVar(&cfg.InputDir, "input", cfg.InputDir, "directory with source frames")
	flag.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "directory for reframed frames")
	flag.StringVar(&cfg.DetectionsPath, "detections", cfg.DetectionsPath, "CSV file with per-frame detections")
	flag.IntVar(&cfg.OutputWidth, "width", cfg.OutputWidth, "output frame width")
	flag.IntVar(&cfg.OutputHeight, "height", cfg.OutputHeight, "output frame height")
	flag.Float64Var(&cfg.Tolerance, "tolerance", cfg.Tolerance, "centering tolerance in output pixels")
	flag.IntVar(&cfg.MaxIterations, "max-iterations", cfg.MaxIterations, "iteration cap of the centering loop")
	flag.StringVar(&cfg.Origin, "origin", cfg.Origin, "origin of detection boxes: bottom-left or top-left")
	flag.StringVar(&cfg.Convergence, "convergence", cfg.Convergence, "stop rule: any-axis or all-axes")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of render workers")
	flag.BoolVar(&cfg.Smoothing, "smoothing", cfg.Smoothing, "smooth subject box with Kalman filter")
	flag.Float64Var(&cfg.TrackerMinIoU, "min-iou", cfg.TrackerMinIoU, "minimum IoU to keep following the subject")
	flag.StringVar(&cfg.Matching, "matching", cfg.Matching, "association algorithm: hungarian or greedy")
	flag.StringVar(&cfg.Filter, "filter", cfg.Filter, "resampling filter: lanczos, linear, catmullrom, box or nearest")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flag.Parse()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("Bad log level")
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Bad configuration")
	}
	origin, err := cfg.OriginConvention()
	if err != nil {
		logrus.WithError(err).Fatal("Bad origin")
	}
	matching, err := cfg.MatchingAlgorithm()
	if err != nil {
		logrus.WithError(err).Fatal("Bad matching algorithm")
	}
	engineOptions, err := cfg.EngineOptions()
	if err != nil {
		logrus.WithError(err).Fatal("Bad engine options")
	}
	filter, err := pipeline.ParseFilter(cfg.Filter)
	if err != nil {
		logrus.WithError(err).Fatal("Bad filter")
	}

	detector, err := pipeline.NewCSVDetector(cfg.DetectionsPath, origin)
	if err != nil {
		logrus.WithError(err).Fatal("Can't load detections")
	}
	source, err := pipeline.NewDirSource(cfg.InputDir)
	if err != nil {
		logrus.WithError(err).Fatal("Can't open source")
	}
	sink, err := pipeline.NewDirSink(cfg.OutputDir)
	if err != nil {
		logrus.WithError(err).Fatal("Can't open sink")
	}

	tracker := reframe.NewAssociationTracker(detector, cfg.TrackerMinIoU, matching)
	var locatorOptions []reframe.LocatorOption
	if cfg.Smoothing {
		locatorOptions = append(locatorOptions, reframe.WithSmoother(reframe.NewSmoother()))
	}
	locator := reframe.NewLocator(detector, tracker, locatorOptions...)
	engine := reframe.NewEngine(engineOptions)
	p := pipeline.NewPipeline(locator, engine, pipeline.NewRenderer(filter), cfg.OutputSize(), cfg.Workers)

	logrus.WithFields(logrus.Fields{
		"input":            cfg.InputDir,
		"output":           cfg.OutputDir,
		"frames":           source.Len(),
		"frames_with_dets": detector.Frames(),
		"output_size":      cfg.OutputSize(),
		"convergence":      engineOptions.Policy.String(),
		"workers":          cfg.Workers,
	}).Info("Reframing started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := time.Now()
	err = p.Run(ctx, source, sink)
	fields := logrus.Fields{
		"elapsed": time.Since(st).String(),
	}
	for name, value := range p.Counters().Snapshot() {
		fields[name] = value
	}
	if err != nil {
		logrus.WithFields(fields).WithError(err).Error("Reframing failed")
		os.Exit(1)
	}
	logrus.WithFields(fields).Info("Reframing done")
}
