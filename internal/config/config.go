package config

import (
	"os"
	"strconv"

	"github.com/LdDl/reframe-go/reframe"
	"github.com/pkg/errors"
)

type Config struct {
	OutputWidth   int
	OutputHeight  int
	Tolerance     float64
	MaxIterations int
	// "bottom-left" or "top-left", must match the detector
	Origin string
	// "any-axis" or "all-axes"
	Convergence   string
	Workers       int
	Smoothing     bool
	TrackerMinIoU float64
	// "hungarian" or "greedy"
	Matching string
	// "lanczos", "linear", "catmullrom", "box" or "nearest"
	Filter   string
	LogLevel string

	InputDir       string
	OutputDir      string
	DetectionsPath string
}

// Load reads configuration from environment
func Load() (*Config, error) {
	var err error
	cfg := &Config{
		Origin:         getEnv("REFRAME_ORIGIN", "bottom-left"),
		Convergence:    getEnv("REFRAME_CONVERGENCE", "any-axis"),
		Matching:       getEnv("REFRAME_MATCHING", "hungarian"),
		Filter:         getEnv("REFRAME_FILTER", "lanczos"),
		LogLevel:       getEnv("REFRAME_LOG_LEVEL", "info"),
		InputDir:       getEnv("REFRAME_INPUT_DIR", "./frames"),
		OutputDir:      getEnv("REFRAME_OUTPUT_DIR", "./reframed"),
		DetectionsPath: getEnv("REFRAME_DETECTIONS", "./detections.csv"),
	}
	if cfg.OutputWidth, err = getEnvInt("REFRAME_OUTPUT_WIDTH", 1080); err != nil {
		return nil, err
	}
	if cfg.OutputHeight, err = getEnvInt("REFRAME_OUTPUT_HEIGHT", 1920); err != nil {
		return nil, err
	}
	if cfg.Tolerance, err = getEnvFloat("REFRAME_TOLERANCE", reframe.DefaultTolerance); err != nil {
		return nil, err
	}
	if cfg.MaxIterations, err = getEnvInt("REFRAME_MAX_ITERATIONS", reframe.DefaultMaxIterations); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getEnvInt("REFRAME_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.Smoothing, err = getEnvBool("REFRAME_SMOOTHING", false); err != nil {
		return nil, err
	}
	if cfg.TrackerMinIoU, err = getEnvFloat("REFRAME_TRACKER_MIN_IOU", 0.3); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are usable
func (cfg *Config) Validate() error {
	if cfg.OutputWidth <= 0 || cfg.OutputHeight <= 0 {
		return errors.Errorf("output size must be positive, got %dx%d", cfg.OutputWidth, cfg.OutputHeight)
	}
	if cfg.Tolerance <= 0 {
		return errors.Errorf("tolerance must be positive, got %v", cfg.Tolerance)
	}
	if cfg.MaxIterations <= 0 {
		return errors.Errorf("max iterations must be positive, got %d", cfg.MaxIterations)
	}
	if cfg.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.TrackerMinIoU < 0 || cfg.TrackerMinIoU > 1 {
		return errors.Errorf("tracker min IoU must be in [0, 1], got %v", cfg.TrackerMinIoU)
	}
	if _, err := cfg.OriginConvention(); err != nil {
		return err
	}
	if _, err := cfg.MatchingAlgorithm(); err != nil {
		return err
	}
	if _, err := cfg.EngineOptions(); err != nil {
		return err
	}
	return nil
}

// OutputSize returns output frame size
func (cfg *Config) OutputSize() reframe.Size {
	return reframe.NewSize(float64(cfg.OutputWidth), float64(cfg.OutputHeight))
}

// OriginConvention returns parsed origin convention
func (cfg *Config) OriginConvention() (reframe.Origin, error) {
	origin, err := reframe.ParseOrigin(cfg.Origin)
	if err != nil {
		return origin, errors.Wrap(err, "Can't parse REFRAME_ORIGIN")
	}
	return origin, nil
}

// MatchingAlgorithm returns parsed matching algorithm of the association tracker
func (cfg *Config) MatchingAlgorithm() (reframe.MatchingAlgorithm, error) {
	switch cfg.Matching {
	case "hungarian":
		return reframe.MatchingAlgorithmHungarian, nil
	case "greedy":
		return reframe.MatchingAlgorithmGreedy, nil
	default:
		return reframe.MatchingAlgorithmHungarian, errors.Errorf("unknown matching algorithm: '%s'", cfg.Matching)
	}
}

// EngineOptions builds reframe.Options
func (cfg *Config) EngineOptions() (reframe.Options, error) {
	policy, err := reframe.ParseConvergencePolicy(cfg.Convergence)
	if err != nil {
		return reframe.Options{}, errors.Wrap(err, "Can't parse REFRAME_CONVERGENCE")
	}
	return reframe.Options{
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIterations,
		Policy:        policy,
	}, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.Wrapf(err, "Can't parse %s", key)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "Can't parse %s", key)
	}
	return parsed, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.Wrapf(err, "Can't parse %s", key)
	}
	return parsed, nil
}
