package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Batch      BatchConfig      `yaml:"batch" envconfig:"BATCH"`
	Export     ExportConfig     `yaml:"export" envconfig:"EXPORT"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ProcessingConfig controls the per-file pipeline
type ProcessingConfig struct {
	RefThickness       float64 `yaml:"ref_thickness" envconfig:"REF_THICKNESS" validate:"ne=0"`
	Strategy           string  `yaml:"strategy" envconfig:"STRATEGY" validate:"oneof=spline polynomial"`
	DisplacementColumn string  `yaml:"displacement_column" envconfig:"DISPLACEMENT_COLUMN" validate:"required"`
	PolynomialDegree   int     `yaml:"polynomial_degree" envconfig:"POLYNOMIAL_DEGREE" validate:"min=0,max=10"`
	MaxIterations      int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" validate:"min=1"`
	Tolerance          float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gt=0"`
	MinContributors    int     `yaml:"min_contributors" envconfig:"MIN_CONTRIBUTORS" validate:"min=1"`
}

// BatchConfig controls multi-file runs
type BatchConfig struct {
	Workers    int    `yaml:"workers" envconfig:"WORKERS" validate:"min=0,max=256"`
	BestEffort bool   `yaml:"best_effort" envconfig:"BEST_EFFORT"`
	Pattern    string `yaml:"pattern" envconfig:"PATTERN" validate:"required"`
	Experiment string `yaml:"experiment" envconfig:"EXPERIMENT" validate:"omitempty,oneof=CV CCCD"`
	Device     string `yaml:"device" envconfig:"DEVICE" validate:"omitempty,oneof=SuperCap Battery"`
}

// ExportConfig controls where and how results are written
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	Name      string `yaml:"name" envconfig:"NAME"`
	Format    string `yaml:"format" envconfig:"FORMAT" validate:"oneof=xlsx csv both none"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig controls trace and metric dumps
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceFile   string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then DILATOMETRY_* environment variables.
// The result is validated.
func Load(fsys afero.Fs, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(fsys, path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewValueError("config", "failed to load config from env: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(fsys afero.Fs, path string, cfg *Config) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return apperrors.NewIOError("config", path, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		pe := apperrors.NewValueError("config", "invalid config file: %v", err)
		pe.File = path
		return pe
	}
	return nil
}

// FindConfigFile returns the first config file present in the usual
// locations, or "" when there is none.
func FindConfigFile(fsys afero.Fs) string {
	locations := []string{
		ConfigFileName,
		"configs/" + ConfigFileName,
	}
	for _, location := range locations {
		if ok, _ := afero.Exists(fsys, location); ok {
			return location
		}
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use YAML names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field constraint
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValueError("config", "config validation failed: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", field, fe.Tag(), fe.Value()))
	}
	return apperrors.NewValueError("config", "config validation failed: %s", strings.Join(msgs, "; "))
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Processing: ProcessingConfig{
			RefThickness:       DefaultRefThickness,
			Strategy:           DefaultStrategy,
			DisplacementColumn: DefaultDisplacementColumn,
			PolynomialDegree:   DefaultPolynomialDegree,
			MaxIterations:      DefaultMaxIterations,
			Tolerance:          DefaultTolerance,
			MinContributors:    DefaultMinContributors,
		},
		Batch: BatchConfig{
			Pattern: DefaultFilePattern,
		},
		Export: ExportConfig{
			OutputDir: DefaultOutputDir,
			Format:    DefaultExportFormat,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServiceName,
		},
	}
}
