package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/tsmathis/Dilatometry-Analyst/internal/config"
	"github.com/tsmathis/Dilatometry-Analyst/internal/dataprocessing"
	"github.com/tsmathis/Dilatometry-Analyst/internal/exporter"
	"github.com/tsmathis/Dilatometry-Analyst/internal/files"
	"github.com/tsmathis/Dilatometry-Analyst/internal/infrastructure"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// globalOptions holds the flags shared by every processing command
type globalOptions struct {
	configPath      string
	thickness       float64
	strategy        string
	minContributors int
	experiment      string
	device          string
	out             string
	name            string
	format          string
	logLevel        string
	traceFile       string
	metricsFile     string
}

func (o *globalOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "", "Path to a YAML config file (default: "+config.ConfigFileName+" if present)")
	fs.Float64VarP(&o.thickness, "thickness", "t", config.DefaultRefThickness, "Reference electrode thickness used for normalization")
	fs.StringVar(&o.strategy, "strategy", config.DefaultStrategy, "Baseline strategy: spline or polynomial")
	fs.IntVar(&o.minContributors, "min-contributors", config.DefaultMinContributors, "Drop trailing averaged points reached by fewer cycles")
	fs.StringVar(&o.experiment, "type", "", "Experiment type recorded with the results: CV or CCCD")
	fs.StringVar(&o.device, "device", "", "Device type recorded with the results: SuperCap or Battery")
	fs.StringVarP(&o.out, "out", "o", config.DefaultOutputDir, "Output directory")
	fs.StringVar(&o.name, "name", "", "Base name of the exported workbooks")
	fs.StringVar(&o.format, "format", config.DefaultExportFormat, "Export format: xlsx, csv, both or none")
	fs.StringVar(&o.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&o.traceFile, "trace-file", "", "Write spans as JSON to this file")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "Write metrics in prometheus text format to this file")
}

// apply overlays the flags the user actually set onto cfg
func (o *globalOptions) apply(cfg *config.Config, fs *pflag.FlagSet) {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("thickness", func() { cfg.Processing.RefThickness = o.thickness })
	set("strategy", func() { cfg.Processing.Strategy = strings.ToLower(o.strategy) })
	set("min-contributors", func() { cfg.Processing.MinContributors = o.minContributors })
	set("type", func() { cfg.Batch.Experiment = strings.ToUpper(o.experiment) })
	set("device", func() { cfg.Batch.Device = o.device })
	set("out", func() { cfg.Export.OutputDir = o.out })
	set("name", func() { cfg.Export.Name = o.name })
	set("format", func() { cfg.Export.Format = strings.ToLower(o.format) })
	set("log-level", func() { cfg.Logging.Level = strings.ToLower(o.logLevel) })
	set("trace-file", func() { cfg.Telemetry.TraceFile = o.traceFile })
	set("metrics-file", func() { cfg.Telemetry.MetricsFile = o.metricsFile })
}

// app carries everything a command needs once flags are parsed
type app struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer

	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	providers *infrastructure.OTelProviders
	metrics   *infrastructure.PipelineMetrics
	trace     io.Closer
}

// setup loads configuration and starts logging and telemetry
func (a *app) setup(opts *globalOptions, flags *pflag.FlagSet) error {
	path := opts.configPath
	if path == "" {
		path = config.FindConfigFile(a.fs)
	}
	cfg, err := config.Load(a.fs, path)
	if err != nil {
		return err
	}
	opts.apply(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.paths = cfg.ResolvePaths("")

	logger, err := infrastructure.InitializeLogger(cfg.Logging, a.fs, a.stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = infrastructure.WithComponent(logger, "cli")

	traceWriter, err := infrastructure.OpenTraceFile(a.fs, cfg.Telemetry.TraceFile)
	if err != nil {
		return err
	}
	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.ServiceName = cfg.Telemetry.ServiceName
	if traceWriter != nil {
		otelCfg.TraceWriter = traceWriter
		a.trace = traceWriter
	}
	a.providers, err = infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return err
	}
	a.metrics, err = infrastructure.NewPipelineMetrics(a.providers.Meter)
	if err != nil {
		return err
	}

	a.logger.Debug("configuration loaded",
		"config_file", path,
		"version", contracts.Version,
		"strategy", cfg.Processing.Strategy,
		"ref_thickness", cfg.Processing.RefThickness)
	return nil
}

// teardown flushes telemetry; errors are logged, never returned
func (a *app) teardown() {
	if a.providers != nil {
		if path := a.cfg.Telemetry.MetricsFile; path != "" {
			if err := a.providers.WriteMetricsTextfile(path); err != nil {
				infrastructure.WithError(a.logger, err).Warn("failed to write metrics", "path", path)
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.providers.Shutdown(ctx); err != nil {
			infrastructure.WithError(a.logger, err).Warn("telemetry shutdown failed")
		}
		cancel()
	}
	if a.trace != nil {
		_ = a.trace.Close()
	}
	_ = infrastructure.CloseLogFile()
}

// pipelineOptions converts the processing section of the configuration
func (a *app) pipelineOptions() dataprocessing.Options {
	p := a.cfg.Processing
	opts := dataprocessing.DefaultOptions()
	opts.RefThickness = p.RefThickness
	opts.Strategy = p.Strategy
	opts.Loader.DisplacementColumn = p.DisplacementColumn
	opts.Baseline.PolynomialDegree = p.PolynomialDegree
	opts.Baseline.MaxIterations = p.MaxIterations
	opts.Baseline.Tolerance = p.Tolerance
	opts.Average.MinContributors = p.MinContributors
	return opts
}

func (a *app) pipeline() (*dataprocessing.Pipeline, error) {
	return dataprocessing.NewPipeline(a.fs, a.pipelineOptions(), a.logger, a.metrics)
}

// export writes the processed files in the configured format and prints
// the created paths
func (a *app) export(processed []*domain.ProcessedFile, name string) error {
	if a.cfg.Export.Format == "none" || len(processed) == 0 {
		return nil
	}
	if a.cfg.Export.Name != "" {
		name = a.cfg.Export.Name
	}

	if err := a.paths.EnsureDirectories(a.fs, false); err != nil {
		return err
	}
	manager := files.NewManager(a.fs, "", a.logger)
	dir := a.paths.OutputDir

	var written []string
	format := a.cfg.Export.Format
	if format == "xlsx" || format == "both" {
		paths, err := exporter.NewWorkbookExporter(manager, a.logger).Export(processed, dir, name)
		if err != nil {
			return err
		}
		written = append(written, paths.Normalized, paths.Corrected, paths.Averaged)
	}
	if format == "csv" || format == "both" {
		paths, err := exporter.NewCSVWriter(manager, a.logger).ExportAveraged(processed, dir)
		if err != nil {
			return err
		}
		written = append(written, paths...)
	}

	for _, p := range written {
		fmt.Fprintf(a.stdout, "wrote %s\n", p)
	}
	return nil
}

// summarize prints one line per processed file
func (a *app) summarize(processed []*domain.ProcessedFile) {
	for _, pf := range processed {
		a.metrics.RecordProcessed(context.Background(), pf)
		avg := pf.Averaged
		fmt.Fprintf(a.stdout, "%s: %d samples, %d cycles, strategy %s (order %d), averaged cycles %v over %d points\n",
			pf.Label, pf.Raw.Len(), len(pf.Raw.Cycles), pf.Corrected.Strategy, pf.Corrected.FitOrder,
			avg.CyclesAveraged, avg.Len())
	}
}

// defaultName derives an export name from the inputs
func defaultName(processed []*domain.ProcessedFile, dir string) string {
	if dir != "" {
		if base := filepath.Base(filepath.Clean(dir)); base != "." && base != string(filepath.Separator) {
			return base
		}
	}
	if len(processed) == 1 {
		return strings.ReplaceAll(exporter.SanitizeSheetName(processed[0].Label), " ", "_")
	}
	return config.DefaultServiceName
}
