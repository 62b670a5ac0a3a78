package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// PipelineMetrics records per-stage and per-file outcomes. It satisfies both
// dataprocessing.StageObserver and batch.FileObserver.
type PipelineMetrics struct {
	StageExecutions metric.Int64Counter
	StageDuration   metric.Float64Histogram
	StageErrors     metric.Int64Counter

	FilesProcessed metric.Int64Counter
	FileFailures   metric.Int64Counter
	FileDuration   metric.Float64Histogram

	SamplesLoaded  metric.Int64Counter
	CyclesAveraged metric.Int64Counter
}

// NewPipelineMetrics registers the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	stageExecutions, err := meter.Int64Counter(
		"dilatometry_stage_executions_total",
		metric.WithDescription("Total number of pipeline stage executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("stage executions counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram(
		"dilatometry_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("stage duration histogram: %w", err)
	}

	stageErrors, err := meter.Int64Counter(
		"dilatometry_stage_errors_total",
		metric.WithDescription("Total number of failed pipeline stages by error kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("stage errors counter: %w", err)
	}

	filesProcessed, err := meter.Int64Counter(
		"dilatometry_files_processed_total",
		metric.WithDescription("Total number of measurement files processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("files processed counter: %w", err)
	}

	fileFailures, err := meter.Int64Counter(
		"dilatometry_file_failures_total",
		metric.WithDescription("Total number of measurement files that failed, by error kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("file failures counter: %w", err)
	}

	samplesLoaded, err := meter.Int64Counter(
		"dilatometry_samples_loaded_total",
		metric.WithDescription("Total number of samples read from measurement files"),
	)
	if err != nil {
		return nil, fmt.Errorf("samples loaded counter: %w", err)
	}

	cyclesAveraged, err := meter.Int64Counter(
		"dilatometry_cycles_averaged_total",
		metric.WithDescription("Total number of cycles that contributed to an average"),
	)
	if err != nil {
		return nil, fmt.Errorf("cycles averaged counter: %w", err)
	}

	fileDuration, err := meter.Float64Histogram(
		"dilatometry_file_duration_seconds",
		metric.WithDescription("End-to-end processing time of one measurement file"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("file duration histogram: %w", err)
	}

	return &PipelineMetrics{
		StageExecutions: stageExecutions,
		StageDuration:   stageDuration,
		StageErrors:     stageErrors,
		FilesProcessed:  filesProcessed,
		FileFailures:    fileFailures,
		FileDuration:    fileDuration,
		SamplesLoaded:   samplesLoaded,
		CyclesAveraged:  cyclesAveraged,
	}, nil
}

// ObserveStage records one stage execution
func (m *PipelineMetrics) ObserveStage(ctx context.Context, stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("stage", stage),
		statusAttr(err),
	}
	m.StageExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.StageDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))

	if err != nil {
		m.StageErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage),
			kindAttr(err),
		))
	}
}

// ObserveFile records one processed file. The label is left off the
// instruments to keep cardinality bounded.
func (m *PipelineMetrics) ObserveFile(ctx context.Context, _ string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(statusAttr(err))
	m.FilesProcessed.Add(ctx, 1, attrs)
	m.FileDuration.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		m.FileFailures.Add(ctx, 1, metric.WithAttributes(kindAttr(err)))
	}
}

// RecordProcessed counts the samples and averaged cycles of a finished file
func (m *PipelineMetrics) RecordProcessed(ctx context.Context, pf *domain.ProcessedFile) {
	if m == nil || pf == nil {
		return
	}
	if pf.Raw != nil {
		m.SamplesLoaded.Add(ctx, int64(pf.Raw.Len()))
	}
	if pf.Averaged != nil {
		m.CyclesAveraged.Add(ctx, int64(len(pf.Averaged.CyclesAveraged)))
	}
}

func kindAttr(err error) attribute.KeyValue {
	kind := apperrors.KindOf(err)
	if kind == "" {
		kind = "unknown"
	}
	return attribute.String("kind", string(kind))
}

func statusAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "failure")
	}
	return attribute.String("status", "success")
}
