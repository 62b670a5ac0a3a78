package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of pipeline spans
const TracerName = "github.com/tsmathis/Dilatometry-Analyst/internal/dataprocessing"

// Pipeline runs load, normalize, baseline, average and derive on one file.
// A Pipeline is safe for concurrent use; each call works on its own tables.
type Pipeline struct {
	fs       afero.Fs
	opts     Options
	strategy BaselineStrategy
	averager *Averager
	logger   *slog.Logger
	tracer   trace.Tracer
	observer StageObserver
}

// NewPipeline validates opts and builds the configured stages. observer may
// be nil.
func NewPipeline(fsys afero.Fs, opts Options, logger *slog.Logger, observer StageObserver) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	strategy, err := NewBaselineStrategy(opts.Strategy, opts.Baseline, logger)
	if err != nil {
		return nil, err
	}
	averager, err := NewAverager(opts.Average, logger)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		fs:       fsys,
		opts:     opts,
		strategy: strategy,
		averager: averager,
		logger:   logger,
		tracer:   otel.Tracer(TracerName),
		observer: observer,
	}, nil
}

// Process implements Processor. A file is processed to completion once
// started; ctx carries tracing and logging only.
func (p *Pipeline) Process(ctx context.Context, meta domain.FileMetadata) (*domain.ProcessedFile, error) {
	ctx, span := p.tracer.Start(ctx, "dataprocessing.process",
		trace.WithAttributes(
			attribute.String("file.label", meta.Label),
			attribute.String("file.path", meta.Path),
			attribute.String("baseline.strategy", p.strategy.Name()),
		))
	defer span.End()

	out := &domain.ProcessedFile{FileMetadata: meta}
	err := p.runStages(ctx, meta.Path, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.ErrorContext(ctx, "file processing failed",
			"label", meta.Label,
			"path", meta.Path,
			"kind", string(apperrors.KindOf(err)),
			"error", err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	p.logger.InfoContext(ctx, "file processed",
		"label", meta.Label,
		"samples", out.Raw.Len(),
		"cycles", len(out.Raw.Cycles),
		"averaged_length", out.Averaged.Len())
	return out, nil
}

func (p *Pipeline) runStages(ctx context.Context, path string, out *domain.ProcessedFile) error {
	stages := []struct {
		id  string
		run func(context.Context) error
	}{
		{StageLoad, func(context.Context) (err error) {
			out.Raw, err = Load(p.fs, path, p.opts.Loader)
			return err
		}},
		{StageNormalize, func(context.Context) (err error) {
			out.Normalized, err = Normalize(out.Raw, p.opts.RefThickness)
			return err
		}},
		{StageBaseline, func(ctx context.Context) (err error) {
			out.Corrected, err = RemoveBaseline(ctx, out.Normalized, p.strategy)
			return err
		}},
		{StageAverage, func(ctx context.Context) (err error) {
			out.Averaged, err = p.averager.Average(ctx, out.Corrected)
			return err
		}},
		{StageDerive, func(context.Context) (err error) {
			out.Averaged, err = DeriveRate(out.Averaged)
			return err
		}},
	}

	for _, st := range stages {
		if err := p.runStage(ctx, st.id, path, st.run); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, stage, path string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "dataprocessing."+stage,
		trace.WithAttributes(attribute.String("stage.id", stage)))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if p.observer != nil {
		p.observer.ObserveStage(ctx, stage, elapsed, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return apperrors.WithContext(err, stage, path)
	}

	p.logger.DebugContext(ctx, "stage completed", "stage", stage, "path", path, "duration_ms", elapsed.Milliseconds())
	return nil
}
