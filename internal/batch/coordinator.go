package batch

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tsmathis/Dilatometry-Analyst/internal/dataprocessing"
	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/internal/files"
	"github.com/tsmathis/Dilatometry-Analyst/internal/infrastructure"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

const tracerName = "github.com/tsmathis/Dilatometry-Analyst/internal/batch"

// Options configures a Coordinator
type Options struct {
	// Workers bounds how many files are processed at once. Zero means
	// GOMAXPROCS.
	Workers int
	// BestEffort records failing files and carries on instead of aborting.
	BestEffort bool
	// Pattern selects files in RunDir.
	Pattern string
	// Experiment and Device are stamped on inputs found by RunDir.
	Experiment domain.ExperimentType
	Device     domain.DeviceType
}

// FileObserver is notified once per finished file
type FileObserver interface {
	ObserveFile(ctx context.Context, label string, elapsed time.Duration, err error)
}

// Report is the outcome of a batch run
type Report struct {
	RunID    string
	Session  *dataprocessing.Session
	States   []*FileState
	Failures FailureList
}

// Succeeded returns the number of processed files
func (r *Report) Succeeded() int {
	if r.Session == nil {
		return 0
	}
	return r.Session.Len()
}

// Failed returns the number of failed files
func (r *Report) Failed() int {
	return len(r.Failures.Errors)
}

// Coordinator runs a Processor over many files with bounded parallelism.
// Results are reported in input order regardless of completion order.
type Coordinator struct {
	processor dataprocessing.Processor
	discovery *files.Discovery
	opts      Options
	logger    *slog.Logger
	observer  FileObserver
	tracer    trace.Tracer
}

// NewCoordinator creates a batch coordinator. discovery is only needed by
// RunDir and observer may be nil.
func NewCoordinator(p dataprocessing.Processor, discovery *files.Discovery, opts Options, logger *slog.Logger, observer FileObserver) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		processor: p,
		discovery: discovery,
		opts:      opts,
		logger:    logger,
		observer:  observer,
		tracer:    otel.Tracer(tracerName),
	}
}

// RunDir processes every matching file in dir, labelled by file stem.
func (c *Coordinator) RunDir(ctx context.Context, dir string) (*Report, error) {
	if c.discovery == nil {
		return nil, apperrors.NewValueError(files.StageDiscover, "coordinator has no file discovery configured")
	}
	found, err := c.discovery.FindMeasurementFiles(dir, c.opts.Pattern)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		err := apperrors.NewInsufficientDataError(files.StageDiscover, "no files matching %q", c.pattern())
		err.File = dir
		return nil, err
	}

	inputs := make([]domain.FileMetadata, len(found))
	for i, f := range found {
		inputs[i] = domain.FileMetadata{
			Label:      f.Stem(),
			Path:       f.Path,
			Experiment: c.opts.Experiment,
			Device:     c.opts.Device,
		}
	}
	return c.Run(ctx, inputs)
}

func (c *Coordinator) pattern() string {
	if c.opts.Pattern == "" {
		return files.DefaultPattern
	}
	return c.opts.Pattern
}

// Run processes inputs. In best-effort mode failing files are listed in the
// report and the error is nil unless ctx was cancelled; otherwise the first
// failure stops files that have not started yet and is returned as a
// *FileError. Cancellation is honoured between files, never inside one.
func (c *Coordinator) Run(ctx context.Context, inputs []domain.FileMetadata) (*Report, error) {
	if err := validateLabels(inputs); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	ctx, span := c.tracer.Start(ctx, "batch.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("batch.files", len(inputs)),
			attribute.Int("batch.workers", c.opts.Workers),
			attribute.Bool("batch.best_effort", c.opts.BestEffort),
		))
	defer span.End()

	ctx = infrastructure.WithRunID(ctx, runID)
	logger := c.logger
	logger.InfoContext(ctx, "batch started",
		"files", len(inputs),
		"workers", c.opts.Workers,
		"best_effort", c.opts.BestEffort)

	states := make([]*FileState, len(inputs))
	for i, in := range inputs {
		states[i] = NewFileState(i, in.Label, in.Path)
	}
	results := make([]*domain.ProcessedFile, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, in := range inputs {
		state := states[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				state.Skip("batch stopped before this file started")
				return nil
			}

			state.Start()
			pf, err := c.processor.Process(gctx, in)
			if err != nil {
				ferr := &FileError{Index: i, Label: in.Label, Path: in.Path, Err: err}
				state.Fail(ferr)
				c.observeFile(gctx, state, err)
				logger.WarnContext(gctx, "file failed",
					"index", i,
					"label", in.Label,
					"kind", string(apperrors.KindOf(err)),
					"duration_ms", state.Duration().Milliseconds(),
					"error", err)
				if c.opts.BestEffort {
					return nil
				}
				return ferr
			}

			results[i] = pf
			state.Complete()
			c.observeFile(gctx, state, nil)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	report := &Report{RunID: runID, Session: dataprocessing.NewSession(), States: states}
	for i, st := range states {
		switch st.CurrentStatus() {
		case FileStatusCompleted:
			if addErr := report.Session.Add(results[i]); addErr != nil {
				return report, addErr
			}
		case FileStatusFailed:
			report.Failures.Add(st.Error.(*FileError))
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "batch aborted",
			"succeeded", report.Succeeded(),
			"failed", report.Failed(),
			"error", err)
		return report, err
	}

	span.SetStatus(codes.Ok, "")
	logger.InfoContext(ctx, "batch completed",
		"succeeded", report.Succeeded(),
		"failed", report.Failed())
	return report, nil
}

func (c *Coordinator) observeFile(ctx context.Context, state *FileState, err error) {
	if c.observer != nil {
		c.observer.ObserveFile(ctx, state.Label, state.Duration(), err)
	}
}

func validateLabels(inputs []domain.FileMetadata) error {
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if in.Label == "" {
			return apperrors.NewValueError("batch", "file %q has an empty label", in.Path)
		}
		if seen[in.Label] {
			return apperrors.NewValueError("batch", "duplicate file label %q", in.Label)
		}
		seen[in.Label] = true
	}
	return nil
}
