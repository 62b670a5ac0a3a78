package dataprocessing

import (
	"context"
	"time"

	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// Stage identifiers, used in errors, spans and metrics.
const (
	StageLoad      = "load"
	StageNormalize = "normalize"
	StageBaseline  = "baseline"
	StageAverage   = "average"
	StageDerive    = "derive"
)

// Baseline strategy names
const (
	StrategySpline     = "spline"
	StrategyPolynomial = "polynomial"
)

// Processor turns one measurement file into a ProcessedFile
type Processor interface {
	Process(ctx context.Context, meta domain.FileMetadata) (*domain.ProcessedFile, error)
}

// BaselineStrategy estimates a slowly varying baseline on a normalized table
// and returns the table with that baseline subtracted.
type BaselineStrategy interface {
	Name() string
	EstimateAndSubtract(ctx context.Context, table *domain.NormalizedTable) (*domain.CorrectedTable, error)
}

// StageObserver is notified after every pipeline stage
type StageObserver interface {
	ObserveStage(ctx context.Context, stage string, elapsed time.Duration, err error)
}

// LoaderOptions configures how instrument exports are read
type LoaderOptions struct {
	// DisplacementColumn names the analog input carrying the dilatometer
	// signal.
	DisplacementColumn string
}

// BaselineOptions configures the polynomial estimator
type BaselineOptions struct {
	PolynomialDegree int
	MaxIterations    int
	Tolerance        float64
}

// AverageOptions configures the cycle averager
type AverageOptions struct {
	// MinContributors drops trailing positions reached by fewer cycles.
	MinContributors int
}

// Options configures a Pipeline
type Options struct {
	RefThickness float64
	Strategy     string
	Loader       LoaderOptions
	Baseline     BaselineOptions
	Average      AverageOptions
}

// DefaultOptions returns default processing options
func DefaultOptions() Options {
	return Options{
		RefThickness: 1,
		Strategy:     StrategySpline,
		Loader:       DefaultLoaderOptions(),
		Baseline:     DefaultBaselineOptions(),
		Average:      DefaultAverageOptions(),
	}
}

// DefaultLoaderOptions returns the column layout of the potentiostat export
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{DisplacementColumn: domain.ColumnDisplacement}
}

// DefaultBaselineOptions mirrors the iterative polynomial defaults used in
// peak detection tooling: cubic, 100 iterations, 1e-3 relative tolerance.
func DefaultBaselineOptions() BaselineOptions {
	return BaselineOptions{
		PolynomialDegree: 3,
		MaxIterations:    100,
		Tolerance:        1e-3,
	}
}

// DefaultAverageOptions keeps every position reached by at least one cycle
func DefaultAverageOptions() AverageOptions {
	return AverageOptions{MinContributors: 1}
}
