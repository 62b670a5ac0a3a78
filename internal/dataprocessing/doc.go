// Package dataprocessing turns potentiostat text exports with a dilatometer
// channel into baseline-corrected, cycle-averaged displacement curves.
//
// # Architecture
//
// Each file flows through five stages:
//
//  1. Load: parse the tab-delimited export into a domain.RawTable
//  2. Normalize: reference displacement to the first sample, in um and %
//  3. Baseline: remove instrument drift (spline through cycle maxima, or
//     iterative polynomial)
//  4. Average: mean and spread over the interior cycles
//  5. Derive: d(displacement)/dt and d(charge)/dt of the averaged cycle
//
// # Usage
//
//	p, err := dataprocessing.NewPipeline(afero.NewOsFs(), dataprocessing.DefaultOptions(), logger, nil)
//	if err != nil {
//	    return err
//	}
//	pf, err := p.Process(ctx, domain.FileMetadata{Label: "run1", Path: "run1.txt"})
//
// Every stage is also exported on its own (Load, Normalize, RemoveBaseline,
// Averager.Average, DeriveRate) for callers that need intermediate tables.
//
// # Error Handling
//
// Failures are *errors.PipelineError values tagged with the stage and file;
// use errors.Is against errors.ErrSchema, errors.ErrValue, errors.ErrIO or
// errors.ErrInsufficientData to branch on the category.
package dataprocessing
