// Package batch runs the per-file pipeline over a set of measurement files.
//
// A Coordinator fans files out to a bounded pool of workers and gathers the
// processed files into a dataprocessing.Session in input order. In
// best-effort mode a failing file is recorded in the Report and the others
// carry on; otherwise the first failure is returned as a *FileError naming
// the file, and files that have not started are skipped.
package batch
