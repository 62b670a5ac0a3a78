// Package files locates measurement files and creates output files.
//
// Discovery lists the potentiostat exports of a directory in name order so a
// batch is processed deterministically. Manager resolves output paths
// against a base directory and creates their parents. Both work on an
// afero.Fs so tests run against an in-memory filesystem.
package files
