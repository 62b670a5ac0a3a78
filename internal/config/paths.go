package config

import (
	"path/filepath"

	"github.com/spf13/afero"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
)

// Paths contains the resolved locations the application writes to
type Paths struct {
	BaseDir   string
	OutputDir string
	LogFile   string
}

// ResolvePaths resolves relative configured paths against baseDir
func (c *Config) ResolvePaths(baseDir string) *Paths {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) || baseDir == "" {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	return &Paths{
		BaseDir:   baseDir,
		OutputDir: resolve(c.Export.OutputDir),
		LogFile:   resolve(c.Logging.FilePath),
	}
}

// EnsureDirectories creates the output directory and, when logging to a
// file, the log directory.
func (p *Paths) EnsureDirectories(fsys afero.Fs, withLogDir bool) error {
	dirs := []string{p.OutputDir}
	if withLogDir && p.LogFile != "" {
		dirs = append(dirs, filepath.Dir(p.LogFile))
	}
	for _, dir := range dirs {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewIOError("config", dir, err)
		}
	}
	return nil
}
