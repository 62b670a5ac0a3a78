package files

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
)

// StageWrite names output failures
const StageWrite = "export"

// Manager creates output files below a base directory
type Manager struct {
	fs       afero.Fs
	basePath string
	logger   *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(fsys afero.Fs, basePath string, logger *slog.Logger) *Manager {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{fs: fsys, basePath: basePath, logger: logger}
}

// Fs returns the underlying filesystem
func (m *Manager) Fs() afero.Fs { return m.fs }

// Resolve returns path joined to the base path unless it is absolute
func (m *Manager) Resolve(path string) string {
	if filepath.IsAbs(path) || m.basePath == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(m.basePath, path)
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	_, err := m.fs.Stat(m.Resolve(path))
	return err == nil
}

// Create truncates or creates the file at path, creating parent
// directories as needed.
func (m *Manager) Create(path string) (afero.File, string, error) {
	fullPath := m.Resolve(path)
	if m.FileExists(path) {
		m.logger.Debug("overwriting existing output", slog.String("path", fullPath))
	}
	if err := m.fs.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fullPath, apperrors.NewIOError(StageWrite, fullPath, err)
	}
	f, err := m.fs.OpenFile(fullPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fullPath, apperrors.NewIOError(StageWrite, fullPath, err)
	}

	m.logger.Debug("created output file", slog.String("path", fullPath))
	return f, fullPath, nil
}
