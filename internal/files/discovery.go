package files

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
)

// DefaultPattern matches potentiostat text exports
const DefaultPattern = "*.txt"

// StageDiscover names discovery failures
const StageDiscover = "discover"

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Stem returns the file name without directory and extension.
func (f FileInfo) Stem() string {
	return Stem(f.Name)
}

// Discovery provides file discovery operations
type Discovery struct {
	fs       afero.Fs
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// are resolved against basePath.
func NewDiscovery(fsys afero.Fs, basePath string) *Discovery {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Discovery{fs: fsys, basePath: basePath}
}

// FindMeasurementFiles returns the regular files in dir whose name matches
// pattern (case-insensitive), sorted by name.
func (d *Discovery) FindMeasurementFiles(dir, pattern string) ([]FileInfo, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, "probe"); err != nil {
		return nil, apperrors.NewValueError(StageDiscover, "invalid file pattern %q: %v", pattern, err)
	}

	fullPath := d.resolve(dir)
	entries, err := afero.ReadDir(d.fs, fullPath)
	if err != nil {
		return nil, apperrors.NewIOError(StageDiscover, fullPath, err)
	}

	lowerPattern := strings.ToLower(pattern)
	var found []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if ok, _ := filepath.Match(lowerPattern, strings.ToLower(name)); !ok {
			continue
		}
		found = append(found, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})
	return found, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// Stem returns name without directory and extension.
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
