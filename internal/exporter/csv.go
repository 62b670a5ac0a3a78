package exporter

import (
	"encoding/csv"
	"log/slog"
	"path/filepath"
	"strings"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/internal/files"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(manager *files.Manager, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{files: manager, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options and returns
// the resolved path.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	file, fullPath, err := w.files.Create(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w.logger.Info("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return "", apperrors.NewIOError(StageExport, fullPath, err)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return "", apperrors.NewIOError(StageExport, fullPath, err)
		}
	}
	if err := writer.WriteAll(options.Records); err != nil {
		return "", apperrors.NewIOError(StageExport, fullPath, err)
	}
	if err := file.Close(); err != nil {
		return "", apperrors.NewIOError(StageExport, fullPath, err)
	}
	return fullPath, nil
}

// WriteColumns writes named columns side by side. Shorter columns leave
// trailing cells empty.
func (w *CSVWriter) WriteColumns(filePath string, cols []domain.Column) (string, error) {
	headers := make([]string, len(cols))
	rows := 0
	for i, c := range cols {
		headers[i] = c.Name
		if len(c.Values) > rows {
			rows = len(c.Values)
		}
	}

	records := make([][]string, rows)
	for r := range records {
		record := make([]string, len(cols))
		for i, c := range cols {
			if r < len(c.Values) {
				record[i] = formatFloat(c.Values[r])
			}
		}
		records[r] = record
	}

	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// ExportAveraged writes one <label>_Averaged_data.csv per processed file
// into dir.
func (w *CSVWriter) ExportAveraged(processed []*domain.ProcessedFile, dir string) ([]string, error) {
	if len(processed) == 0 {
		return nil, apperrors.NewInsufficientDataError(StageExport, "no processed files to export")
	}

	labels := make([]string, len(processed))
	for i, pf := range processed {
		labels[i] = pf.Label
	}
	names := SheetNames(labels)

	paths := make([]string, 0, len(processed))
	for i, pf := range processed {
		name := strings.ReplaceAll(names[i], " ", "_") + AveragedSuffix + ".csv"
		path, err := w.WriteColumns(filepath.Join(dir, name), pf.Averaged.Columns())
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
