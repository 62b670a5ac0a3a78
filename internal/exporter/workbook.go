package exporter

import (
	"log/slog"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/internal/files"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// StageExport names export failures
const StageExport = "export"

// Workbook suffixes, appended to the session name.
const (
	NormalizedSuffix = "_Normalized_data"
	CorrectedSuffix  = "_Data_minus_baseline"
	AveragedSuffix   = "_Averaged_data"
)

// WorkbookPaths lists the workbooks written by Export
type WorkbookPaths struct {
	Normalized string `json:"normalized"`
	Corrected  string `json:"corrected"`
	Averaged   string `json:"averaged"`
}

// WorkbookExporter writes processed files into three .xlsx workbooks, one
// sheet per file.
type WorkbookExporter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter(manager *files.Manager, logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{files: manager, logger: logger}
}

// Export writes <name>_Normalized_data.xlsx, <name>_Data_minus_baseline.xlsx
// and <name>_Averaged_data.xlsx into dir.
func (w *WorkbookExporter) Export(processed []*domain.ProcessedFile, dir, name string) (WorkbookPaths, error) {
	var paths WorkbookPaths
	if len(processed) == 0 {
		return paths, apperrors.NewInsufficientDataError(StageExport, "no processed files to export")
	}

	labels := make([]string, len(processed))
	for i, pf := range processed {
		labels[i] = pf.Label
	}
	sheets := SheetNames(labels)

	books := []struct {
		suffix string
		dst    *string
		table  func(*domain.ProcessedFile) []domain.Column
	}{
		{NormalizedSuffix, &paths.Normalized, func(pf *domain.ProcessedFile) []domain.Column { return pf.Normalized.Columns() }},
		{CorrectedSuffix, &paths.Corrected, func(pf *domain.ProcessedFile) []domain.Column { return pf.Corrected.Columns() }},
		{AveragedSuffix, &paths.Averaged, func(pf *domain.ProcessedFile) []domain.Column { return pf.Averaged.Columns() }},
	}
	for _, b := range books {
		tables := make([][]domain.Column, len(processed))
		for i, pf := range processed {
			tables[i] = b.table(pf)
		}
		path, err := w.writeWorkbook(filepath.Join(dir, name+b.suffix+".xlsx"), sheets, tables)
		if err != nil {
			return paths, err
		}
		*b.dst = path
	}
	return paths, nil
}

func (w *WorkbookExporter) writeWorkbook(path string, sheets []string, tables [][]domain.Column) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return "", apperrors.NewIOError(StageExport, path, err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return "", apperrors.NewIOError(StageExport, path, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return "", apperrors.NewIOError(StageExport, path, err)
		}
		if err := writeSheet(f, sheet, tables[i], header); err != nil {
			return "", apperrors.NewIOError(StageExport, path, err)
		}
	}

	out, fullPath, err := w.files.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := f.WriteTo(out); err != nil {
		return "", apperrors.NewIOError(StageExport, fullPath, err)
	}
	if err := out.Close(); err != nil {
		return "", apperrors.NewIOError(StageExport, fullPath, err)
	}

	w.logger.Info("workbook written",
		slog.String("path", fullPath),
		slog.Int("sheets", len(sheets)))
	return fullPath, nil
}

// writeSheet streams cols into sheet; shorter columns leave trailing cells
// empty.
func writeSheet(f *excelize.File, sheet string, cols []domain.Column, headerStyle int) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	for i := range cols {
		if err := sw.SetColWidth(i+1, i+1, 16); err != nil {
			return err
		}
	}

	header := make([]interface{}, len(cols))
	rows := 0
	for i, c := range cols {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: c.Name}
		if len(c.Values) > rows {
			rows = len(c.Values)
		}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r := 0; r < rows; r++ {
		row := make([]interface{}, len(cols))
		for i, c := range cols {
			if r < len(c.Values) {
				row[i] = cellValue(c.Values[r])
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}
