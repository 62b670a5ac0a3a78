// Package exporter writes processed measurement files to disk.
//
// WorkbookExporter produces three .xlsx workbooks per session (normalized
// data, data minus baseline, averaged data) with one sheet per file. Sheet
// names are derived from file labels with the characters Excel rejects
// removed.
//
// CSVWriter writes plain CSV with an optional UTF-8 BOM so spreadsheet
// applications detect the encoding; ExportAveraged writes one file per
// processed measurement.
//
// Example usage:
//
//	manager := files.NewManager(afero.NewOsFs(), "results", logger)
//	paths, err := exporter.NewWorkbookExporter(manager, logger).Export(session.Files(), ".", "cell_A")
package exporter
