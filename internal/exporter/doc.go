// Package exporter writes pipeline outputs to disk.
//
// CSVWriter persists the cleaned tables (data/cleaned/cleaned_<table>.csv)
// and the master datasets (data/feature_engineered/<name>.csv). Data files
// are written without a BOM so the loader can read them back.
//
// ReportWriter handles the analyze step outputs: a markdown report and an
// xlsx chart workbook per analyzer, plus the executive PDF summary.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths, logger)
//	files, err := w.WriteDatasets(exporter.MasterDatasets(result))
//
//	rw := exporter.NewReportWriter(paths, logger)
//	written, err := rw.WriteAll(ctx, outcomes, time.Now())
package exporter
