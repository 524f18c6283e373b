// Package shared is the home of helpers used across the pipeline packages.
//
// The testutil subpackage provides a deterministic sample of the Olist
// tables, helpers that write those tables as raw CSV files, and an
// in-memory slog handler for asserting on log output:
//
//	func TestLoad(t *testing.T) {
//	    dir := t.TempDir()
//	    testutil.WriteRawCSV(t, dir, testutil.SampleTables())
//	    logger, logs := testutil.NewCaptureLogger()
//	    ...
//	}
//
// testutil depends on internal/dataset only, so any package other than
// dataset itself can import it from internal tests.
package shared
