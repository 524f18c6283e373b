// Package cleaning turns the raw Olist tables into an analysis-ready set.
//
// The Cleaner works in a fixed order: missing values, duplicates, category
// translation, derived order and product fields, and finally a foreign key
// report. Every change is recorded in an AuditLog which can be rendered as
// the plain-text cleaning report. Absent tables are skipped, never treated
// as errors.
//
// Cleaning is idempotent: running the Cleaner over its own output records
// no further imputations or removals.
package cleaning
