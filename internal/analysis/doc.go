// Package analysis turns the master datasets into the four domain reports:
// market expansion, customer analytics, seasonal intelligence and payment
// operations. Each Analyzer returns a typed Report that can render itself
// as markdown and describe its charts; the exporter package turns those
// into files.
package analysis
