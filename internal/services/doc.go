// Package services holds the read-only logic behind the dashboard API.
//
// DatasetService lists the master datasets under the feature_engineered
// directory, pages through their rows and combines them with the last run
// manifest into an overview. Parsed CSVs are kept in a TTL cache keyed by
// dataset name; cache hits and misses are counted on the pipeline metrics.
//
// Errors are returned as errors.AppError values so the HTTP layer can map
// them to RFC 7807 problems:
//
//	page, err := svc.Page(ctx, "customer_analytics", 100, 0)
//	if errors.Is(err, services.ErrDatasetMissing) {
//	    // the features step has not run yet
//	}
package services
