// Package http implements the dashboard's HTTP handlers. Handlers stay
// thin: they parse path and query parameters, call a service and render
// either a JSON envelope or an RFC 7807 problem.
//
// Successful responses share one envelope:
//
//	{"status": "success", "data": ..., "count": 3}
//
// Errors go through errors.ErrorHandler, which maps AppError and APIError
// values to problem details carrying the request ID as trace_id.
package http
