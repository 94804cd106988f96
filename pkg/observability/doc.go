// Package observability provides structured logging, Prometheus metrics, and
// panic recovery for the request pipeline.
//
// Logging is JSON via log/slog with chainable field helpers:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("client", ident).Warn("request blocked")
//
// Metrics cover the security subsystem: shield verdicts, login lockouts,
// impersonation grants, and HTTP request totals. Register them once per
// process and serve them through promhttp on the main router.
package observability
