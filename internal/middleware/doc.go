// Package middleware provides the HTTP middleware chain of the index server.
//
// It includes:
//   - Access logging in W3C Extended Log Format, with an X-Request-ID on every response
//   - Prometheus request metrics labelled by mux route template
//   - gzip compression of JSON and text responses above a size threshold
//
// Health probes can be excluded from the access log with LOG_HEALTH_CHECKS=false.
package middleware
