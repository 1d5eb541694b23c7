// Package handlers provides the HTTP handlers of the volume index API.
//
// Endpoints:
//   - GET /api/disks: mounted volumes with capacity and well-known folders.
//     The first call loads the snapshot or builds the index.
//   - GET /api/search?name=N[&volume=V]: exact-name lookup on one volume or all
//   - GET /api/directory?path=P: immediate children of a directory
//   - GET /api/stats: per-volume counts, service state and last walk reports
//   - GET /health, /livez, /readyz, /version
//
// Errors are returned as {"error": "..."} with a 4xx or 5xx status.
package handlers
