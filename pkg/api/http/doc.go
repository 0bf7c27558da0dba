// Package http provides the HTTP API implementation.
//
// The HTTP server exposes endpoints for:
//   - The greeting (GET /hello)
//   - Health checks (/health, /actuator/health)
//   - Prometheus metrics (/metrics, /actuator/prometheus)
//   - The live greeting feed over WebSocket, when one is attached
package http
