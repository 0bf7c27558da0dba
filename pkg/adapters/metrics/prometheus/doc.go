// Package prometheus implements the greeter metrics port on top of an explicit
// Prometheus registry. The registry is created once at startup, shared with the
// scrape handler, and never touches the client library's global default.
package prometheus
