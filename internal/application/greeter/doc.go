// Package greeter implements the /hello behaviour.
//
// Each greeting samples an artificial delay (uniform over [30ms, 1030ms) by
// default), waits it out on the request's own goroutine, then:
//   - counts the request and records its latency through the metrics port
//   - publishes a greeting.served event when an event bus is configured
//
// No state is kept between requests apart from monotonic counters.
package greeter
