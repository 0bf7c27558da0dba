// Package events provides event bus implementations for the greeting feed.
//
// Implementations:
//   - memory: in-process fan-out (default)
//   - redis: Redis Streams, shared between service replicas
package events
