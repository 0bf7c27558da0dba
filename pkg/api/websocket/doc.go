// Package websocket provides the live greeting feed.
package websocket
