// Package monitor logs greeter load at a fixed interval and warns when the
// number of greetings waiting out their delay crosses a threshold.
package monitor
