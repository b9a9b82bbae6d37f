// Package notifications pushes registration results to ntfy when a topic is
// configured. Without a topic the service is a noop, so callers never need to
// branch on whether notifications are enabled.
package notifications
