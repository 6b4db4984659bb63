// Package analytics records usage events without blocking callers. Events
// go through a bounded queue to a small worker pool that writes them to a
// sink; when the queue is full, events are dropped with a warning.
package analytics
