// Package metrics exposes pipeline activity as Prometheus metrics. A Metrics
// value is a pipeline observer; attach it with pipeline.WithObserver and
// serve Handler on the health server.
package metrics
