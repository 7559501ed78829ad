// Package metrics records build and stage metrics.
//
// Components receive a Recorder. NoopRecorder is the default; a
// PrometheusRecorder is injected when metrics.textfile is configured, and its
// values are written after each build with WriteTextfile so node_exporter's
// textfile collector can scrape batch builds.
package metrics
