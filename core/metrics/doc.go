// Package metrics defines the sink interfaces used to record task,
// allocation and device events. Sinks like InfluxSink record events to a
// time-series store and can be combined with NewMultiSink; Prometheus
// counters live next to the code that increments them.
package metrics
