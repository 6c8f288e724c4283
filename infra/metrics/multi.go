package metrics

import coremetrics "github.com/kilianp07/wcs/core/metrics"

// MultiSink fans warehouse events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTaskEvent forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordTaskEvent(ev coremetrics.TaskEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordTaskEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordAllocation forwards allocation events to sinks that support them.
func (m *MultiSink) RecordAllocation(ev coremetrics.AllocationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.AllocationRecorder); ok {
			if err := rec.RecordAllocation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDeviceEvent forwards device events to sinks that support them.
func (m *MultiSink) RecordDeviceEvent(ev coremetrics.DeviceEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.DeviceRecorder); ok {
			if err := rec.RecordDeviceEvent(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
