package metrics

import "time"

// TaskEvent records one lifecycle step of a transport task.
type TaskEvent struct {
	TaskCode string
	TaskType string
	Pallet   string
	Start    string
	End      string
	Phase    string // created, completed, cancelled
	Time     time.Time
}

// AllocationEvent records one allocation attempt against a lane.
type AllocationEvent struct {
	Lane      string
	Allocated bool
	Slot      string
	Time      time.Time
}

// DeviceEvent records a directive send or state reception on a session.
type DeviceEvent struct {
	Shuttle   string
	Direction string // sent, received
	Detail    string
	Time      time.Time
}

// MetricsSink records task events for observability purposes.
type MetricsSink interface {
	RecordTaskEvent(ev TaskEvent) error
}

// AllocationRecorder records allocation attempts.
type AllocationRecorder interface {
	RecordAllocation(ev AllocationEvent) error
}

// DeviceRecorder records device traffic events.
type DeviceRecorder interface {
	RecordDeviceEvent(ev DeviceEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTaskEvent(TaskEvent) error        { return nil }
func (NopSink) RecordAllocation(AllocationEvent) error { return nil }
func (NopSink) RecordDeviceEvent(DeviceEvent) error    { return nil }
