package events

import "github.com/kilianp07/wcs/core/model"

// Event names fired by the orchestrator.
const (
	EventRequestReceived = "request.received"
	EventTaskCreated     = "task.created"
	EventTaskCompleted   = "task.completed"
	EventTaskCancelled   = "task.cancelled"
)

// RequestReceived is fired when a movement request passes validation.
type RequestReceived struct {
	LocationCode string
	PalletCode   string
	Height       float64
	Weight       float64
}

// TaskCreated is fired after a transport task has been persisted.
type TaskCreated struct {
	Task *model.TransportTask
}

// TaskCompleted is fired when a task reaches its terminal completed state.
type TaskCompleted struct {
	Task *model.ArchivedTransportTask
}

// TaskCancelled is fired when a task is cancelled and archived.
type TaskCancelled struct {
	Task *model.ArchivedTransportTask
}
