// Package shuttle models the command and state protocol of a single-position
// shuttle vehicle: outbound directives, inbound state reports, response
// correlation and the preconditions gating every send.
package shuttle

import "fmt"

// DirectiveKind enumerates the commands understood by the shuttle.
type DirectiveKind int

const (
	// DirectiveInquire requests a state report.
	DirectiveInquire DirectiveKind = iota
	// DirectiveSendTask hands a task to the vehicle.
	DirectiveSendTask
	// DirectiveClearTask removes the vehicle's current task.
	DirectiveClearTask
	// DirectiveLock prevents the vehicle from accepting tasks.
	DirectiveLock
	// DirectiveUnlock releases a lock.
	DirectiveUnlock
	// DirectiveEStop triggers an emergency stop.
	DirectiveEStop
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveInquire:
		return "inquire"
	case DirectiveSendTask:
		return "send_task"
	case DirectiveClearTask:
		return "clear_task"
	case DirectiveLock:
		return "lock"
	case DirectiveUnlock:
		return "unlock"
	case DirectiveEStop:
		return "estop"
	default:
		return "unknown"
	}
}

// Directive is one command to the vehicle. Task is set only for SendTask.
type Directive struct {
	Kind DirectiveKind
	Task *TaskInfo
}

// Inquire builds a state-report request.
func Inquire() Directive { return Directive{Kind: DirectiveInquire} }

// SendTask builds a directive carrying the given task.
func SendTask(info TaskInfo) Directive { return Directive{Kind: DirectiveSendTask, Task: &info} }

// ClearTask builds a directive removing the vehicle's current task.
func ClearTask() Directive { return Directive{Kind: DirectiveClearTask} }

// Lock builds a lock directive.
func Lock() Directive { return Directive{Kind: DirectiveLock} }

// Unlock builds an unlock directive.
func Unlock() Directive { return Directive{Kind: DirectiveUnlock} }

// EStop builds an emergency-stop directive.
func EStop() Directive { return Directive{Kind: DirectiveEStop} }

func (d Directive) String() string {
	if d.Kind == DirectiveSendTask && d.Task != nil {
		return fmt.Sprintf("send_task(%s)", d.Task)
	}
	return d.Kind.String()
}
