package shuttle

import "strings"

// BlockReason is a bitmask of preconditions preventing a directive send.
// The zero value means the directive may be sent.
type BlockReason uint16

const (
	// BlockNotConnected is set while no connection to the device exists.
	BlockNotConnected BlockReason = 1 << iota
	// BlockAwaitingAck is set while a previous directive has not been
	// acknowledged yet.
	BlockAwaitingAck
	// BlockStatusUnknown is set until a first state report has been received.
	BlockStatusUnknown
	// BlockManualMode is set while the device is in manual mode.
	BlockManualMode
	// BlockEStopped is set while the device reports an emergency stop.
	BlockEStopped
	// BlockTaskCompleted is set when the task to send has already been
	// completed, preventing duplicate dispatch.
	BlockTaskCompleted
	// BlockActiveTask is set when the device already executes a task.
	BlockActiveTask
	// BlockDeviceError is set while the device reports a nonzero error code.
	BlockDeviceError
)

// MaySend reports whether no blocking precondition is set.
func (r BlockReason) MaySend() bool { return r == 0 }

// Has reports whether the given bit is set.
func (r BlockReason) Has(bit BlockReason) bool { return r&bit != 0 }

var reasonText = []struct {
	bit  BlockReason
	text string
}{
	{BlockNotConnected, "not connected to device"},
	{BlockAwaitingAck, "previous directive awaiting acknowledgment"},
	{BlockStatusUnknown, "device status unknown"},
	{BlockManualMode, "device in manual mode"},
	{BlockEStopped, "device emergency-stopped"},
	{BlockTaskCompleted, "task already completed"},
	{BlockActiveTask, "device already has an active task"},
	{BlockDeviceError, "device reports an error code"},
}

// Reasons returns a human-readable description for every set bit.
func (r BlockReason) Reasons() []string {
	var out []string
	for _, rt := range reasonText {
		if r.Has(rt.bit) {
			out = append(out, rt.text)
		}
	}
	return out
}

// SendBlockedError enumerates the preconditions that refused a send.
type SendBlockedError struct {
	Directive Directive
	Reason    BlockReason
}

func (e *SendBlockedError) Error() string {
	return "shuttle: cannot send " + e.Directive.String() + ": " + strings.Join(e.Reason.Reasons(), "; ")
}
