package shuttle

// IsAck reports whether the reported state acknowledges the directive. Each
// directive kind defines how its own success shows up in a later state:
// a sent task is acknowledged when the vehicle reports executing it, a clear
// when no task remains, lock/unlock/estop when the matching flag flips.
// A nil state acknowledges nothing.
func IsAck(d Directive, s *State) bool {
	if s == nil {
		return false
	}
	switch d.Kind {
	case DirectiveInquire:
		return true
	case DirectiveSendTask:
		return d.Task != nil && s.Task != nil && s.Task.TaskNo == d.Task.TaskNo
	case DirectiveClearTask:
		return s.Task == nil
	case DirectiveLock:
		return s.Locked
	case DirectiveUnlock:
		return !s.Locked
	case DirectiveEStop:
		return s.EStopped
	default:
		return false
	}
}
