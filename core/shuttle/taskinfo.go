package shuttle

import "fmt"

// TaskKind enumerates the shuttle task variants. Convey variants split by
// side because the vehicle carries one pallet and transfers it sideways.
type TaskKind int

const (
	// TaskWalk moves the shuttle to a station, optionally carrying a pallet.
	TaskWalk TaskKind = iota
	TaskLoadLeft
	TaskLoadRight
	TaskUnloadLeft
	TaskUnloadRight
)

func (k TaskKind) String() string {
	switch k {
	case TaskWalk:
		return "walk"
	case TaskLoadLeft:
		return "load_left"
	case TaskLoadRight:
		return "load_right"
	case TaskUnloadLeft:
		return "unload_left"
	case TaskUnloadRight:
		return "unload_right"
	default:
		return "unknown"
	}
}

// TaskInfo describes one task executed by the shuttle, tagged with the
// number used for acknowledgment correlation. Convey variants always carry a
// pallet code and station; a walk may carry a pallet or travel empty.
type TaskInfo struct {
	Kind    TaskKind
	TaskNo  int
	Pallet  string
	Station int
}

// Walk builds a walk task to the given station. Pallet may be empty.
func Walk(taskNo, station int, pallet string) TaskInfo {
	return TaskInfo{Kind: TaskWalk, TaskNo: taskNo, Station: station, Pallet: pallet}
}

// LoadLeft builds a left-side load task.
func LoadLeft(taskNo int, pallet string, station int) TaskInfo {
	return TaskInfo{Kind: TaskLoadLeft, TaskNo: taskNo, Pallet: pallet, Station: station}
}

// LoadRight builds a right-side load task.
func LoadRight(taskNo int, pallet string, station int) TaskInfo {
	return TaskInfo{Kind: TaskLoadRight, TaskNo: taskNo, Pallet: pallet, Station: station}
}

// UnloadLeft builds a left-side unload task.
func UnloadLeft(taskNo int, pallet string, station int) TaskInfo {
	return TaskInfo{Kind: TaskUnloadLeft, TaskNo: taskNo, Pallet: pallet, Station: station}
}

// UnloadRight builds a right-side unload task.
func UnloadRight(taskNo int, pallet string, station int) TaskInfo {
	return TaskInfo{Kind: TaskUnloadRight, TaskNo: taskNo, Pallet: pallet, Station: station}
}

// Convey reports whether the task is a load or unload variant.
func (t TaskInfo) Convey() bool { return t.Kind != TaskWalk }

func (t TaskInfo) String() string {
	return fmt.Sprintf("%s#%d station=%d pallet=%q", t.Kind, t.TaskNo, t.Station, t.Pallet)
}
