package shuttle

// State is a snapshot reported by the vehicle. Reports arrive solicited or
// not; the session keeps only the most recent one.
type State struct {
	Manual    bool
	EStopped  bool
	Locked    bool
	ErrorCode int

	// Task is the task the vehicle currently believes it is executing,
	// nil when idle.
	Task *TaskInfo

	Position int
	// Station is the station the vehicle is at, nil while between stations.
	Station *int

	Occupied  bool
	Walking   bool
	Loading   bool
	Unloading bool
}

// Idle reports whether the vehicle has no task and no activity in progress.
func (s *State) Idle() bool {
	return s.Task == nil && !s.Walking && !s.Loading && !s.Unloading
}
