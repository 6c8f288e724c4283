package main

import "sync"

// task mirrors the task object of the control protocol.
type task struct {
	Kind    string `json:"kind"`
	TaskNo  int    `json:"task_no"`
	Pallet  string `json:"pallet,omitempty"`
	Station int    `json:"station"`
}

// directive is one inbound command.
type directive struct {
	Directive string `json:"directive"`
	Task      *task  `json:"task,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// state is one outbound report.
type state struct {
	Manual    bool  `json:"manual"`
	EStopped  bool  `json:"estopped"`
	Locked    bool  `json:"locked"`
	ErrorCode int   `json:"error_code"`
	Task      *task `json:"task,omitempty"`
	Position  int   `json:"position"`
	Station   *int  `json:"station,omitempty"`
	Occupied  bool  `json:"occupied"`
	Walking   bool  `json:"walking"`
	Loading   bool  `json:"loading"`
	Unloading bool  `json:"unloading"`
}

// vehicle is a simulated single-position shuttle. Walks take walkTicks calls
// of tick to finish; loads and unloads finish in one tick.
type vehicle struct {
	mu        sync.Mutex
	manual    bool
	estopped  bool
	locked    bool
	errorCode int

	task      *task
	position  int
	atStation bool
	occupied  bool

	ticksLeft int
	walkTicks int
}

func newVehicle(startStation, walkTicks int) *vehicle {
	if walkTicks <= 0 {
		walkTicks = 3
	}
	return &vehicle{position: startStation, atStation: true, walkTicks: walkTicks}
}

// apply consumes a directive and returns the state report acknowledging it.
func (v *vehicle) apply(d directive) state {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch d.Directive {
	case "inquire":
		// Report only.
	case "send_task":
		if d.Task != nil && v.task == nil && !v.locked && !v.estopped {
			t := *d.Task
			v.task = &t
			switch t.Kind {
			case "walk":
				v.ticksLeft = v.walkTicks
				v.atStation = false
			default:
				v.ticksLeft = 1
			}
		}
	case "clear_task":
		v.task = nil
		v.ticksLeft = 0
		v.atStation = true
	case "lock":
		v.locked = true
	case "unlock":
		v.locked = false
	case "estop":
		v.estopped = true
		v.ticksLeft = 0
	}
	return v.snapshotLocked()
}

// tick advances the active task by one step and reports whether the state
// changed enough to warrant an unsolicited report.
func (v *vehicle) tick() (state, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.task == nil || v.estopped || v.ticksLeft == 0 {
		return state{}, false
	}
	v.ticksLeft--
	if v.ticksLeft > 0 {
		return v.snapshotLocked(), true
	}
	// Task finished.
	switch v.task.Kind {
	case "walk":
		v.position = v.task.Station
		v.atStation = true
		v.occupied = v.task.Pallet != ""
	case "load_left", "load_right":
		v.occupied = true
	case "unload_left", "unload_right":
		v.occupied = false
	}
	v.task = nil
	return v.snapshotLocked(), true
}

// snapshot reports the current state without advancing anything. Used for
// the idle heartbeat so the controller learns the vehicle status even when
// no task runs.
func (v *vehicle) snapshot() state {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *vehicle) snapshotLocked() state {
	st := state{
		Manual:    v.manual,
		EStopped:  v.estopped,
		Locked:    v.locked,
		ErrorCode: v.errorCode,
		Position:  v.position,
		Occupied:  v.occupied,
	}
	if v.task != nil {
		t := *v.task
		st.Task = &t
		switch t.Kind {
		case "walk":
			st.Walking = true
		case "load_left", "load_right":
			st.Loading = true
		case "unload_left", "unload_right":
			st.Unloading = true
		}
	}
	if v.atStation {
		pos := v.position
		st.Station = &pos
	}
	return st
}
