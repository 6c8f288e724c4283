package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/kilianp07/wcs/core/shuttle"
)

// wireTask is the JSON shape of a shuttle task on the wire.
type wireTask struct {
	Kind    string `json:"kind"`
	TaskNo  int    `json:"task_no"`
	Pallet  string `json:"pallet,omitempty"`
	Station int    `json:"station"`
}

// wireDirective is the JSON shape of one command to the vehicle.
type wireDirective struct {
	Directive string    `json:"directive"`
	Task      *wireTask `json:"task,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// wireState is the JSON shape of a state report from the vehicle.
type wireState struct {
	Manual    bool      `json:"manual"`
	EStopped  bool      `json:"estopped"`
	Locked    bool      `json:"locked"`
	ErrorCode int       `json:"error_code"`
	Task      *wireTask `json:"task,omitempty"`
	Position  int       `json:"position"`
	Station   *int      `json:"station,omitempty"`
	Occupied  bool      `json:"occupied"`
	Walking   bool      `json:"walking"`
	Loading   bool      `json:"loading"`
	Unloading bool      `json:"unloading"`
}

var taskKindNames = map[shuttle.TaskKind]string{
	shuttle.TaskWalk:        "walk",
	shuttle.TaskLoadLeft:    "load_left",
	shuttle.TaskLoadRight:   "load_right",
	shuttle.TaskUnloadLeft:  "unload_left",
	shuttle.TaskUnloadRight: "unload_right",
}

func parseTaskKind(s string) (shuttle.TaskKind, error) {
	for k, name := range taskKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown task kind %q", s)
}

func toWireTask(t *shuttle.TaskInfo) *wireTask {
	if t == nil {
		return nil
	}
	return &wireTask{
		Kind:    taskKindNames[t.Kind],
		TaskNo:  t.TaskNo,
		Pallet:  t.Pallet,
		Station: t.Station,
	}
}

func fromWireTask(w *wireTask) (*shuttle.TaskInfo, error) {
	if w == nil {
		return nil, nil
	}
	kind, err := parseTaskKind(w.Kind)
	if err != nil {
		return nil, err
	}
	return &shuttle.TaskInfo{Kind: kind, TaskNo: w.TaskNo, Pallet: w.Pallet, Station: w.Station}, nil
}

// encodeDirective serializes a directive for publication. The timestamp lets
// the vehicle firmware discard stale retained frames.
func encodeDirective(d shuttle.Directive, ts int64) ([]byte, error) {
	msg := wireDirective{
		Directive: d.Kind.String(),
		Task:      toWireTask(d.Task),
		Timestamp: ts,
	}
	return json.Marshal(msg)
}

// decodeState parses a state report payload.
func decodeState(payload []byte) (shuttle.State, error) {
	var w wireState
	if err := json.Unmarshal(payload, &w); err != nil {
		return shuttle.State{}, fmt.Errorf("decode state: %w", err)
	}
	task, err := fromWireTask(w.Task)
	if err != nil {
		return shuttle.State{}, fmt.Errorf("decode state: %w", err)
	}
	return shuttle.State{
		Manual:    w.Manual,
		EStopped:  w.EStopped,
		Locked:    w.Locked,
		ErrorCode: w.ErrorCode,
		Task:      task,
		Position:  w.Position,
		Station:   w.Station,
		Occupied:  w.Occupied,
		Walking:   w.Walking,
		Loading:   w.Loading,
		Unloading: w.Unloading,
	}, nil
}
