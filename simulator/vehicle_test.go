package main

import "testing"

func TestApplySendTaskAndWalk(t *testing.T) {
	v := newVehicle(1, 2)
	st := v.apply(directive{Directive: "send_task", Task: &task{Kind: "walk", TaskNo: 5, Station: 4, Pallet: "P1"}})
	if st.Task == nil || st.Task.TaskNo != 5 || !st.Walking {
		t.Fatalf("task not accepted: %+v", st)
	}
	if st.Station != nil {
		t.Fatalf("walking vehicle must report no station")
	}

	if _, changed := v.tick(); !changed {
		t.Fatalf("first tick must progress")
	}
	st, changed := v.tick()
	if !changed {
		t.Fatalf("second tick must finish the walk")
	}
	if st.Task != nil || st.Position != 4 || st.Station == nil || *st.Station != 4 {
		t.Fatalf("walk not completed: %+v", st)
	}
	if !st.Occupied {
		t.Fatalf("walk with pallet must arrive occupied")
	}
}

func TestSnapshotReportsIdleVehicle(t *testing.T) {
	v := newVehicle(3, 2)
	st := v.snapshot()
	if st.Task != nil || st.Position != 3 || st.Station == nil || *st.Station != 3 {
		t.Fatalf("idle snapshot wrong: %+v", st)
	}
	if _, changed := v.tick(); changed {
		t.Fatalf("snapshot must not advance the vehicle")
	}
}

func TestApplyInquireReportsWithoutChange(t *testing.T) {
	v := newVehicle(2, 3)
	st := v.apply(directive{Directive: "inquire"})
	if st.Task != nil || st.Position != 2 {
		t.Fatalf("unexpected report: %+v", st)
	}
}

func TestLockedVehicleRefusesTasks(t *testing.T) {
	v := newVehicle(1, 3)
	v.apply(directive{Directive: "lock"})
	st := v.apply(directive{Directive: "send_task", Task: &task{Kind: "walk", TaskNo: 1, Station: 2}})
	if st.Task != nil {
		t.Fatalf("locked vehicle accepted a task")
	}
	st = v.apply(directive{Directive: "unlock"})
	if st.Locked {
		t.Fatalf("unlock not applied")
	}
}

func TestEStopFreezesProgress(t *testing.T) {
	v := newVehicle(1, 3)
	v.apply(directive{Directive: "send_task", Task: &task{Kind: "walk", TaskNo: 1, Station: 2}})
	st := v.apply(directive{Directive: "estop"})
	if !st.EStopped {
		t.Fatalf("estop not applied")
	}
	if _, changed := v.tick(); changed {
		t.Fatalf("estopped vehicle must not progress")
	}
}

func TestClearTaskDropsTask(t *testing.T) {
	v := newVehicle(1, 3)
	v.apply(directive{Directive: "send_task", Task: &task{Kind: "load_left", TaskNo: 9, Pallet: "P1", Station: 1}})
	st := v.apply(directive{Directive: "clear_task"})
	if st.Task != nil {
		t.Fatalf("task not cleared")
	}
}

func TestLoadUnloadChangeOccupancy(t *testing.T) {
	v := newVehicle(1, 3)
	v.apply(directive{Directive: "send_task", Task: &task{Kind: "load_right", TaskNo: 1, Pallet: "P1", Station: 1}})
	st, changed := v.tick()
	if !changed || !st.Occupied || st.Task != nil {
		t.Fatalf("load not completed: %+v", st)
	}
	v.apply(directive{Directive: "send_task", Task: &task{Kind: "unload_left", TaskNo: 2, Pallet: "P1", Station: 1}})
	st, changed = v.tick()
	if !changed || st.Occupied {
		t.Fatalf("unload not completed: %+v", st)
	}
}
