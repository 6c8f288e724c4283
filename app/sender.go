package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/wcs/core/logger"
	coremetrics "github.com/kilianp07/wcs/core/metrics"
	"github.com/kilianp07/wcs/core/model"
	"github.com/kilianp07/wcs/core/orchestrator"
	"github.com/kilianp07/wcs/core/shuttle"
)

// ShuttleSender implements orchestrator.Sender by translating a transport
// task into a shuttle directive and waiting for the vehicle's acknowledgment
// before marking the task sent.
type ShuttleSender struct {
	session *shuttle.Session
	store   orchestrator.Store
	sink    coremetrics.MetricsSink
	log     logger.Logger
	shuttle string
}

// NewShuttleSender creates a sender bound to one shuttle session.
func NewShuttleSender(session *shuttle.Session, store orchestrator.Store, sink coremetrics.MetricsSink, log logger.Logger, shuttleID string) (*ShuttleSender, error) {
	if session == nil || store == nil || log == nil {
		return nil, fmt.Errorf("sender: nil parameter provided to NewShuttleSender")
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &ShuttleSender{session: session, store: store, sink: sink, log: log, shuttle: shuttleID}, nil
}

// Send hands the task to the vehicle. The task's database ID doubles as the
// protocol task number so acknowledgment correlation survives restarts.
func (s *ShuttleSender) Send(ctx context.Context, task *model.TransportTask) error {
	end, err := s.store.LocationByID(ctx, task.EndLocationID)
	if err != nil {
		return fmt.Errorf("sender: resolve end of task %s: %w", task.Code, err)
	}
	ul, err := s.store.UnitloadByID(ctx, task.UnitloadID)
	if err != nil {
		return fmt.Errorf("sender: resolve unitload of task %s: %w", task.Code, err)
	}

	info := shuttle.Walk(int(task.ID), end.Column, ul.PalletCode)
	if err := s.session.Send(ctx, shuttle.SendTask(info)); err != nil {
		return fmt.Errorf("sender: task %s: %w", task.Code, err)
	}
	ok, err := s.session.WaitForAck(ctx)
	if err != nil {
		return fmt.Errorf("sender: task %s: %w", task.Code, err)
	}
	if !ok {
		return fmt.Errorf("sender: task %s rejected by vehicle", task.Code)
	}

	task.MarkSent(time.Now())
	if err := s.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("sender: persist sent flag of task %s: %w", task.Code, err)
	}
	s.recordDevice("sent", info.String())
	s.log.Infof("task %s dispatched to shuttle as %s", task.Code, info)
	return nil
}

func (s *ShuttleSender) recordDevice(direction, detail string) {
	rec, ok := s.sink.(coremetrics.DeviceRecorder)
	if !ok {
		return
	}
	ev := coremetrics.DeviceEvent{Shuttle: s.shuttle, Direction: direction, Detail: detail, Time: time.Now()}
	if err := rec.RecordDeviceEvent(ev); err != nil {
		s.log.Errorf("metrics error: %v", err)
	}
}
