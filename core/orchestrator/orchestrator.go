package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/wcs/core/alloc"
	"github.com/kilianp07/wcs/core/events"
	"github.com/kilianp07/wcs/core/logger"
	"github.com/kilianp07/wcs/core/metrics"
	"github.com/kilianp07/wcs/core/model"
	"github.com/kilianp07/wcs/internal/eventbus"
)

// Orchestrator turns movement requests into dispatched transport tasks and
// reconciles completion notices back into location and unitload state. It is
// stateless between calls; all durable state lives behind the Store.
type Orchestrator struct {
	store      Store
	sender     Sender
	rules      *alloc.Registry
	dispatcher *events.Dispatcher
	bus        eventbus.EventBus
	sink       metrics.MetricsSink
	log        logger.Logger
	cfg        Config
}

// New creates an orchestrator. Dispatcher, bus and sink may be nil.
func New(store Store, sender Sender, rules *alloc.Registry, dispatcher *events.Dispatcher, bus eventbus.EventBus, sink metrics.MetricsSink, log logger.Logger, cfg Config) (*Orchestrator, error) {
	if store == nil || sender == nil || rules == nil || log == nil {
		return nil, fmt.Errorf("orchestrator: nil parameter provided to New")
	}
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Orchestrator{
		store:      store,
		sender:     sender,
		rules:      rules,
		dispatcher: dispatcher,
		bus:        bus,
		sink:       sink,
		log:        log,
		cfg:        cfg,
	}, nil
}

func validateRequest(req RequestInfo) error {
	if req.LocationCode == "" {
		return fmt.Errorf("%w: missing location code", ErrInvalidRequest)
	}
	if req.PalletCode == "" {
		return fmt.Errorf("%w: missing pallet code", ErrInvalidRequest)
	}
	if req.Height < 0 || req.Weight < 0 {
		return fmt.Errorf("%w: negative dimensions", ErrInvalidRequest)
	}
	return nil
}

// HandleRequest validates the request, allocates a destination slot,
// persists a new task with the slot reserved, and hands it to the sender.
func (o *Orchestrator) HandleRequest(ctx context.Context, req RequestInfo) (*model.TransportTask, error) {
	start := time.Now()
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	source, err := o.store.LocationByCode(ctx, req.LocationCode)
	if err != nil {
		return nil, fmt.Errorf("resolve source location %s: %w", req.LocationCode, err)
	}
	ul, err := o.store.UnitloadByPallet(ctx, req.PalletCode)
	if err != nil {
		return nil, fmt.Errorf("resolve unitload %s: %w", req.PalletCode, err)
	}

	ul.Height = req.Height
	ul.Weight = req.Weight
	if err := o.store.SaveUnitload(ctx, ul); err != nil {
		return nil, fmt.Errorf("record dimensions on unitload %s: %w", req.PalletCode, err)
	}

	if err := o.fire(ctx, events.EventRequestReceived, events.RequestReceived{
		LocationCode: req.LocationCode,
		PalletCode:   req.PalletCode,
		Height:       req.Height,
		Weight:       req.Weight,
	}); err != nil {
		return nil, err
	}

	target, err := o.allocate(ctx, req)
	if err != nil {
		return nil, err
	}

	task := &model.TransportTask{
		Code:            uuid.NewString(),
		Type:            model.TaskPutaway,
		StartLocationID: source.ID,
		EndLocationID:   target.ID,
		UnitloadID:      ul.ID,
		CreatedAt:       time.Now(),
	}
	err = o.store.Transaction(ctx, func(tx Store) error {
		slot, err := tx.LocationByID(ctx, target.ID)
		if err != nil {
			return err
		}
		slot.InboundCount++
		if err := tx.SaveLocation(ctx, slot); err != nil {
			return err
		}
		return tx.CreateTask(ctx, task)
	})
	if err != nil {
		return nil, fmt.Errorf("create task for pallet %s: %w", req.PalletCode, err)
	}

	tasksCreated.WithLabelValues(string(task.Type)).Inc()
	liveTasks.Inc()
	o.recordTask(task, "created")
	o.publish(events.TaskCreated{Task: task})
	if err := o.fire(ctx, events.EventTaskCreated, events.TaskCreated{Task: task}); err != nil {
		return nil, err
	}

	if err := o.sender.Send(ctx, task); err != nil {
		o.log.Errorf("send task %s: %v", task.Code, err)
		return task, fmt.Errorf("send task %s: %w", task.Code, err)
	}
	o.log.Infof("task %s created for pallet %s: %s -> slot %d", task.Code, req.PalletCode, req.LocationCode, target.ID)
	requestDuration.Observe(time.Since(start).Seconds())
	return task, nil
}

// allocate walks the configured lane priority list until a rule yields a
// slot. Offline lanes are skipped, exhaustion is a distinct error.
func (o *Orchestrator) allocate(ctx context.Context, req RequestInfo) (*model.Location, error) {
	requirements := &alloc.Requirements{Weight: req.Weight, Height: req.Height}
	for _, laneCode := range o.cfg.LanePriority {
		lane, err := o.store.LaneByCode(ctx, laneCode)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				o.log.Warnf("configured lane %s does not exist, skipping", laneCode)
				continue
			}
			return nil, fmt.Errorf("resolve lane %s: %w", laneCode, err)
		}
		if lane.Offline {
			o.log.Infof("lane %s is offline, skipping", lane.Code)
			continue
		}
		rule, err := o.rules.For(lane)
		if err != nil {
			return nil, err
		}
		res, err := rule.Allocate(ctx, lane, requirements, alloc.Exclusions{}, o.cfg.OrderBy)
		if err != nil {
			return nil, err
		}
		o.recordAllocation(lane, res)
		if res.Allocated {
			return res.Target, nil
		}
	}
	allocationFailures.Inc()
	return nil, fmt.Errorf("%w: pallet %s", ErrNoSlotAllocated, req.PalletCode)
}

// HandleCompletion finalizes or cancels the task named by the notice. Both
// paths are terminal; a notice for an archived task is a protocol error.
func (o *Orchestrator) HandleCompletion(ctx context.Context, info CompletionInfo, taskCode string) error {
	task, err := o.store.TaskByCode(ctx, taskCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if arch, archErr := o.store.ArchivedTaskByCode(ctx, taskCode); archErr == nil && arch != nil {
				return fmt.Errorf("%w: task %s", ErrTaskAlreadyArchived, taskCode)
			}
		}
		return fmt.Errorf("resolve task %s: %w", taskCode, err)
	}
	if info.Cancelled {
		return o.cancel(ctx, task)
	}
	return o.complete(ctx, info, task)
}

// cancel archives the task without touching occupancy, releasing only the
// inbound reservation it held.
func (o *Orchestrator) cancel(ctx context.Context, task *model.TransportTask) error {
	archived := task.Archive(time.Now(), true)
	err := o.store.Transaction(ctx, func(tx Store) error {
		if err := releaseReservation(ctx, tx, task.EndLocationID); err != nil {
			return err
		}
		return tx.ArchiveTask(ctx, task, &archived)
	})
	if err != nil {
		return fmt.Errorf("cancel task %s: %w", task.Code, err)
	}
	tasksArchived.WithLabelValues("cancelled").Inc()
	liveTasks.Dec()
	o.recordArchived(&archived)
	o.publish(events.TaskCancelled{Task: &archived})
	o.log.Infof("task %s cancelled", task.Code)
	return o.fire(ctx, events.EventTaskCancelled, events.TaskCancelled{Task: &archived})
}

// complete moves the unit load to the actual end location and archives the
// task.
func (o *Orchestrator) complete(ctx context.Context, info CompletionInfo, task *model.TransportTask) error {
	var archived model.ArchivedTransportTask
	err := o.store.Transaction(ctx, func(tx Store) error {
		end, err := tx.LocationByID(ctx, task.EndLocationID)
		if err != nil {
			return err
		}
		if info.ActualLocationCode != "" {
			if end, err = tx.LocationByCode(ctx, info.ActualLocationCode); err != nil {
				return fmt.Errorf("resolve actual end %s: %w", info.ActualLocationCode, err)
			}
		}
		task.ActualEndLocationID = end.ID

		// When the planned end is the row saved below, decrement its
		// reservation in place; a separate fetch would be overwritten by the
		// later save.
		if end.ID == task.EndLocationID {
			if end.InboundCount > 0 {
				end.InboundCount--
			}
		} else if err := releaseReservation(ctx, tx, task.EndLocationID); err != nil {
			return err
		}

		ul, err := tx.UnitloadByID(ctx, task.UnitloadID)
		if err != nil {
			return err
		}
		if ul.LocationID != 0 {
			vacated, err := tx.LocationByID(ctx, ul.LocationID)
			if err != nil {
				return err
			}
			if vacated.Loaded() {
				if err := vacated.Unload(); err != nil {
					return err
				}
				if err := tx.SaveLocation(ctx, vacated); err != nil {
					return err
				}
			}
		}
		if err := end.Load(); err != nil {
			return err
		}
		if err := tx.SaveLocation(ctx, end); err != nil {
			return err
		}
		ul.LocationID = end.ID
		if err := tx.SaveUnitload(ctx, ul); err != nil {
			return err
		}

		archived = task.Archive(time.Now(), false)
		return tx.ArchiveTask(ctx, task, &archived)
	})
	if err != nil {
		return fmt.Errorf("complete task %s: %w", task.Code, err)
	}
	tasksArchived.WithLabelValues("completed").Inc()
	liveTasks.Dec()
	o.recordArchived(&archived)
	o.publish(events.TaskCompleted{Task: &archived})
	o.log.Infof("task %s completed at location %d", task.Code, task.ActualEndLocationID)
	return o.fire(ctx, events.EventTaskCompleted, events.TaskCompleted{Task: &archived})
}

func releaseReservation(ctx context.Context, tx Store, locationID uint) error {
	loc, err := tx.LocationByID(ctx, locationID)
	if err != nil {
		return err
	}
	if loc.InboundCount > 0 {
		loc.InboundCount--
		return tx.SaveLocation(ctx, loc)
	}
	return nil
}

func (o *Orchestrator) fire(ctx context.Context, name string, payload any) error {
	if o.dispatcher == nil {
		return nil
	}
	return o.dispatcher.Fire(ctx, name, payload)
}

func (o *Orchestrator) publish(ev eventbus.Event) {
	if o.bus != nil {
		o.bus.Publish(ev)
	}
}

func (o *Orchestrator) recordTask(task *model.TransportTask, phase string) {
	ev := metrics.TaskEvent{
		TaskCode: task.Code,
		TaskType: string(task.Type),
		Phase:    phase,
		Time:     time.Now(),
	}
	if err := o.sink.RecordTaskEvent(ev); err != nil {
		o.log.Errorf("metrics error: %v", err)
	}
}

func (o *Orchestrator) recordArchived(arch *model.ArchivedTransportTask) {
	phase := "completed"
	if arch.Cancelled {
		phase = "cancelled"
	}
	ev := metrics.TaskEvent{
		TaskCode: arch.Code,
		TaskType: string(arch.Type),
		Phase:    phase,
		Time:     arch.ArchivedAt,
	}
	if err := o.sink.RecordTaskEvent(ev); err != nil {
		o.log.Errorf("metrics error: %v", err)
	}
}

func (o *Orchestrator) recordAllocation(lane *model.Lane, res alloc.Result) {
	rec, ok := o.sink.(metrics.AllocationRecorder)
	if !ok {
		return
	}
	ev := metrics.AllocationEvent{Lane: lane.Code, Allocated: res.Allocated, Time: time.Now()}
	if res.Target != nil {
		ev.Slot = res.Target.Code
	}
	if err := rec.RecordAllocation(ev); err != nil {
		o.log.Errorf("metrics error: %v", err)
	}
}
