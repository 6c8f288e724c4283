package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kilianp07/wcs/core/alloc"
	"github.com/kilianp07/wcs/core/model"
	"github.com/kilianp07/wcs/core/orchestrator"
	"github.com/kilianp07/wcs/infra/logger"
)

type noopSender struct{}

func (noopSender) Send(context.Context, *model.TransportTask) error { return nil }

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Open(Config{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s, err := New(db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return s
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestFreeSlotsFiltersKindAndOccupancy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	lane := model.Lane{Code: "L1"}
	if err := s.db.Create(&lane).Error; err != nil {
		t.Fatalf("seed lane: %v", err)
	}
	seed := []model.Location{
		{Code: "A-01", Kind: model.KindStorage, LaneID: lane.ID},
		{Code: "A-02", Kind: model.KindStorage, LaneID: lane.ID, Occupancy: 1},
		{Code: "KP-1", Kind: model.KindKeyPoint, LaneID: lane.ID},
		{Code: "B-01", Kind: model.KindStorage, LaneID: lane.ID + 99},
	}
	for i := range seed {
		if err := s.db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed location: %v", err)
		}
	}

	slots, err := s.FreeSlots(ctx, lane.ID)
	if err != nil {
		t.Fatalf("free slots: %v", err)
	}
	if len(slots) != 1 || slots[0].Code != "A-01" {
		t.Fatalf("unexpected slots %+v", slots)
	}
}

func TestLookupsWrapNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.LocationByCode(ctx, "missing"); !errors.Is(err, orchestrator.ErrNotFound) {
		t.Fatalf("location by code: %v", err)
	}
	if _, err := s.LocationByID(ctx, 42); !errors.Is(err, orchestrator.ErrNotFound) {
		t.Fatalf("location by id: %v", err)
	}
	if _, err := s.LaneByCode(ctx, "missing"); !errors.Is(err, orchestrator.ErrNotFound) {
		t.Fatalf("lane: %v", err)
	}
	if _, err := s.UnitloadByPallet(ctx, "missing"); !errors.Is(err, orchestrator.ErrNotFound) {
		t.Fatalf("unitload: %v", err)
	}
	if _, err := s.TaskByCode(ctx, "missing"); !errors.Is(err, orchestrator.ErrNotFound) {
		t.Fatalf("task: %v", err)
	}
	if _, err := s.ArchivedTaskByCode(ctx, "missing"); !errors.Is(err, orchestrator.ErrNotFound) {
		t.Fatalf("archived task: %v", err)
	}
}

func TestCreateTaskEnforcesOneLiveTaskPerUnitload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := model.TransportTask{Code: "t-1", Type: model.TaskPutaway, UnitloadID: 7, CreatedAt: time.Now()}
	if err := s.CreateTask(ctx, &first); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := model.TransportTask{Code: "t-2", Type: model.TaskPutaway, UnitloadID: 7, CreatedAt: time.Now()}
	if err := s.CreateTask(ctx, &second); err == nil {
		t.Fatalf("expected unique violation for same unitload")
	}
}

func TestArchiveTaskMovesRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	task := model.TransportTask{Code: "t-1", Type: model.TaskPutaway, UnitloadID: 1, CreatedAt: time.Now()}
	if err := s.CreateTask(ctx, &task); err != nil {
		t.Fatalf("create: %v", err)
	}
	archived := task.Archive(time.Now(), false)
	if err := s.ArchiveTask(ctx, &task, &archived); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := s.TaskByCode(ctx, "t-1"); !errors.Is(err, orchestrator.ErrNotFound) {
		t.Fatalf("live row must be gone, got %v", err)
	}
	got, err := s.ArchivedTaskByCode(ctx, "t-1")
	if err != nil {
		t.Fatalf("archived lookup: %v", err)
	}
	if got.Cancelled {
		t.Fatalf("unexpected cancelled flag")
	}

	// Once archived, the unit load may get a new live task.
	next := model.TransportTask{Code: "t-2", Type: model.TaskPutaway, UnitloadID: 1, CreatedAt: time.Now()}
	if err := s.CreateTask(ctx, &next); err != nil {
		t.Fatalf("create after archive: %v", err)
	}
}

// TestCompletionReleasesReservation runs a full request/completion cycle
// through the real store. Every row travels through gorm, so stale copies of
// the destination cannot hide behind shared pointers.
func TestCompletionReleasesReservation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	lane := model.Lane{Code: "L1"}
	if err := s.db.Create(&lane).Error; err != nil {
		t.Fatalf("seed lane: %v", err)
	}
	source := model.Location{Code: "IN-1", Kind: model.KindKeyPoint, Occupancy: 1}
	slot := model.Location{Code: "A-01", Kind: model.KindStorage, LaneID: lane.ID, WeightLimit: 100, HeightLimit: 200}
	for _, loc := range []*model.Location{&source, &slot} {
		if err := s.db.Create(loc).Error; err != nil {
			t.Fatalf("seed location: %v", err)
		}
	}
	ul := model.Unitload{PalletCode: "P1", LocationID: source.ID}
	if err := s.db.Create(&ul).Error; err != nil {
		t.Fatalf("seed unitload: %v", err)
	}

	rules := alloc.NewRegistry(alloc.NewSingleDeepRule(s, logger.NopLogger{}))
	orch, err := orchestrator.New(s, noopSender{}, rules, nil, nil, nil, logger.NopLogger{},
		orchestrator.Config{LanePriority: []string{"L1"}})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	task, err := orch.HandleRequest(ctx, orchestrator.RequestInfo{
		LocationCode: "IN-1", PalletCode: "P1", Height: 10, Weight: 20,
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	reserved, err := s.LocationByID(ctx, task.EndLocationID)
	if err != nil {
		t.Fatalf("lookup reserved slot: %v", err)
	}
	if reserved.InboundCount != 1 {
		t.Fatalf("expected inbound reservation, got %d", reserved.InboundCount)
	}

	if err := orch.HandleCompletion(ctx, orchestrator.CompletionInfo{}, task.Code); err != nil {
		t.Fatalf("completion: %v", err)
	}
	end, err := s.LocationByID(ctx, task.EndLocationID)
	if err != nil {
		t.Fatalf("lookup end: %v", err)
	}
	if end.InboundCount != 0 {
		t.Fatalf("reservation not released, InboundCount=%d", end.InboundCount)
	}
	if end.Occupancy != 1 {
		t.Fatalf("expected occupancy 1, got %d", end.Occupancy)
	}
	vacated, err := s.LocationByID(ctx, source.ID)
	if err != nil {
		t.Fatalf("lookup source: %v", err)
	}
	if vacated.Occupancy != 0 {
		t.Fatalf("source not vacated, got occupancy %d", vacated.Occupancy)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	loc := model.Location{Code: "A-01", Kind: model.KindStorage}
	if err := s.db.Create(&loc).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := s.Transaction(ctx, func(tx orchestrator.Store) error {
		got, err := tx.LocationByID(ctx, loc.ID)
		if err != nil {
			return err
		}
		got.InboundCount = 5
		if err := tx.SaveLocation(ctx, got); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatalf("expected transaction error")
	}

	got, err := s.LocationByID(ctx, loc.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.InboundCount != 0 {
		t.Fatalf("write must be rolled back, got %d", got.InboundCount)
	}
}

func TestTransactionCommits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	loc := model.Location{Code: "A-01", Kind: model.KindStorage}
	if err := s.db.Create(&loc).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := s.Transaction(ctx, func(tx orchestrator.Store) error {
		got, err := tx.LocationByID(ctx, loc.ID)
		if err != nil {
			return err
		}
		got.InboundCount++
		return tx.SaveLocation(ctx, got)
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	got, _ := s.LocationByID(ctx, loc.ID)
	if got.InboundCount != 1 {
		t.Fatalf("commit lost, got %d", got.InboundCount)
	}
}
