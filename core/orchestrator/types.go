package orchestrator

import (
	"context"

	"github.com/kilianp07/wcs/core/alloc"
	"github.com/kilianp07/wcs/core/model"
)

// RequestInfo is an external movement request: put the named pallet, found
// at the named location, away into storage.
type RequestInfo struct {
	LocationCode string  `json:"location_code"`
	PalletCode   string  `json:"pallet_code"`
	Height       float64 `json:"height"`
	Weight       float64 `json:"weight"`
}

// CompletionInfo is a completion notice reported for a task. An empty
// ActualLocationCode means the task ended at its planned destination.
type CompletionInfo struct {
	Cancelled          bool   `json:"cancelled"`
	ActualLocationCode string `json:"actual_location_code"`
}

// Sender hands a built task to the vehicle-fleet dispatch channel. The
// implementation marks the task sent and stamps the time; delivery
// guarantees are its own business.
type Sender interface {
	Send(ctx context.Context, task *model.TransportTask) error
}

// Store is the persistence boundary of the orchestrator. Implementations
// must serialize conflicting operations on the same location or task so the
// allocator's read-then-write pattern stays race free.
type Store interface {
	alloc.SlotSource

	LocationByCode(ctx context.Context, code string) (*model.Location, error)
	LocationByID(ctx context.Context, id uint) (*model.Location, error)
	SaveLocation(ctx context.Context, loc *model.Location) error

	LaneByCode(ctx context.Context, code string) (*model.Lane, error)

	UnitloadByPallet(ctx context.Context, pallet string) (*model.Unitload, error)
	UnitloadByID(ctx context.Context, id uint) (*model.Unitload, error)
	SaveUnitload(ctx context.Context, ul *model.Unitload) error

	CreateTask(ctx context.Context, task *model.TransportTask) error
	SaveTask(ctx context.Context, task *model.TransportTask) error
	TaskByCode(ctx context.Context, code string) (*model.TransportTask, error)
	ArchivedTaskByCode(ctx context.Context, code string) (*model.ArchivedTransportTask, error)
	// ArchiveTask removes the live task and inserts its terminal record.
	ArchiveTask(ctx context.Context, task *model.TransportTask, archived *model.ArchivedTransportTask) error

	// Transaction runs fn against a store whose operations commit or roll
	// back together.
	Transaction(ctx context.Context, fn func(Store) error) error
}
