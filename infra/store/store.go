package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kilianp07/wcs/core/model"
	"github.com/kilianp07/wcs/core/orchestrator"
)

// GormStore implements orchestrator.Store on a GORM database handle.
type GormStore struct {
	db *gorm.DB
}

// New creates a GormStore.
func New(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("store: nil db handle")
	}
	return &GormStore{db: db}, nil
}

// forUpdate adds a row lock on backends that support it. SQLite serializes
// writers on its own and rejects the clause.
func (s *GormStore) forUpdate(tx *gorm.DB) *gorm.DB {
	if s.db.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func wrapNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", orchestrator.ErrNotFound, what)
	}
	return err
}

// FreeSlots returns the lane's empty storage slots, locked for the duration
// of the surrounding transaction where the backend allows it.
func (s *GormStore) FreeSlots(ctx context.Context, laneID uint) ([]model.Location, error) {
	var slots []model.Location
	err := s.forUpdate(s.db.WithContext(ctx)).
		Where("lane_id = ? AND kind = ? AND occupancy = 0", laneID, model.KindStorage).
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("query free slots of lane %d: %w", laneID, err)
	}
	return slots, nil
}

func (s *GormStore) LocationByCode(ctx context.Context, code string) (*model.Location, error) {
	var loc model.Location
	err := s.forUpdate(s.db.WithContext(ctx)).Where("code = ?", code).First(&loc).Error
	if err != nil {
		return nil, wrapNotFound(err, "location "+code)
	}
	return &loc, nil
}

func (s *GormStore) LocationByID(ctx context.Context, id uint) (*model.Location, error) {
	var loc model.Location
	err := s.forUpdate(s.db.WithContext(ctx)).First(&loc, id).Error
	if err != nil {
		return nil, wrapNotFound(err, fmt.Sprintf("location %d", id))
	}
	return &loc, nil
}

func (s *GormStore) SaveLocation(ctx context.Context, loc *model.Location) error {
	return s.db.WithContext(ctx).Save(loc).Error
}

func (s *GormStore) LaneByCode(ctx context.Context, code string) (*model.Lane, error) {
	var lane model.Lane
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&lane).Error
	if err != nil {
		return nil, wrapNotFound(err, "lane "+code)
	}
	return &lane, nil
}

func (s *GormStore) UnitloadByPallet(ctx context.Context, pallet string) (*model.Unitload, error) {
	var ul model.Unitload
	err := s.forUpdate(s.db.WithContext(ctx)).Where("pallet_code = ?", pallet).First(&ul).Error
	if err != nil {
		return nil, wrapNotFound(err, "unitload "+pallet)
	}
	return &ul, nil
}

func (s *GormStore) UnitloadByID(ctx context.Context, id uint) (*model.Unitload, error) {
	var ul model.Unitload
	err := s.forUpdate(s.db.WithContext(ctx)).First(&ul, id).Error
	if err != nil {
		return nil, wrapNotFound(err, fmt.Sprintf("unitload %d", id))
	}
	return &ul, nil
}

func (s *GormStore) SaveUnitload(ctx context.Context, ul *model.Unitload) error {
	return s.db.WithContext(ctx).Save(ul).Error
}

// CreateTask inserts a live task. The unique index on unitload_id makes a
// second live task for the same unit load fail at the database.
func (s *GormStore) CreateTask(ctx context.Context, task *model.TransportTask) error {
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task %s: %w", task.Code, err)
	}
	return nil
}

func (s *GormStore) SaveTask(ctx context.Context, task *model.TransportTask) error {
	return s.db.WithContext(ctx).Save(task).Error
}

func (s *GormStore) TaskByCode(ctx context.Context, code string) (*model.TransportTask, error) {
	var task model.TransportTask
	err := s.forUpdate(s.db.WithContext(ctx)).Where("code = ?", code).First(&task).Error
	if err != nil {
		return nil, wrapNotFound(err, "task "+code)
	}
	return &task, nil
}

func (s *GormStore) ArchivedTaskByCode(ctx context.Context, code string) (*model.ArchivedTransportTask, error) {
	var arch model.ArchivedTransportTask
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&arch).Error
	if err != nil {
		return nil, wrapNotFound(err, "archived task "+code)
	}
	return &arch, nil
}

// ArchiveTask deletes the live row and inserts the terminal record in the
// current transaction scope.
func (s *GormStore) ArchiveTask(ctx context.Context, task *model.TransportTask, archived *model.ArchivedTransportTask) error {
	if err := s.db.WithContext(ctx).Delete(&model.TransportTask{}, task.ID).Error; err != nil {
		return fmt.Errorf("delete task %s: %w", task.Code, err)
	}
	if err := s.db.WithContext(ctx).Create(archived).Error; err != nil {
		return fmt.Errorf("insert archived task %s: %w", archived.Code, err)
	}
	return nil
}

// Transaction runs fn against a store bound to a database transaction.
func (s *GormStore) Transaction(ctx context.Context, fn func(orchestrator.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
