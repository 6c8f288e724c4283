package alloc

import (
	"context"
	"errors"

	"github.com/kilianp07/wcs/core/model"
)

// Requirements describes the physical and logical needs of a unit load.
type Requirements struct {
	Weight       float64
	Height       float64
	StorageGroup string
	Spec         string
}

// Exclusions lists slots the caller wants skipped. An empty set imposes no
// filter.
type Exclusions struct {
	LocationIDs []uint
	Columns     []int
	Levels      []int
}

// Result is the single-use outcome of one allocation attempt. When Allocated
// is false no eligible slot was found in the lane.
type Result struct {
	Allocated bool
	Target    *model.Location
}

// SlotSource yields the free slots of one lane. Implementations must take
// row-level locks so concurrent allocations against the same lane serialize.
type SlotSource interface {
	FreeSlots(ctx context.Context, laneID uint) ([]model.Location, error)
}

// Order keys accepted by Allocate as the caller-supplied tie-break.
const (
	OrderByCode   = "code"
	OrderByColumn = "column"
	OrderByLevel  = "level"
)

// ErrRuleMismatch is returned when a rule is applied to a lane whose
// double-deep capability it does not cover. This is a configuration fault,
// not an allocation failure.
var ErrRuleMismatch = errors.New("alloc: rule does not match lane capability")

func excludesID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func excludesInt(vals []int, v int) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

// eligible applies the conjunctive predicate every candidate slot must pass.
func eligible(s *model.Location, lane *model.Lane, req *Requirements, excl Exclusions) bool {
	if s.LaneID != lane.ID {
		return false
	}
	if s.Kind != model.KindStorage {
		return false
	}
	if s.Occupancy != 0 {
		return false
	}
	if s.OutboundCount != 0 {
		return false
	}
	if s.InboundDisabled || s.InboundCount != 0 {
		return false
	}
	if s.WeightLimit < req.Weight {
		return false
	}
	if s.HeightLimit < req.Height {
		return false
	}
	if s.StorageGroup != req.StorageGroup {
		return false
	}
	if s.Spec != req.Spec {
		return false
	}
	if excludesID(excl.LocationIDs, s.ID) {
		return false
	}
	if excludesInt(excl.Columns, s.Column) {
		return false
	}
	if excludesInt(excl.Levels, s.Level) {
		return false
	}
	return true
}
