package alloc

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kilianp07/wcs/core/logger"
	"github.com/kilianp07/wcs/core/model"
)

// SingleDeepRule allocates slots in lanes holding one pallet per position.
type SingleDeepRule struct {
	slots SlotSource
	log   logger.Logger
}

// NewSingleDeepRule creates the rule for single-deep lanes.
func NewSingleDeepRule(slots SlotSource, log logger.Logger) *SingleDeepRule {
	return &SingleDeepRule{slots: slots, log: log}
}

func (r *SingleDeepRule) DoubleDeep() bool { return false }

func (r *SingleDeepRule) Allocate(ctx context.Context, lane *model.Lane, req *Requirements, excl Exclusions, orderBy string) (Result, error) {
	return allocate(ctx, r.slots, r.log, false, lane, req, excl, orderBy)
}

// DoubleDeepRule allocates slots in double-deep lanes. Eligibility is the
// same as single-deep; inner positions fill before outer ones so a pallet
// never blocks an empty slot behind it.
type DoubleDeepRule struct {
	slots SlotSource
	log   logger.Logger
}

// NewDoubleDeepRule creates the rule for double-deep lanes.
func NewDoubleDeepRule(slots SlotSource, log logger.Logger) *DoubleDeepRule {
	return &DoubleDeepRule{slots: slots, log: log}
}

func (r *DoubleDeepRule) DoubleDeep() bool { return true }

func (r *DoubleDeepRule) Allocate(ctx context.Context, lane *model.Lane, req *Requirements, excl Exclusions, orderBy string) (Result, error) {
	return allocate(ctx, r.slots, r.log, true, lane, req, excl, orderBy)
}

// allocate implements the shared selection contract of both rules.
func allocate(ctx context.Context, src SlotSource, log logger.Logger, doubleDeep bool, lane *model.Lane, req *Requirements, excl Exclusions, orderBy string) (Result, error) {
	if lane == nil {
		return Result{}, fmt.Errorf("alloc: nil lane")
	}
	if req == nil {
		return Result{}, fmt.Errorf("alloc: nil requirements")
	}
	if strings.TrimSpace(orderBy) == "" {
		return Result{}, fmt.Errorf("alloc: blank order key")
	}
	key, err := orderKey(orderBy)
	if err != nil {
		return Result{}, err
	}
	if lane.DoubleDeep != doubleDeep {
		return Result{}, fmt.Errorf("%w: lane %s double-deep=%t", ErrRuleMismatch, lane.Code, lane.DoubleDeep)
	}
	if lane.Offline {
		log.Infof("lane %s is offline, allocation skipped", lane.Code)
		return Result{}, nil
	}

	slots, err := src.FreeSlots(ctx, lane.ID)
	if err != nil {
		return Result{}, fmt.Errorf("alloc: query lane %s: %w", lane.Code, err)
	}
	candidates := slots[:0]
	for i := range slots {
		if eligible(&slots[i], lane, req, excl) {
			candidates = append(candidates, slots[i])
		}
	}
	if len(candidates) == 0 {
		log.Debugf("lane %s has no eligible slot", lane.Code)
		return Result{}, nil
	}

	// Tightest fit first, then the caller's key as tie-break. Double-deep
	// lanes additionally prefer the inner position of each pair.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if a.WeightLimit != b.WeightLimit {
			return a.WeightLimit < b.WeightLimit
		}
		if a.HeightLimit != b.HeightLimit {
			return a.HeightLimit < b.HeightLimit
		}
		if doubleDeep && a.Depth != b.Depth {
			return a.Depth > b.Depth
		}
		return key(a, b)
	})
	target := candidates[0]
	return Result{Allocated: true, Target: &target}, nil
}

func orderKey(orderBy string) (func(a, b *model.Location) bool, error) {
	switch orderBy {
	case OrderByCode:
		return func(a, b *model.Location) bool { return a.Code < b.Code }, nil
	case OrderByColumn:
		return func(a, b *model.Location) bool { return a.Column < b.Column }, nil
	case OrderByLevel:
		return func(a, b *model.Location) bool { return a.Level < b.Level }, nil
	default:
		return nil, fmt.Errorf("alloc: unknown order key %q", orderBy)
	}
}
