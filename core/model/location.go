package model

import "fmt"

// LocationKind distinguishes physical storage slots from functional points.
type LocationKind int

const (
	// KindStorage is a rack slot with full capacity and occupancy tracking.
	KindStorage LocationKind = iota
	// KindKeyPoint is a functional point such as a conveyor interface with
	// relaxed capacity rules.
	KindKeyPoint
	// KindPlaceholder is a non-physical location that never holds load.
	KindPlaceholder
)

func (k LocationKind) String() string {
	switch k {
	case KindStorage:
		return "storage"
	case KindKeyPoint:
		return "keypoint"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Location represents one storage slot or functional point in the warehouse.
type Location struct {
	ID   uint         `gorm:"primaryKey" json:"id"`
	Code string       `gorm:"uniqueIndex;size:64" json:"code"`
	Kind LocationKind `json:"kind"`

	// Occupancy counts the unit loads currently stored here. It is mutated
	// only through Load and Unload so it can never go negative.
	Occupancy int `json:"occupancy"`

	// In-flight reservation counters and their limits.
	InboundCount  int `json:"inbound_count"`
	InboundLimit  int `json:"inbound_limit"`
	OutboundCount int `json:"outbound_count"`
	OutboundLimit int `json:"outbound_limit"`

	InboundDisabled  bool `json:"inbound_disabled"`
	OutboundDisabled bool `json:"outbound_disabled"`

	WeightLimit float64 `json:"weight_limit"`
	HeightLimit float64 `json:"height_limit"`

	// StorageGroup and Spec partition slots into logical compatibility classes.
	StorageGroup string `gorm:"size:32" json:"storage_group"`
	Spec         string `gorm:"size:32" json:"spec"`

	Column int `json:"column"`
	Level  int `json:"level"`
	// Depth is the position within a double-deep pair, counted from the aisle.
	Depth int `json:"depth"`

	// LaneID references the owning lane for aggregate statistics.
	LaneID uint `gorm:"index" json:"lane_id"`
}

// Loaded reports whether the location currently holds at least one unit load.
func (l *Location) Loaded() bool { return l.Occupancy > 0 }

// Load increments the occupancy count.
func (l *Location) Load() error {
	if l.Kind == KindPlaceholder {
		return fmt.Errorf("location %s is a placeholder and does not track occupancy", l.Code)
	}
	l.Occupancy++
	return nil
}

// Unload decrements the occupancy count. The count never drops below zero.
func (l *Location) Unload() error {
	if l.Kind == KindPlaceholder {
		return fmt.Errorf("location %s is a placeholder and does not track occupancy", l.Code)
	}
	if l.Occupancy <= 0 {
		return fmt.Errorf("location %s is already empty", l.Code)
	}
	l.Occupancy--
	return nil
}
