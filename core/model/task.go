package model

import "time"

// TaskType tags the purpose of a transport task.
type TaskType string

const (
	TaskPutaway   TaskType = "putaway"
	TaskRetrieval TaskType = "retrieval"
	TaskMove      TaskType = "move"
)

// TransportTask represents one vehicle movement from a start location to an
// end location. The code is assigned at creation and never changes.
type TransportTask struct {
	ID   uint     `gorm:"primaryKey" json:"id"`
	Code string   `gorm:"uniqueIndex;size:64" json:"code"`
	Type TaskType `gorm:"size:16" json:"type"`

	StartLocationID uint `json:"start_location_id"`
	// EndLocationID is the planned destination chosen by the allocator.
	EndLocationID uint `json:"end_location_id"`
	// ActualEndLocationID is filled at completion and may differ from the
	// planned end when the vehicle reports a different drop position.
	ActualEndLocationID uint `json:"actual_end_location_id"`

	// UnitloadID is unique among live tasks: a unit load has at most one
	// outstanding task at a time.
	UnitloadID uint `gorm:"uniqueIndex" json:"unitload_id"`

	Sent   bool       `json:"sent"`
	SentAt *time.Time `json:"sent_at"`

	OrderCode string `gorm:"size:64" json:"order_code"`
	Comment   string `gorm:"size:255" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
}

// MarkSent flags the task as handed to the fleet and stamps the time.
func (t *TransportTask) MarkSent(now time.Time) {
	t.Sent = true
	t.SentAt = &now
}

// ArchivedTransportTask is the terminal, immutable record of a finished or
// cancelled task. Archival is a one-way transition.
type ArchivedTransportTask struct {
	ID   uint     `gorm:"primaryKey" json:"id"`
	Code string   `gorm:"uniqueIndex;size:64" json:"code"`
	Type TaskType `gorm:"size:16" json:"type"`

	StartLocationID     uint `json:"start_location_id"`
	EndLocationID       uint `json:"end_location_id"`
	ActualEndLocationID uint `json:"actual_end_location_id"`

	UnitloadID uint `gorm:"index" json:"unitload_id"`

	Sent   bool       `json:"sent"`
	SentAt *time.Time `json:"sent_at"`

	OrderCode string `gorm:"size:64" json:"order_code"`
	Comment   string `gorm:"size:255" json:"comment"`

	CreatedAt  time.Time `json:"created_at"`
	ArchivedAt time.Time `json:"archived_at"`
	Cancelled  bool      `json:"cancelled"`
}

// Archive builds the terminal record for the task.
func (t *TransportTask) Archive(now time.Time, cancelled bool) ArchivedTransportTask {
	return ArchivedTransportTask{
		Code:                t.Code,
		Type:                t.Type,
		StartLocationID:     t.StartLocationID,
		EndLocationID:       t.EndLocationID,
		ActualEndLocationID: t.ActualEndLocationID,
		UnitloadID:          t.UnitloadID,
		Sent:                t.Sent,
		SentAt:              t.SentAt,
		OrderCode:           t.OrderCode,
		Comment:             t.Comment,
		CreatedAt:           t.CreatedAt,
		ArchivedAt:          now,
		Cancelled:           cancelled,
	}
}
