package model

// Lane is an aisle of storage slots served by one retrieval path.
type Lane struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"uniqueIndex;size:64" json:"code"`

	// Offline marks a lane manually taken out of service. No allocation may
	// target an offline lane.
	Offline bool `json:"offline"`

	// DoubleDeep selects which allocation rule variant applies to this lane.
	DoubleDeep bool `json:"double_deep"`

	// Ports counts the exit points the lane is reachable through.
	Ports int `json:"ports"`
}
