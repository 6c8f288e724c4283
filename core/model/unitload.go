package model

// Unitload is the physical pallet or container being moved and tracked.
type Unitload struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	PalletCode string  `gorm:"uniqueIndex;size:64" json:"pallet_code"`
	Height     float64 `json:"height"`
	Weight     float64 `json:"weight"`

	// LocationID is the location currently holding the load, zero while the
	// load is in transit.
	LocationID uint `gorm:"index" json:"location_id"`
}
