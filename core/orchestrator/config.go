package orchestrator

import "github.com/kilianp07/wcs/core/alloc"

// Config defines orchestrator settings.
type Config struct {
	// LanePriority lists candidate lane codes in allocation order.
	LanePriority []string `json:"lane_priority"`
	// OrderBy is the tie-break key handed to the allocation rules.
	OrderBy string `json:"order_by"`
	// MaxEventDepth bounds recursive event chains on the dispatcher.
	MaxEventDepth int `json:"max_event_depth"`
	// AckTimeoutSeconds bounds the wait for device acknowledgments.
	AckTimeoutSeconds int `json:"ack_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.OrderBy == "" {
		c.OrderBy = alloc.OrderByCode
	}
	if c.AckTimeoutSeconds <= 0 {
		c.AckTimeoutSeconds = 5
	}
}
