package alloc

import (
	"context"
	"fmt"

	"github.com/kilianp07/wcs/core/model"
)

// Rule selects one free slot within a lane for a unit load. Implementations
// are side-effect free: reserving the chosen slot is the caller's job.
type Rule interface {
	// DoubleDeep reports which lane capability the rule applies to.
	DoubleDeep() bool
	// Allocate evaluates exactly one lane and returns the best eligible slot
	// or a failed Result when none qualifies.
	Allocate(ctx context.Context, lane *model.Lane, req *Requirements, excl Exclusions, orderBy string) (Result, error)
}

// Registry resolves the rule matching a lane's double-deep capability.
// Rules are registered explicitly; later registrations for the same
// capability win.
type Registry struct {
	rules map[bool]Rule
}

// NewRegistry creates a registry holding the given rules.
func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{rules: make(map[bool]Rule, len(rules))}
	for _, rule := range rules {
		r.rules[rule.DoubleDeep()] = rule
	}
	return r
}

// For returns the rule applicable to the lane.
func (r *Registry) For(lane *model.Lane) (Rule, error) {
	if lane == nil {
		return nil, fmt.Errorf("alloc: nil lane")
	}
	rule, ok := r.rules[lane.DoubleDeep]
	if !ok {
		return nil, fmt.Errorf("alloc: no rule registered for lane %s (double-deep=%t)", lane.Code, lane.DoubleDeep)
	}
	return rule, nil
}
