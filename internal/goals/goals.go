// Package goals is the client boundary for the user's daily macro targets.
package goals

import (
	"context"
	"errors"
	"fmt"

	"macromate-client/internal/api"
)

// ErrNoGoals means the user has not set goals yet. This is an expected
// state that routes the caller to macro setup, not an error banner.
var ErrNoGoals = errors.New("no macro goals set")

// ErrAllZero rejects a goal set where every field is zero. The check runs
// before any network call.
var ErrAllZero = errors.New("at least one macro value must be greater than 0")

// GoalsAPI is the slice of the service client this resource needs.
type GoalsAPI interface {
	MacroGoals(ctx context.Context) (*api.MacroGoals, error)
	CreateMacroGoals(ctx context.Context, goals api.MacroGoals) (*api.MacroGoals, error)
	ReplaceMacroGoals(ctx context.Context, goals api.MacroGoals) (*api.MacroGoals, error)
}

// Resource wraps the macro-goal endpoints with client-side validation.
type Resource struct {
	api GoalsAPI
}

// NewResource creates a Resource.
func NewResource(goalsAPI GoalsAPI) *Resource {
	return &Resource{api: goalsAPI}
}

// Validate enforces the boundary rule: no negative values, and at least one
// field strictly positive.
func Validate(g api.MacroGoals) error {
	for _, v := range []float64{g.Calories, g.Proteins, g.Carbohydrates, g.Fats} {
		if v < 0 {
			return fmt.Errorf("macro values must not be negative")
		}
	}
	if g.Calories == 0 && g.Proteins == 0 && g.Carbohydrates == 0 && g.Fats == 0 {
		return ErrAllZero
	}
	return nil
}

// Get fetches the current goal set. Absence maps to ErrNoGoals.
func (r *Resource) Get(ctx context.Context) (*api.MacroGoals, error) {
	goals, err := r.api.MacroGoals(ctx)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, ErrNoGoals
		}
		return nil, fmt.Errorf("failed to fetch macro goals: %w", err)
	}
	return goals, nil
}

// Create stores a first goal set after validation.
func (r *Resource) Create(ctx context.Context, g api.MacroGoals) (*api.MacroGoals, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}
	saved, err := r.api.CreateMacroGoals(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("failed to create macro goals: %w", err)
	}
	return saved, nil
}

// Replace swaps the goal set wholesale after validation; goals are never
// partially patched.
func (r *Resource) Replace(ctx context.Context, g api.MacroGoals) (*api.MacroGoals, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}
	saved, err := r.api.ReplaceMacroGoals(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("failed to replace macro goals: %w", err)
	}
	return saved, nil
}
