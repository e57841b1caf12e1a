// Package planner drives the meal-planning workflow: load goals, fetch
// suggestions, persist per-slot selections, and hand off to shopping-list
// generation. It is the one place in the client with real state-machine
// structure; frontends render its snapshots.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"macromate-client/internal/api"
	"macromate-client/internal/goals"
	"macromate-client/pkg/logger"
)

// State is the workflow's current position.
type State int

const (
	StateLoadingGoals State = iota
	// StateNoGoals is terminal: the user is redirected to macro setup.
	StateNoGoals
	StateSuggestionsLoading
	// StateSuggestionsFailed means the fetch failed with no earlier
	// suggestion set to fall back on; retry via Start or
	// RefreshSuggestions.
	StateSuggestionsFailed
	StateSuggestionsReady
	StatePersistingSelection
	StateReadyToGenerateList
	StateGeneratingList
	StateDone
)

func (s State) String() string {
	switch s {
	case StateLoadingGoals:
		return "loading-goals"
	case StateNoGoals:
		return "no-goals"
	case StateSuggestionsLoading:
		return "suggestions-loading"
	case StateSuggestionsFailed:
		return "suggestions-failed"
	case StateSuggestionsReady:
		return "suggestions-ready"
	case StatePersistingSelection:
		return "persisting-selection"
	case StateReadyToGenerateList:
		return "ready-to-generate"
	case StateGeneratingList:
		return "generating-list"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// ErrNotStarted is returned for operations that need a running workflow.
var ErrNotStarted = errors.New("workflow not started")

// PlannerAPI is the slice of the service client the workflow needs.
type PlannerAPI interface {
	Suggestions(ctx context.Context) (*api.SuggestionsResponse, error)
	SaveMealSelection(ctx context.Context, date, slot string, recipeID int64) (*api.MealPlan, error)
	GenerateShoppingList(ctx context.Context, startDate, endDate string) (*api.ShoppingList, error)
}

// GoalSource supplies the user's macro goals; goals.Resource satisfies it.
type GoalSource interface {
	Get(ctx context.Context) (*api.MacroGoals, error)
}

// Snapshot is the view-model a frontend renders from.
type Snapshot struct {
	State State
	Date  string
	Goals *api.MacroGoals

	// Display holds the shuffled presentation order per slot. The
	// underlying fetched suggestion lists are never mutated. An empty
	// list is a displayable "no suggestions" state, not an error.
	Display map[Slot][]api.Recipe

	Selected    map[Slot]*api.Recipe
	Totals      api.Macros
	CanGenerate bool
	Err         error
}

// Workflow is the meal-planning state machine for a single day.
type Workflow struct {
	api     PlannerAPI
	goals   GoalSource
	log     *logger.Logger
	now     func() time.Time
	shuffle func(n int, swap func(i, j int))

	mu          sync.Mutex
	state       State
	date        string
	dailyGoals  *api.MacroGoals
	suggestions api.Suggestions
	display     map[Slot][]api.Recipe
	selected    map[Slot]*api.Recipe
	totals      *api.PlanTotals
	lastErr     error
	issued      map[Slot]uint64
	pending     int
}

// NewWorkflow creates a Workflow. The plan date is fixed to "today" in the
// local timezone when Start runs.
func NewWorkflow(plannerAPI PlannerAPI, goalSource GoalSource, log *logger.Logger) *Workflow {
	return &Workflow{
		api:      plannerAPI,
		goals:    goalSource,
		log:      log,
		now:      time.Now,
		shuffle:  rand.Shuffle,
		state:    StateLoadingGoals,
		display:  make(map[Slot][]api.Recipe),
		selected: make(map[Slot]*api.Recipe),
		issued:   make(map[Slot]uint64),
	}
}

// Start fetches the user's goals and, when present, the suggestion set for
// all three slots in one call. Absent goals transition to StateNoGoals
// without issuing a suggestions call; the caller redirects to macro setup.
func (w *Workflow) Start(ctx context.Context) error {
	w.mu.Lock()
	w.state = StateLoadingGoals
	w.date = w.now().Format("2006-01-02")
	w.lastErr = nil
	w.mu.Unlock()

	g, err := w.goals.Get(ctx)
	if err != nil {
		w.mu.Lock()
		defer w.mu.Unlock()
		if errors.Is(err, goals.ErrNoGoals) {
			w.state = StateNoGoals
			return nil
		}
		w.lastErr = err
		return err
	}

	w.mu.Lock()
	w.dailyGoals = g
	w.mu.Unlock()

	return w.loadSuggestions(ctx)
}

// RefreshSuggestions re-fetches and re-shuffles the suggestion set without
// discarding selections already made.
func (w *Workflow) RefreshSuggestions(ctx context.Context) error {
	w.mu.Lock()
	if w.dailyGoals == nil {
		w.mu.Unlock()
		return ErrNotStarted
	}
	w.mu.Unlock()

	return w.loadSuggestions(ctx)
}

func (w *Workflow) loadSuggestions(ctx context.Context) error {
	w.mu.Lock()
	w.state = StateSuggestionsLoading
	w.mu.Unlock()

	resp, err := w.api.Suggestions(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		// Keep whatever set we already had; the operation stays
		// retryable and the selections stay intact. With no earlier
		// set there is nothing to render, which is its own state.
		if !errors.Is(err, context.Canceled) {
			w.lastErr = err
		}
		if w.suggestionsEmptyLocked() {
			w.state = StateSuggestionsFailed
		} else {
			w.recomputeReadyLocked()
		}
		return err
	}

	w.suggestions = resp.Suggestions
	if resp.DailyGoals.Calories > 0 || resp.DailyGoals.Proteins > 0 ||
		resp.DailyGoals.Carbohydrates > 0 || resp.DailyGoals.Fats > 0 {
		dg := resp.DailyGoals
		w.dailyGoals = &dg
	}
	w.lastErr = nil
	w.reshuffleLocked()
	w.recomputeReadyLocked()
	return nil
}

// reshuffleLocked recomputes the display order. It runs only when the
// underlying suggestion set changes, never per render.
func (w *Workflow) reshuffleLocked() {
	fetched := map[Slot][]api.Recipe{
		SlotBreakfast: w.suggestions.Breakfast,
		SlotLunch:     w.suggestions.Lunch,
		SlotDinner:    w.suggestions.Dinner,
	}

	w.display = make(map[Slot][]api.Recipe, len(fetched))
	for slot, recipes := range fetched {
		order := make([]api.Recipe, len(recipes))
		copy(order, recipes)
		w.shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		w.display[slot] = order
	}
}

// Select persists one slot's recipe for the plan date. The selection is
// committed locally only after the service confirms it; a failed persist
// leaves both the selection and the totals untouched. Persist calls are
// sequenced per slot: a response that is not the latest issued for its slot
// is discarded, so an older response can never overwrite a newer selection
// (last-write-wins by issue order, not arrival order). Different slots may
// persist concurrently.
func (w *Workflow) Select(ctx context.Context, slot Slot, recipe api.Recipe) error {
	w.mu.Lock()
	switch w.state {
	case StateLoadingGoals, StateNoGoals:
		w.mu.Unlock()
		return ErrNotStarted
	}
	w.issued[slot]++
	seq := w.issued[slot]
	w.pending++
	w.state = StatePersistingSelection
	date := w.date
	w.mu.Unlock()

	plan, err := w.api.SaveMealSelection(ctx, date, string(slot), recipe.ID)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending--

	if seq != w.issued[slot] {
		// A newer persist for this slot is (or was) in flight; this
		// response is stale either way.
		if w.pending == 0 {
			w.recomputeReadyLocked()
		}
		return nil
	}

	if err != nil {
		// A cancelled call is abandoned, not surfaced as a banner.
		if !errors.Is(err, context.Canceled) {
			w.lastErr = err
		}
		if w.pending == 0 {
			w.recomputeReadyLocked()
		}
		return err
	}

	selected := recipe
	w.selected[slot] = &selected
	if plan.Totals != nil {
		// Server totals are authoritative; never recompute them
		// client-side after a persist.
		w.totals = plan.Totals
	}
	w.lastErr = nil
	if w.pending == 0 {
		w.recomputeReadyLocked()
	}
	return nil
}

// GenerateList generates the shopping list for the plan date (start = end =
// today in the single-day flow). It is only available once all three slots
// are filled. On failure the workflow stays in StateReadyToGenerateList with
// selections intact and the error surfaced.
func (w *Workflow) GenerateList(ctx context.Context) (*api.ShoppingList, error) {
	w.mu.Lock()
	if !w.canGenerateLocked() {
		w.mu.Unlock()
		return nil, fmt.Errorf("all three meal slots must be selected before generating a shopping list")
	}
	w.state = StateGeneratingList
	date := w.date
	w.mu.Unlock()

	list, err := w.api.GenerateShoppingList(ctx, date, date)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.lastErr = err
		}
		w.state = StateReadyToGenerateList
		return nil, err
	}
	w.lastErr = nil
	w.state = StateDone
	return list, nil
}

// ClearError dismisses the surfaced transient error.
func (w *Workflow) ClearError() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastErr = nil
}

func (w *Workflow) suggestionsEmptyLocked() bool {
	return len(w.suggestions.Breakfast) == 0 &&
		len(w.suggestions.Lunch) == 0 &&
		len(w.suggestions.Dinner) == 0
}

func (w *Workflow) canGenerateLocked() bool {
	for _, slot := range Slots() {
		if w.selected[slot] == nil {
			return false
		}
	}
	return true
}

func (w *Workflow) recomputeReadyLocked() {
	if w.canGenerateLocked() {
		w.state = StateReadyToGenerateList
	} else {
		w.state = StateSuggestionsReady
	}
}

// Snapshot returns a copy of the view-model. Totals prefer the server's
// post-persist figures and fall back to a local element-wise sum before the
// first persist resolves.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	display := make(map[Slot][]api.Recipe, len(w.display))
	for slot, recipes := range w.display {
		order := make([]api.Recipe, len(recipes))
		copy(order, recipes)
		display[slot] = order
	}

	selected := make(map[Slot]*api.Recipe, len(w.selected))
	for slot, r := range w.selected {
		if r != nil {
			rc := *r
			selected[slot] = &rc
		}
	}

	totals := SumSelections(w.selected)
	if w.totals != nil {
		totals = w.totals.Totals
	}

	return Snapshot{
		State:       w.state,
		Date:        w.date,
		Goals:       w.dailyGoals,
		Display:     display,
		Selected:    selected,
		Totals:      totals,
		CanGenerate: w.canGenerateLocked(),
		Err:         w.lastErr,
	}
}

// SumSelections is the element-wise macro sum over filled slots; absent
// slots contribute zero.
func SumSelections(selected map[Slot]*api.Recipe) api.Macros {
	var sum api.Macros
	for _, slot := range Slots() {
		if r := selected[slot]; r != nil {
			sum = sum.Add(r.Macros())
		}
	}
	return sum
}
