// Package shopping wraps the shopping-list endpoints and keeps the
// client-local checked-off state for rendering a checklist.
package shopping

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"macromate-client/internal/api"
	"macromate-client/pkg/logger"
)

// ErrNoList means no shopping list exists for the requested range. Callers
// prompt the user to create a meal plan first.
var ErrNoList = errors.New("no shopping list for this date range")

// ShoppingAPI is the slice of the service client this package needs.
type ShoppingAPI interface {
	GenerateShoppingList(ctx context.Context, startDate, endDate string) (*api.ShoppingList, error)
	ShoppingList(ctx context.Context, startDate, endDate string) (*api.ShoppingList, error)
	CompleteShoppingItem(ctx context.Context, listID int64, itemKey string, completed bool) error
}

// Resource fetches and regenerates shopping lists.
type Resource struct {
	api ShoppingAPI
	log *logger.Logger
}

func NewResource(shoppingAPI ShoppingAPI, log *logger.Logger) *Resource {
	return &Resource{api: shoppingAPI, log: log}
}

// Generate asks the service to (re)build the list for the range. The server
// regenerates from the current meal plans, so repeating the call is safe.
func (r *Resource) Generate(ctx context.Context, startDate, endDate string) (*api.ShoppingList, error) {
	list, err := r.api.GenerateShoppingList(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("generating shopping list: %w", err)
	}
	return list, nil
}

// Get fetches the existing list for the range. Absence is ErrNoList, not a
// failure.
func (r *Resource) Get(ctx context.Context, startDate, endDate string) (*api.ShoppingList, error) {
	list, err := r.api.ShoppingList(ctx, startDate, endDate)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, ErrNoList
		}
		return nil, fmt.Errorf("fetching shopping list: %w", err)
	}
	return list, nil
}

// NewChecklist builds a checklist over a fetched list that reports item
// completions through this resource's client.
func (r *Resource) NewChecklist(list *api.ShoppingList) *Checklist {
	return NewChecklist(list, r.api, r.log)
}

// ItemKey is the composite key for one list entry: the aisle name joined
// with the item's index within that aisle.
func ItemKey(aisle string, index int) string {
	return aisle + ":" + strconv.Itoa(index)
}

// Checklist overlays checked-off state on a fetched shopping list. The
// overlay lives only in memory and is lost on restart; toggling never waits
// on the network. When the list carries a server ID the completion is also
// reported remotely on a best-effort basis.
type Checklist struct {
	api  ShoppingAPI
	log  *logger.Logger
	list *api.ShoppingList

	mu      sync.Mutex
	checked map[string]bool
}

func NewChecklist(list *api.ShoppingList, shoppingAPI ShoppingAPI, log *logger.Logger) *Checklist {
	return &Checklist{
		api:     shoppingAPI,
		log:     log,
		list:    list,
		checked: make(map[string]bool),
	}
}

// List returns the underlying shopping list.
func (c *Checklist) List() *api.ShoppingList {
	return c.list
}

// Checked reports whether the item under key is checked off.
func (c *Checklist) Checked(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checked[key]
}

// Toggle flips the checked state for key and returns the new state. Unknown
// keys are ignored. The remote completion call, when applicable, is fired in
// the background and its failure only logs.
func (c *Checklist) Toggle(key string) bool {
	if !c.validKey(key) {
		return false
	}

	c.mu.Lock()
	now := !c.checked[key]
	c.checked[key] = now
	c.mu.Unlock()

	if c.list.ID != 0 && c.api != nil {
		go func() {
			if err := c.api.CompleteShoppingItem(context.Background(), c.list.ID, key, now); err != nil {
				c.log.Warnw("failed to report item completion", "item_key", key, "error", err)
			}
		}()
	}
	return now
}

// Progress returns the number of checked items and the total item count.
func (c *Checklist) Progress() (checked, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, on := range c.checked {
		if on {
			checked++
		}
	}
	for _, items := range c.list.Aisles {
		total += len(items)
	}
	return checked, total
}

// Aisles returns the aisle names in a stable sorted order for rendering.
func (c *Checklist) Aisles() []string {
	names := make([]string, 0, len(c.list.Aisles))
	for name := range c.list.Aisles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Checklist) validKey(key string) bool {
	sep := strings.LastIndex(key, ":")
	if sep < 0 {
		return false
	}
	index, err := strconv.Atoi(key[sep+1:])
	if err != nil {
		return false
	}
	items, ok := c.list.Aisles[key[:sep]]
	return ok && index >= 0 && index < len(items)
}
