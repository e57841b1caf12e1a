package shopping

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"macromate-client/internal/api"
	"macromate-client/pkg/logger"
)

type completion struct {
	listID    int64
	itemKey   string
	completed bool
}

type mockShoppingAPI struct {
	mu sync.Mutex

	listResp *api.ShoppingList
	listErr  error
	getCalls int

	generateCalls int

	completeErr   error
	completions   []completion
	completeFired chan struct{}
}

func (m *mockShoppingAPI) GenerateShoppingList(ctx context.Context, startDate, endDate string) (*api.ShoppingList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateCalls++
	return m.listResp, m.listErr
}

func (m *mockShoppingAPI) ShoppingList(ctx context.Context, startDate, endDate string) (*api.ShoppingList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	return m.listResp, m.listErr
}

func (m *mockShoppingAPI) CompleteShoppingItem(ctx context.Context, listID int64, itemKey string, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, completion{listID, itemKey, completed})
	if m.completeFired != nil {
		m.completeFired <- struct{}{}
	}
	return m.completeErr
}

func listFixture(id int64) *api.ShoppingList {
	return &api.ShoppingList{
		ID:        id,
		StartDate: "2026-09-01",
		EndDate:   "2026-09-01",
		Aisles: map[string][]api.ShoppingItem{
			"Produce": {
				{Name: "Spinach", Amount: 200, Unit: "g"},
				{Name: "Tomatoes", Amount: 4, Unit: ""},
			},
			"Dairy": {
				{Name: "Greek yogurt", Amount: 500, Unit: "g"},
			},
		},
		TotalItems: 3,
	}
}

func TestGet(t *testing.T) {
	t.Run("AbsenceMapsToErrNoList", func(t *testing.T) {
		mock := &mockShoppingAPI{listErr: &api.Error{StatusCode: http.StatusNotFound, Message: "Not found."}}
		r := NewResource(mock, logger.NewNop())

		_, err := r.Get(context.Background(), "2026-09-01", "2026-09-01")
		if !errors.Is(err, ErrNoList) {
			t.Errorf("Expected ErrNoList, got %v", err)
		}
	})

	t.Run("ServerErrorPassesThrough", func(t *testing.T) {
		mock := &mockShoppingAPI{listErr: &api.Error{StatusCode: http.StatusInternalServerError, Message: "boom"}}
		r := NewResource(mock, logger.NewNop())

		_, err := r.Get(context.Background(), "2026-09-01", "2026-09-01")
		if errors.Is(err, ErrNoList) {
			t.Error("A server failure must not read as an empty list")
		}
		var apiErr *api.Error
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("Expected the wrapped service error, got %v", err)
		}
	})

	t.Run("Success", func(t *testing.T) {
		mock := &mockShoppingAPI{listResp: listFixture(7)}
		r := NewResource(mock, logger.NewNop())

		list, err := r.Get(context.Background(), "2026-09-01", "2026-09-01")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if list.ID != 7 || list.TotalItems != 3 {
			t.Errorf("Expected list 7 with 3 items, got %+v", list)
		}
	})
}

func TestGenerateIsRepeatable(t *testing.T) {
	mock := &mockShoppingAPI{listResp: listFixture(7)}
	r := NewResource(mock, logger.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := r.Generate(context.Background(), "2026-09-01", "2026-09-01"); err != nil {
			t.Fatalf("Generate run %d failed: %v", i+1, err)
		}
	}
	if mock.generateCalls != 2 {
		t.Errorf("Expected 2 generate calls, got %d", mock.generateCalls)
	}
}

func TestChecklistToggle(t *testing.T) {
	mock := &mockShoppingAPI{completeFired: make(chan struct{}, 4)}
	c := NewChecklist(listFixture(7), mock, logger.NewNop())

	key := ItemKey("Produce", 0)
	if c.Checked(key) {
		t.Fatal("Expected items to start unchecked")
	}
	if !c.Toggle(key) {
		t.Error("Expected Toggle to report the item checked")
	}
	if !c.Checked(key) {
		t.Error("Expected the item checked after Toggle")
	}
	if c.Toggle(key) {
		t.Error("Expected the second Toggle to uncheck")
	}

	checked, total := c.Progress()
	if checked != 0 || total != 3 {
		t.Errorf("Expected progress 0/3, got %d/%d", checked, total)
	}
}

func TestChecklistIgnoresUnknownKeys(t *testing.T) {
	mock := &mockShoppingAPI{}
	c := NewChecklist(listFixture(7), mock, logger.NewNop())

	for _, key := range []string{"Produce:5", "Bakery:0", "Produce", "Produce:x"} {
		if c.Toggle(key) {
			t.Errorf("Expected Toggle(%q) to be ignored", key)
		}
	}
	if len(mock.completions) != 0 {
		t.Errorf("Expected no remote calls for unknown keys, got %d", len(mock.completions))
	}
}

func TestToggleReportsCompletionInBackground(t *testing.T) {
	mock := &mockShoppingAPI{completeFired: make(chan struct{}, 1)}
	c := NewChecklist(listFixture(7), mock, logger.NewNop())

	key := ItemKey("Dairy", 0)
	c.Toggle(key)

	select {
	case <-mock.completeFired:
	case <-time.After(time.Second):
		t.Fatal("Expected a background completion call")
	}

	mock.mu.Lock()
	defer mock.mu.Unlock()
	got := mock.completions[0]
	if got.listID != 7 || got.itemKey != key || !got.completed {
		t.Errorf("Expected completion {7 %s true}, got %+v", key, got)
	}
}

func TestToggleFailureStaysLocal(t *testing.T) {
	mock := &mockShoppingAPI{
		completeErr:   &api.Error{StatusCode: http.StatusInternalServerError, Message: "boom"},
		completeFired: make(chan struct{}, 1),
	}
	c := NewChecklist(listFixture(7), mock, logger.NewNop())

	key := ItemKey("Produce", 1)
	if !c.Toggle(key) {
		t.Fatal("Expected the local toggle to succeed regardless of the remote")
	}
	<-mock.completeFired
	if !c.Checked(key) {
		t.Error("Expected the checked state kept after a remote failure")
	}
}

func TestToggleWithoutServerIDStaysOffline(t *testing.T) {
	mock := &mockShoppingAPI{completeFired: make(chan struct{}, 1)}
	c := NewChecklist(listFixture(0), mock, logger.NewNop())

	c.Toggle(ItemKey("Produce", 0))

	select {
	case <-mock.completeFired:
		t.Fatal("Expected no remote call for a list without a server ID")
	case <-time.After(50 * time.Millisecond):
	}
}
