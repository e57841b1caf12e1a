package goals

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"macromate-client/internal/api"
)

type mockGoalsAPI struct {
	getResp *api.MacroGoals
	getErr  error

	createCalls  int
	replaceCalls int
}

func (m *mockGoalsAPI) MacroGoals(ctx context.Context) (*api.MacroGoals, error) {
	return m.getResp, m.getErr
}

func (m *mockGoalsAPI) CreateMacroGoals(ctx context.Context, g api.MacroGoals) (*api.MacroGoals, error) {
	m.createCalls++
	return &g, nil
}

func (m *mockGoalsAPI) ReplaceMacroGoals(ctx context.Context, g api.MacroGoals) (*api.MacroGoals, error) {
	m.replaceCalls++
	return &g, nil
}

func TestValidate(t *testing.T) {
	t.Run("AllZeroRejected", func(t *testing.T) {
		err := Validate(api.MacroGoals{})
		if !errors.Is(err, ErrAllZero) {
			t.Fatalf("Expected ErrAllZero, got %v", err)
		}
	})

	t.Run("SinglePositiveFieldAccepted", func(t *testing.T) {
		if err := Validate(api.MacroGoals{Proteins: 150}); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	})

	t.Run("NegativeRejected", func(t *testing.T) {
		if err := Validate(api.MacroGoals{Calories: 2000, Fats: -1}); err == nil {
			t.Fatal("Expected an error for a negative value, got nil")
		}
	})
}

func TestCreateAllZeroSkipsNetwork(t *testing.T) {
	mock := &mockGoalsAPI{}
	resource := NewResource(mock)

	_, err := resource.Create(context.Background(), api.MacroGoals{})
	if !errors.Is(err, ErrAllZero) {
		t.Fatalf("Expected ErrAllZero, got %v", err)
	}
	if mock.createCalls != 0 {
		t.Errorf("Expected no network call for an all-zero goal set, got %d", mock.createCalls)
	}

	_, err = resource.Replace(context.Background(), api.MacroGoals{})
	if !errors.Is(err, ErrAllZero) {
		t.Fatalf("Expected ErrAllZero, got %v", err)
	}
	if mock.replaceCalls != 0 {
		t.Errorf("Expected no network call for an all-zero replace, got %d", mock.replaceCalls)
	}
}

func TestGet(t *testing.T) {
	t.Run("AbsenceMapsToErrNoGoals", func(t *testing.T) {
		mock := &mockGoalsAPI{getErr: &api.Error{StatusCode: http.StatusNotFound, Message: "No macro goals found"}}
		resource := NewResource(mock)

		_, err := resource.Get(context.Background())
		if !errors.Is(err, ErrNoGoals) {
			t.Fatalf("Expected ErrNoGoals, got %v", err)
		}
	})

	t.Run("OtherErrorsPassThrough", func(t *testing.T) {
		mock := &mockGoalsAPI{getErr: &api.Error{StatusCode: http.StatusInternalServerError}}
		resource := NewResource(mock)

		_, err := resource.Get(context.Background())
		if errors.Is(err, ErrNoGoals) {
			t.Fatal("A server error must not look like expected absence")
		}
		if err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})

	t.Run("Success", func(t *testing.T) {
		mock := &mockGoalsAPI{getResp: &api.MacroGoals{Calories: 2000, Proteins: 150}}
		resource := NewResource(mock)

		goals, err := resource.Get(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if goals.Calories != 2000 || goals.Proteins != 150 {
			t.Errorf("Expected goals {2000, 150}, got %+v", goals)
		}
	})
}
