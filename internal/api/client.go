package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenProvider supplies the current auth token, or "" when signed out.
type TokenProvider interface {
	Token() string
}

// Client talks to the MacroMate service. Requests carry the token from the
// provider, when present, as "Authorization: Token <value>".
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenProvider
}

// NewClient creates a Client against the given versioned base URL,
// e.g. "http://localhost:8000/api/v1".
func NewClient(baseURL string, timeout time.Duration, tokens TokenProvider) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Token "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// readErrorMessage extracts the server's error payload. The service answers
// either {"error": "..."} or a bare JSON string; both are kept verbatim.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var wrapped struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Error != "" {
		return wrapped.Error
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	return strings.TrimSpace(string(raw))
}

// Signup registers a new account. The returned token has not yet been
// verified against the identity endpoint.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/accounts/signup/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/accounts/login/", nil, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/accounts/logout/", nil, nil, nil)
}

// UserInfo fetches the profile behind the current token.
func (c *Client) UserInfo(ctx context.Context) (*UserProfile, error) {
	var out UserProfile
	if err := c.do(ctx, http.MethodGet, "/accounts/info", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MacroGoals fetches the user's daily targets. Absence is ErrNotFound.
func (c *Client) MacroGoals(ctx context.Context) (*MacroGoals, error) {
	var out MacroGoals
	if err := c.do(ctx, http.MethodGet, "/meal-planning/macro-goals/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMacroGoals stores a first goal set.
func (c *Client) CreateMacroGoals(ctx context.Context, goals MacroGoals) (*MacroGoals, error) {
	var out MacroGoals
	if err := c.do(ctx, http.MethodPost, "/meal-planning/macro-goals/", nil, goals, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReplaceMacroGoals replaces the goal set wholesale; there is no partial patch.
func (c *Client) ReplaceMacroGoals(ctx context.Context, goals MacroGoals) (*MacroGoals, error) {
	var out MacroGoals
	if err := c.do(ctx, http.MethodPut, "/meal-planning/macro-goals/", nil, goals, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggestions fetches recipe candidates for all three meal slots in one call.
func (c *Client) Suggestions(ctx context.Context) (*SuggestionsResponse, error) {
	var out SuggestionsResponse
	if err := c.do(ctx, http.MethodGet, "/meals/suggestions/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MealPlan fetches the plan for a date (ISO YYYY-MM-DD). Absence is ErrNotFound.
func (c *Client) MealPlan(ctx context.Context, date string) (*MealPlan, error) {
	q := url.Values{}
	q.Set("date", date)
	var out MealPlan
	if err := c.do(ctx, http.MethodGet, "/meals/plan/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveMealSelection persists one slot's recipe for a date. The body carries
// only that slot's id, so other slots are unaffected.
func (c *Client) SaveMealSelection(ctx context.Context, date, slot string, recipeID int64) (*MealPlan, error) {
	body := map[string]interface{}{
		"date":       date,
		slot + "_id": recipeID,
	}
	var out MealPlan
	if err := c.do(ctx, http.MethodPost, "/meals/plan/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecipeByID fetches full recipe detail including ingredients/instructions.
func (c *Client) RecipeByID(ctx context.Context, id int64) (*Recipe, error) {
	var out Recipe
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/meals/recipe/%d/", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateShoppingList (re)generates the list for a date range. The service
// replaces any existing list for the same range, so repeating is safe.
func (c *Client) GenerateShoppingList(ctx context.Context, startDate, endDate string) (*ShoppingList, error) {
	body := map[string]string{"start_date": startDate, "end_date": endDate}
	var out ShoppingList
	if err := c.do(ctx, http.MethodPost, "/meal-planning/shopping-list/generate/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShoppingList fetches the list for a date range. Absence is ErrNotFound.
func (c *Client) ShoppingList(ctx context.Context, startDate, endDate string) (*ShoppingList, error) {
	q := url.Values{}
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)
	var out ShoppingList
	if err := c.do(ctx, http.MethodGet, "/meal-planning/shopping-list/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteShoppingItem records an item check server-side. Callers treat this
// as best-effort; the local overlay stays authoritative for rendering.
func (c *Client) CompleteShoppingItem(ctx context.Context, listID int64, itemKey string, completed bool) error {
	body := map[string]interface{}{"item_key": itemKey, "completed": completed}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/meal-planning/shopping-list/%d/complete/", listID), nil, body, nil)
}

// Favorites lists saved recipes.
func (c *Client) Favorites(ctx context.Context) ([]FavoriteRecipe, error) {
	var out []FavoriteRecipe
	if err := c.do(ctx, http.MethodGet, "/meal-planning/favorites/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddFavorite saves a recipe.
func (c *Client) AddFavorite(ctx context.Context, recipeID int64) (*FavoriteRecipe, error) {
	body := map[string]int64{"recipe_id": recipeID}
	var out FavoriteRecipe
	if err := c.do(ctx, http.MethodPost, "/meal-planning/favorites/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateFavoriteNotes patches the notes on a favorite.
func (c *Client) UpdateFavoriteNotes(ctx context.Context, favoriteID int64, notes string) (*FavoriteRecipe, error) {
	body := map[string]string{"notes": notes}
	var out FavoriteRecipe
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/meal-planning/favorites/%d/", favoriteID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFavorite deletes a favorite.
func (c *Client) RemoveFavorite(ctx context.Context, favoriteID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/meal-planning/favorites/%d/", favoriteID), nil, nil, nil)
}
