package api

// UserProfile is the authenticated account's identity as returned by
// GET /accounts/info.
type UserProfile struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest are the signup form fields.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// AuthResponse is returned by signup and login. The token is opaque;
// identity still has to be established with a follow-up UserInfo call.
type AuthResponse struct {
	Token   string `json:"token"`
	Account string `json:"account"`
}

// Macros is an element-wise set of nutrition values.
type Macros struct {
	Calories      float64 `json:"calories"`
	Proteins      float64 `json:"proteins"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fats          float64 `json:"fats"`
}

// Add returns the element-wise sum of two macro sets.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories:      m.Calories + o.Calories,
		Proteins:      m.Proteins + o.Proteins,
		Carbohydrates: m.Carbohydrates + o.Carbohydrates,
		Fats:          m.Fats + o.Fats,
	}
}

// MacroGoals are the user's daily nutrition targets, owned one-per-user.
type MacroGoals struct {
	ID            int64   `json:"id,omitempty"`
	Calories      float64 `json:"calories"`
	Proteins      float64 `json:"proteins"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fats          float64 `json:"fats"`
}

// Macros returns the goal values as a macro set.
func (g MacroGoals) Macros() Macros {
	return Macros{
		Calories:      g.Calories,
		Proteins:      g.Proteins,
		Carbohydrates: g.Carbohydrates,
		Fats:          g.Fats,
	}
}

// Recipe is a suggested or selected recipe. Summary and Instructions may
// contain HTML as delivered by the nutrition provider.
type Recipe struct {
	ID             int64   `json:"id"`
	SpoonacularID  int64   `json:"spoonacular_id,omitempty"`
	Title          string  `json:"title"`
	Image          string  `json:"image,omitempty"`
	ReadyInMinutes int     `json:"ready_in_minutes"`
	Servings       int     `json:"servings"`
	Calories       float64 `json:"calories"`
	Proteins       float64 `json:"proteins"`
	Carbohydrates  float64 `json:"carbohydrates"`
	Fats           float64 `json:"fats"`
	Summary        string  `json:"summary,omitempty"`
	Instructions   string  `json:"instructions,omitempty"`
	Ingredients    string  `json:"ingredients,omitempty"`
	MealType       string  `json:"meal_type,omitempty"`
	SourceURL      string  `json:"source_url,omitempty"`
}

// Macros returns the recipe's nutrition contribution.
func (r Recipe) Macros() Macros {
	return Macros{
		Calories:      r.Calories,
		Proteins:      r.Proteins,
		Carbohydrates: r.Carbohydrates,
		Fats:          r.Fats,
	}
}

// Suggestions holds one candidate list per meal slot.
type Suggestions struct {
	Breakfast []Recipe `json:"breakfast"`
	Lunch     []Recipe `json:"lunch"`
	Dinner    []Recipe `json:"dinner"`
}

// SuggestionsResponse is returned by GET /meals/suggestions/.
type SuggestionsResponse struct {
	Suggestions Suggestions `json:"suggestions"`
	DailyGoals  MacroGoals  `json:"daily_goals"`
}

// PlanTotals carries the server-computed running totals alongside the goal
// snapshot they were computed against. The server is authoritative here.
type PlanTotals struct {
	Totals     Macros     `json:"totals"`
	DailyGoals MacroGoals `json:"daily_goals"`
}

// MealPlan is a single day's plan as returned by the plan endpoints.
type MealPlan struct {
	ID        int64       `json:"id"`
	Date      string      `json:"date"`
	Breakfast *Recipe     `json:"breakfast"`
	Lunch     *Recipe     `json:"lunch"`
	Dinner    *Recipe     `json:"dinner"`
	Totals    *PlanTotals `json:"totals,omitempty"`
}

// ShoppingItem is one consolidated ingredient on the shopping list.
type ShoppingItem struct {
	Name          string   `json:"name"`
	Amount        float64  `json:"amount"`
	Unit          string   `json:"unit"`
	Aisle         string   `json:"aisle"`
	EstimatedCost float64  `json:"estimated_cost"`
	UsedIn        []string `json:"used_in,omitempty"`
}

// MealContribution maps a recipe to its share of the shopping list.
type MealContribution struct {
	MealType        string  `json:"meal_type"`
	CostPerServing  float64 `json:"cost_per_serving"`
	TotalRecipeCost float64 `json:"total_recipe_cost"`
}

// ShoppingList is the generated list for a date range, grouped by aisle.
type ShoppingList struct {
	ID                 int64                       `json:"id"`
	StartDate          string                      `json:"start_date"`
	EndDate            string                      `json:"end_date"`
	Aisles             map[string][]ShoppingItem   `json:"aisles"`
	MealBreakdown      map[string]MealContribution `json:"meal_breakdown"`
	TotalItems         int                         `json:"total_items"`
	TotalEstimatedCost float64                     `json:"total_estimated_cost"`
}

// FavoriteRecipe is a saved recipe reference.
type FavoriteRecipe struct {
	ID     int64  `json:"id"`
	Recipe Recipe `json:"recipe"`
	Notes  string `json:"notes,omitempty"`
}
