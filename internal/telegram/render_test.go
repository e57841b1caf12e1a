package telegram

import (
	"strings"
	"testing"

	"macromate-client/internal/api"
	"macromate-client/internal/planner"
	"macromate-client/internal/shopping"
	"macromate-client/pkg/logger"
)

func TestFormatPlan(t *testing.T) {
	oats := api.Recipe{ID: 1, Title: "Oats", Calories: 350, Proteins: 15}
	snap := planner.Snapshot{
		State: planner.StateSuggestionsReady,
		Date:  "2026-09-01",
		Goals: &api.MacroGoals{Calories: 2000, Proteins: 150},
		Display: map[planner.Slot][]api.Recipe{
			planner.SlotBreakfast: {oats},
			planner.SlotLunch:     {},
			planner.SlotDinner:    {{ID: 4, Title: "Salmon", Calories: 550}},
		},
		Selected: map[planner.Slot]*api.Recipe{planner.SlotBreakfast: &oats},
		Totals:   api.Macros{Calories: 350, Proteins: 15},
	}

	text := formatPlan(snap)
	for _, want := range []string{"2026-09-01", "✅ Oats", "No suggestions for this slot", "350 kcal"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected plan text to contain %q, got:\n%s", want, text)
		}
	}
}

func TestPlanKeyboard(t *testing.T) {
	snap := planner.Snapshot{
		Display: map[planner.Slot][]api.Recipe{
			planner.SlotBreakfast: {{ID: 1, Title: "Oats"}},
			planner.SlotLunch:     {{ID: 3, Title: "Chicken Bowl"}},
			planner.SlotDinner:    {{ID: 4, Title: "Salmon"}},
		},
		Selected:    map[planner.Slot]*api.Recipe{},
		CanGenerate: false,
	}

	keyboard := planKeyboard(snap)
	var data []string
	for _, row := range keyboard.InlineKeyboard {
		for _, btn := range row {
			data = append(data, *btn.CallbackData)
		}
	}

	for _, want := range []string{"sel|breakfast|1", "sel|lunch|3", "sel|dinner|4", "shuf|"} {
		found := false
		for _, d := range data {
			if d == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected callback data %q, got %v", want, data)
		}
	}
	for _, d := range data {
		if d == "gen|" {
			t.Error("Expected no generate button before all slots are filled")
		}
	}

	snap.CanGenerate = true
	keyboard = planKeyboard(snap)
	last := keyboard.InlineKeyboard[len(keyboard.InlineKeyboard)-1]
	if *last[len(last)-1].CallbackData != "gen|" {
		t.Error("Expected a generate button once all slots are filled")
	}
}

func TestFormatChecklist(t *testing.T) {
	list := &api.ShoppingList{
		ID:        3,
		StartDate: "2026-09-01",
		EndDate:   "2026-09-01",
		Aisles: map[string][]api.ShoppingItem{
			"Produce": {{Name: "Spinach", Amount: 200, Unit: "g"}},
		},
		TotalItems:         1,
		TotalEstimatedCost: 4.5,
	}
	c := shopping.NewChecklist(list, nil, logger.NewNop())

	text := formatChecklist(c)
	for _, want := range []string{"⬜ Spinach", "0 of 1 checked", "$4.50"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected checklist to contain %q, got:\n%s", want, text)
		}
	}

	c.Toggle(shopping.ItemKey("Produce", 0))
	if !strings.Contains(formatChecklist(c), "✅ Spinach") {
		t.Error("Expected the toggled item rendered as checked")
	}
}

func TestServerTextSanitized(t *testing.T) {
	// Titles and item names come from the service and must never carry
	// characters that break Telegram's Markdown parsing.
	spiky := api.Recipe{ID: 1, Title: "Mac*aroni _and_ `cheese`", Calories: 600}

	t.Run("Plan", func(t *testing.T) {
		snap := planner.Snapshot{
			Date:     "2026-09-01",
			Display:  map[planner.Slot][]api.Recipe{planner.SlotBreakfast: {spiky}},
			Selected: map[planner.Slot]*api.Recipe{planner.SlotBreakfast: &spiky},
		}
		text := formatPlan(snap)
		if strings.Contains(text, "Mac*aroni") || strings.Contains(text, "`cheese`") {
			t.Errorf("Expected the title sanitized in the plan text, got:\n%s", text)
		}

		keyboard := planKeyboard(snap)
		label := keyboard.InlineKeyboard[0][0].Text
		if strings.ContainsAny(label, "*`") {
			t.Errorf("Expected the title sanitized in the button label, got %q", label)
		}
	})

	t.Run("Recipe", func(t *testing.T) {
		if text := formatRecipe(&spiky); strings.Contains(text, "Mac*aroni") {
			t.Errorf("Expected the title sanitized in the recipe text, got:\n%s", text)
		}
	})

	t.Run("Favorites", func(t *testing.T) {
		favs := []api.FavoriteRecipe{{ID: 9, Recipe: spiky}}
		if text := formatFavorites(favs); strings.Contains(text, "Mac*aroni") {
			t.Errorf("Expected the title sanitized in the favorites text, got:\n%s", text)
		}
		label := favoritesKeyboard(favs).InlineKeyboard[0][0].Text
		if strings.ContainsAny(label, "*`") {
			t.Errorf("Expected the title sanitized in the remove button, got %q", label)
		}
	})

	t.Run("Checklist", func(t *testing.T) {
		list := &api.ShoppingList{
			Aisles: map[string][]api.ShoppingItem{
				"Dry *Goods*": {{Name: "Spag_hetti_"}},
			},
			TotalItems: 1,
		}
		c := shopping.NewChecklist(list, nil, logger.NewNop())
		text := formatChecklist(c)
		if strings.Contains(text, "*Goods*") || strings.Contains(text, "_hetti_") {
			t.Errorf("Expected aisle and item names sanitized, got:\n%s", text)
		}
	})
}

func TestSafeMarkdown(t *testing.T) {
	in := "boom `rm -rf` *bold* _it_"
	out := safeMarkdown(in)
	for _, banned := range []string{"`", "*", "_"} {
		if strings.Contains(out, banned) {
			t.Errorf("Expected %q stripped, got %q", banned, out)
		}
	}
}
