package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"macromate-client/internal/api"
	"macromate-client/internal/planner"
	"macromate-client/internal/recipe"
	"macromate-client/internal/shopping"
)

var slotEmoji = map[planner.Slot]string{
	planner.SlotBreakfast: "🍳",
	planner.SlotLunch:     "🥗",
	planner.SlotDinner:    "🍲",
}

func formatDashboard(user *api.UserProfile, goals *api.MacroGoals) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👋 *Welcome back, %s!*\n\n", safeMarkdown(user.FirstName)))
	if goals != nil {
		sb.WriteString("🎯 *Daily Goals*\n")
		sb.WriteString(formatMacroLine(goals.Macros()))
		sb.WriteString("\n\nUse /plan to build today's meals.")
	} else {
		sb.WriteString("You haven't set macro goals yet.\nUse /setgoals `<kcal> <protein> <carbs> <fat>` to get started.")
	}
	return sb.String()
}

func formatMacroLine(m api.Macros) string {
	return fmt.Sprintf("%.0f kcal • %.0fg protein • %.0fg carbs • %.0fg fat",
		m.Calories, m.Proteins, m.Carbohydrates, m.Fats)
}

func formatPlan(snap planner.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Meal Plan — %s*\n\n", snap.Date))

	if snap.State == planner.StateSuggestionsFailed {
		sb.WriteString("⚠️ Couldn't load suggestions. Tap 🔀 Shuffle to retry.")
		if snap.Err != nil {
			sb.WriteString(fmt.Sprintf("\n_%s_", safeMarkdown(snap.Err.Error())))
		}
		return sb.String()
	}

	for _, slot := range planner.Slots() {
		sb.WriteString(fmt.Sprintf("%s *%s*\n", slotEmoji[slot], titleCase(string(slot))))
		if sel := snap.Selected[slot]; sel != nil {
			sb.WriteString(fmt.Sprintf("✅ %s (%.0f kcal)\n", safeMarkdown(sel.Title), sel.Calories))
		} else if len(snap.Display[slot]) == 0 {
			sb.WriteString("_No suggestions for this slot_\n")
		} else {
			sb.WriteString("_Pick one below_\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("📊 *Totals*\n")
	sb.WriteString(formatMacroLine(snap.Totals))
	if snap.Goals != nil {
		sb.WriteString(fmt.Sprintf("\n🎯 *Goals*\n%s", formatMacroLine(snap.Goals.Macros())))
	}

	if snap.Err != nil {
		sb.WriteString(fmt.Sprintf("\n\n⚠️ %s", safeMarkdown(snap.Err.Error())))
	}
	return sb.String()
}

func planKeyboard(snap planner.Snapshot) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, slot := range planner.Slots() {
		var row []tgbotapi.InlineKeyboardButton
		for _, r := range snap.Display[slot] {
			label := fmt.Sprintf("%s %s", slotEmoji[slot], safeMarkdown(r.Title))
			if sel := snap.Selected[slot]; sel != nil && sel.ID == r.ID {
				label = "✅ " + safeMarkdown(r.Title)
			}
			data := fmt.Sprintf("sel|%s|%d", slot, r.ID)
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data))
			if len(row) == 2 {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}

	actions := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🔀 Shuffle", "shuf|"),
	}
	if snap.CanGenerate {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("🛒 Generate List", "gen|"))
	}
	rows = append(rows, actions)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatChecklist(c *shopping.Checklist) string {
	list := c.List()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 *Shopping List* (%s → %s)\n", list.StartDate, list.EndDate))

	checked, total := c.Progress()
	sb.WriteString(fmt.Sprintf("_%d of %d checked_\n\n", checked, total))

	for _, aisle := range c.Aisles() {
		sb.WriteString(fmt.Sprintf("*%s*\n", safeMarkdown(aisle)))
		for i, item := range list.Aisles[aisle] {
			mark := "⬜"
			if c.Checked(shopping.ItemKey(aisle, i)) {
				mark = "✅"
			}
			sb.WriteString(fmt.Sprintf("%s %s", mark, safeMarkdown(item.Name)))
			if item.Amount > 0 {
				sb.WriteString(fmt.Sprintf(" — %s %s", trimZeros(item.Amount), item.Unit))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if list.TotalEstimatedCost > 0 {
		sb.WriteString(fmt.Sprintf("💰 *Estimated cost:* $%.2f", list.TotalEstimatedCost))
	}
	return sb.String()
}

func checklistKeyboard(c *shopping.Checklist) tgbotapi.InlineKeyboardMarkup {
	list := c.List()

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, aisle := range c.Aisles() {
		for i, item := range list.Aisles[aisle] {
			key := shopping.ItemKey(aisle, i)
			mark := "⬜"
			if c.Checked(key) {
				mark = "✅"
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(mark+" "+safeMarkdown(item.Name), "chk|"+key))
			if len(row) == 2 {
				rows = append(rows, row)
				row = nil
			}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatRecipe(r *api.Recipe) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🍽 *%s*\n", safeMarkdown(r.Title)))
	if r.ReadyInMinutes > 0 {
		sb.WriteString(fmt.Sprintf("⏱ %d min", r.ReadyInMinutes))
		if r.Servings > 0 {
			sb.WriteString(fmt.Sprintf(" • %d servings", r.Servings))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(formatMacroLine(r.Macros()))
	sb.WriteString("\n")

	if r.Summary != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", safeMarkdown(recipe.CleanHTML(r.Summary))))
	}
	if r.Ingredients != "" {
		sb.WriteString(fmt.Sprintf("\n🧺 *Ingredients*\n%s\n", safeMarkdown(recipe.CleanHTML(r.Ingredients))))
	}
	if r.Instructions != "" {
		sb.WriteString(fmt.Sprintf("\n👨‍🍳 *Instructions*\n%s\n", safeMarkdown(recipe.CleanHTML(r.Instructions))))
	}
	if r.SourceURL != "" {
		sb.WriteString(fmt.Sprintf("\n🔗 %s", r.SourceURL))
	}
	return sb.String()
}

func formatFavorites(favs []api.FavoriteRecipe) string {
	if len(favs) == 0 {
		return "⭐ You have no saved meals yet.\nOpen a recipe with /recipe `<id>` and tap Save."
	}

	var sb strings.Builder
	sb.WriteString("⭐ *My Meals*\n\n")
	for _, f := range favs {
		sb.WriteString(fmt.Sprintf("• *%s* (%.0f kcal) — /recipe %d\n", safeMarkdown(f.Recipe.Title), f.Recipe.Calories, f.Recipe.ID))
		if f.Notes != "" {
			sb.WriteString(fmt.Sprintf("  _%s_\n", safeMarkdown(f.Notes)))
		}
	}
	return sb.String()
}

func favoritesKeyboard(favs []api.FavoriteRecipe) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range favs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+safeMarkdown(f.Recipe.Title), fmt.Sprintf("unfav|%d", f.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// safeMarkdown keeps user and server text from breaking Telegram's Markdown
// parser.
func safeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "_", " ")
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func trimZeros(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
