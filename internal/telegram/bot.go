// Package telegram is the chat frontend. Every command resolves its surface
// through the route guard before rendering, long operations post a status
// message and edit it in place, and selections ride on inline keyboards.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"macromate-client/internal/api"
	"macromate-client/internal/config"
	"macromate-client/internal/favorites"
	"macromate-client/internal/goals"
	"macromate-client/internal/planner"
	"macromate-client/internal/recipe"
	"macromate-client/internal/routes"
	"macromate-client/internal/session"
	"macromate-client/internal/shopping"
	"macromate-client/pkg/logger"
)

// Bot wires the Telegram API to the client's stores and resources.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config
	log *logger.Logger

	session   *session.Store
	goals     *goals.Resource
	workflow  *planner.Workflow
	shopping  *shopping.Resource
	recipes   *recipe.Service
	favorites *favorites.Resource

	mu        sync.Mutex
	checklist *shopping.Checklist
}

func NewBot(
	cfg *config.Config,
	log *logger.Logger,
	sessionStore *session.Store,
	goalsResource *goals.Resource,
	workflow *planner.Workflow,
	shoppingResource *shopping.Resource,
	recipeService *recipe.Service,
	favoritesResource *favorites.Resource,
) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Infow("authorized on telegram", "account", botAPI.Self.UserName)

	return &Bot{
		api:       botAPI,
		cfg:       cfg,
		log:       log,
		session:   sessionStore,
		goals:     goalsResource,
		workflow:  workflow,
		shopping:  shoppingResource,
		recipes:   recipeService,
		favorites: favoritesResource,
	}, nil
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if !b.allowed(update.CallbackQuery.From.ID, update.CallbackQuery.From.UserName) {
			return
		}
		go b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}
	if !b.allowed(update.Message.From.ID, update.Message.From.UserName) {
		return
	}

	go b.processMessage(ctx, update.Message)
}

func (b *Bot) allowed(userID int64, username string) bool {
	if b.cfg.TelegramAllowUserID == 0 || userID == b.cfg.TelegramAllowUserID {
		return true
	}
	b.log.Warnw("unauthorized telegram access attempt", "user_id", userID, "username", username)
	return false
}

// guard resolves a route for the current session and reports whether the
// surface may render. Redirects and the loading state answer in chat.
func (b *Bot) guard(chatID int64, route routes.Route) bool {
	decision := routes.Resolve(route, b.session.Snapshot())
	switch decision.Action {
	case routes.ActionRender:
		return true
	case routes.ActionWait:
		b.send(chatID, "⏳ Restoring your session, try again in a moment.")
		return false
	default:
		switch decision.Target {
		case routes.RouteLogin:
			b.send(chatID, "🔒 You need to sign in first: /login `<email> <password>`")
		case routes.RouteDashboard:
			b.send(chatID, "You're already signed in. Try /plan or /list.")
		default:
			b.send(chatID, "Use /start to begin.")
		}
		return false
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.HTTPTimeout)
	defer cancel()

	if !msg.IsCommand() {
		b.send(msg.Chat.ID, "Commands: /start /login /signup /logout /goals /setgoals /plan /list /recipe /meals")
		return
	}

	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg.Chat.ID)
	case "login":
		b.handleLogin(ctx, msg.Chat.ID, args)
	case "signup":
		b.handleSignup(ctx, msg.Chat.ID, args)
	case "logout":
		b.handleLogout(ctx, msg.Chat.ID)
	case "goals":
		b.handleGoals(ctx, msg.Chat.ID)
	case "setgoals":
		b.handleSetGoals(ctx, msg.Chat.ID, args)
	case "plan":
		b.handlePlan(ctx, msg.Chat.ID)
	case "list":
		b.handleList(ctx, msg.Chat.ID)
	case "recipe":
		b.handleRecipe(ctx, msg.Chat.ID, args)
	case "meals":
		b.handleFavorites(ctx, msg.Chat.ID)
	default:
		b.send(msg.Chat.ID, "Commands: /start /login /signup /logout /goals /setgoals /plan /list /recipe /meals")
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	snap := b.session.Snapshot()
	if snap.Loading {
		b.send(chatID, "⏳ Restoring your session...")
		return
	}
	if snap.Status != session.StatusAuthenticated {
		b.send(chatID, "👋 *Welcome to MacroMate!*\n\nSign in with /login `<email> <password>`\nor create an account with /signup `<email> <password> <first name> <last name>`.")
		return
	}

	g, err := b.goals.Get(ctx)
	if err != nil && !errors.Is(err, goals.ErrNoGoals) {
		b.sendError(chatID, "Could not load your goals", err)
		return
	}
	b.send(chatID, formatDashboard(snap.User, g))
}

func (b *Bot) handleLogin(ctx context.Context, chatID int64, args []string) {
	if !b.guard(chatID, routes.RouteLogin) {
		return
	}
	if len(args) != 2 {
		b.send(chatID, "Usage: /login `<email> <password>`")
		return
	}

	result := b.session.Login(ctx, api.Credentials{Email: args[0], Password: args[1]})
	if !result.Success {
		b.send(chatID, "❌ "+safeMarkdown(result.Error))
		return
	}
	b.send(chatID, "✅ Signed in. Use /plan to build today's meals.")
}

func (b *Bot) handleSignup(ctx context.Context, chatID int64, args []string) {
	if !b.guard(chatID, routes.RouteSignup) {
		return
	}
	if len(args) < 4 {
		b.send(chatID, "Usage: /signup `<email> <password> <first name> <last name>`")
		return
	}

	result := b.session.Signup(ctx, api.SignupRequest{
		Email:     args[0],
		Password:  args[1],
		FirstName: args[2],
		LastName:  strings.Join(args[3:], " "),
	})
	if !result.Success {
		b.send(chatID, "❌ "+safeMarkdown(result.Error))
		return
	}
	b.send(chatID, "✅ Account created and signed in.\nSet your goals with /setgoals `<kcal> <protein> <carbs> <fat>`.")
}

func (b *Bot) handleLogout(ctx context.Context, chatID int64) {
	b.session.Logout(ctx)
	b.mu.Lock()
	b.checklist = nil
	b.mu.Unlock()
	b.send(chatID, "👋 Signed out.")
}

func (b *Bot) handleGoals(ctx context.Context, chatID int64) {
	if !b.guard(chatID, routes.RouteMacroSetup) {
		return
	}

	g, err := b.goals.Get(ctx)
	if errors.Is(err, goals.ErrNoGoals) {
		b.send(chatID, "🎯 No goals yet. Set them with /setgoals `<kcal> <protein> <carbs> <fat>`.")
		return
	}
	if err != nil {
		b.sendError(chatID, "Could not load your goals", err)
		return
	}
	b.send(chatID, "🎯 *Daily Goals*\n"+formatMacroLine(g.Macros()))
}

func (b *Bot) handleSetGoals(ctx context.Context, chatID int64, args []string) {
	if !b.guard(chatID, routes.RouteMacroSetup) {
		return
	}
	if len(args) != 4 {
		b.send(chatID, "Usage: /setgoals `<kcal> <protein> <carbs> <fat>`")
		return
	}

	values := make([]float64, 4)
	for i, raw := range args {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			b.send(chatID, fmt.Sprintf("❌ %q is not a number.", raw))
			return
		}
		values[i] = v
	}
	g := api.MacroGoals{Calories: values[0], Proteins: values[1], Carbohydrates: values[2], Fats: values[3]}

	// Create on first save, replace wholesale afterwards.
	var saved *api.MacroGoals
	var err error
	if _, getErr := b.goals.Get(ctx); errors.Is(getErr, goals.ErrNoGoals) {
		saved, err = b.goals.Create(ctx, g)
	} else {
		saved, err = b.goals.Replace(ctx, g)
	}
	if err != nil {
		b.sendError(chatID, "Could not save your goals", err)
		return
	}
	b.send(chatID, "✅ Goals saved.\n"+formatMacroLine(saved.Macros()))
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64) {
	if !b.guard(chatID, routes.RouteMealPlan) {
		return
	}

	statusID, ok := b.sendStatus(chatID, "🧑‍🍳 *Loading today's suggestions...*")
	if !ok {
		return
	}

	if err := b.workflow.Start(ctx); err != nil {
		b.editError(chatID, statusID, "Could not load suggestions", err)
		return
	}

	snap := b.workflow.Snapshot()
	if snap.State == planner.StateNoGoals {
		b.edit(chatID, statusID, "🎯 Set your macro goals first: /setgoals `<kcal> <protein> <carbs> <fat>`", nil)
		return
	}

	keyboard := planKeyboard(snap)
	b.edit(chatID, statusID, formatPlan(snap), &keyboard)
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	if !b.guard(chatID, routes.RouteShoppingList) {
		return
	}

	today := time.Now().Format("2006-01-02")
	list, err := b.shopping.Get(ctx, today, today)
	if errors.Is(err, shopping.ErrNoList) {
		b.send(chatID, "🛒 No shopping list yet. Build a plan with /plan and generate one from there.")
		return
	}
	if err != nil {
		b.sendError(chatID, "Could not load the shopping list", err)
		return
	}

	checklist := b.shopping.NewChecklist(list)
	b.mu.Lock()
	b.checklist = checklist
	b.mu.Unlock()

	keyboard := checklistKeyboard(checklist)
	msg := tgbotapi.NewMessage(chatID, formatChecklist(checklist))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warnw("failed to send shopping list", "error", err)
	}
}

func (b *Bot) handleRecipe(ctx context.Context, chatID int64, args []string) {
	if !b.guard(chatID, routes.RouteMealPlan) {
		return
	}
	if len(args) != 1 {
		b.send(chatID, "Usage: /recipe `<id>`")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(chatID, fmt.Sprintf("❌ %q is not a recipe id.", args[0]))
		return
	}

	r, err := b.recipes.Get(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		b.send(chatID, "❌ No recipe with that id.")
		return
	}
	if err != nil {
		b.sendError(chatID, "Could not load the recipe", err)
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⭐ Save to My Meals", fmt.Sprintf("fav|%d", r.ID)),
	))
	msg := tgbotapi.NewMessage(chatID, formatRecipe(r))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warnw("failed to send recipe", "error", err)
	}
}

func (b *Bot) handleFavorites(ctx context.Context, chatID int64) {
	if !b.guard(chatID, routes.RouteMyMeals) {
		return
	}

	favs, err := b.favorites.List(ctx)
	if err != nil {
		b.sendError(chatID, "Could not load your meals", err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatFavorites(favs))
	msg.ParseMode = "Markdown"
	if len(favs) > 0 {
		msg.ReplyMarkup = favoritesKeyboard(favs)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warnw("failed to send favorites", "error", err)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.HTTPTimeout)
	defer cancel()

	// Answer immediately to remove the client-side spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Warnw("failed to answer callback", "error", err)
	}

	verb, arg, _ := strings.Cut(query.Data, "|")
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	switch verb {
	case "sel":
		b.handleSelect(ctx, chatID, messageID, arg)
	case "shuf":
		b.handleShuffle(ctx, chatID, messageID)
	case "gen":
		b.handleGenerate(ctx, chatID, messageID)
	case "chk":
		b.handleCheck(chatID, messageID, arg)
	case "fav":
		b.handleSaveFavorite(ctx, chatID, arg)
	case "unfav":
		b.handleRemoveFavorite(ctx, chatID, messageID, arg)
	}
}

func (b *Bot) handleSelect(ctx context.Context, chatID int64, messageID int, arg string) {
	slotName, idRaw, ok := strings.Cut(arg, "|")
	if !ok {
		return
	}
	slot, ok := planner.ParseSlot(slotName)
	if !ok {
		return
	}
	recipeID, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		return
	}

	var picked api.Recipe
	found := false
	for _, r := range b.workflow.Snapshot().Display[slot] {
		if r.ID == recipeID {
			picked = r
			found = true
			break
		}
	}
	if !found {
		return
	}

	// The persist failure surfaces in the re-rendered snapshot.
	if err := b.workflow.Select(ctx, slot, picked); err != nil {
		b.log.Warnw("meal selection failed", "slot", slot, "recipe_id", recipeID, "error", err)
	}
	b.renderPlanInto(chatID, messageID)
}

func (b *Bot) handleShuffle(ctx context.Context, chatID int64, messageID int) {
	if err := b.workflow.RefreshSuggestions(ctx); err != nil {
		b.log.Warnw("suggestion refresh failed", "error", err)
	}
	b.renderPlanInto(chatID, messageID)
}

func (b *Bot) handleGenerate(ctx context.Context, chatID int64, messageID int) {
	b.edit(chatID, messageID, "🛒 *Generating your shopping list...*", nil)

	list, err := b.workflow.GenerateList(ctx)
	if err != nil {
		b.renderPlanInto(chatID, messageID)
		return
	}

	checklist := b.shopping.NewChecklist(list)
	b.mu.Lock()
	b.checklist = checklist
	b.mu.Unlock()

	keyboard := checklistKeyboard(checklist)
	b.edit(chatID, messageID, formatChecklist(checklist), &keyboard)
}

func (b *Bot) handleCheck(chatID int64, messageID int, key string) {
	b.mu.Lock()
	checklist := b.checklist
	b.mu.Unlock()
	if checklist == nil {
		b.send(chatID, "That list has expired. Fetch it again with /list.")
		return
	}

	checklist.Toggle(key)
	keyboard := checklistKeyboard(checklist)
	b.edit(chatID, messageID, formatChecklist(checklist), &keyboard)
}

func (b *Bot) handleSaveFavorite(ctx context.Context, chatID int64, arg string) {
	recipeID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	fav, err := b.favorites.Add(ctx, recipeID)
	if err != nil {
		b.sendError(chatID, "Could not save the meal", err)
		return
	}
	b.send(chatID, fmt.Sprintf("⭐ *%s* saved to My Meals.", safeMarkdown(fav.Recipe.Title)))
}

func (b *Bot) handleRemoveFavorite(ctx context.Context, chatID int64, messageID int, arg string) {
	favoriteID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	if err := b.favorites.Remove(ctx, favoriteID); err != nil {
		b.sendError(chatID, "Could not remove the meal", err)
		return
	}

	favs, err := b.favorites.List(ctx)
	if err != nil {
		b.sendError(chatID, "Could not reload your meals", err)
		return
	}
	if len(favs) == 0 {
		b.edit(chatID, messageID, formatFavorites(favs), nil)
		return
	}
	keyboard := favoritesKeyboard(favs)
	b.edit(chatID, messageID, formatFavorites(favs), &keyboard)
}

func (b *Bot) renderPlanInto(chatID int64, messageID int) {
	snap := b.workflow.Snapshot()
	if snap.Err != nil && b.session.HandleUnauthorized(snap.Err) {
		b.edit(chatID, messageID, sessionExpiredText, nil)
		return
	}
	keyboard := planKeyboard(snap)
	b.edit(chatID, messageID, formatPlan(snap), &keyboard)
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warnw("failed to send message", "error", err)
	}
}

// sendStatus posts a placeholder that the finished result edits in place.
func (b *Bot) sendStatus(chatID int64, text string) (int, bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Warnw("failed to send status message", "error", err)
		return 0, false
	}
	return sent.MessageID, true
}

func (b *Bot) edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	edit.ReplyMarkup = keyboard
	if _, err := b.api.Send(edit); err != nil {
		b.log.Warnw("failed to edit message", "error", err)
	}
}

const sessionExpiredText = "🔒 Your session has expired. Sign in again with /login `<email> <password>`"

func (b *Bot) sendError(chatID int64, prefix string, err error) {
	b.log.Warnw(prefix, "error", err)
	if b.session.HandleUnauthorized(err) {
		b.send(chatID, sessionExpiredText)
		return
	}
	b.send(chatID, fmt.Sprintf("❌ *%s:* %s", prefix, safeMarkdown(err.Error())))
}

func (b *Bot) editError(chatID int64, messageID int, prefix string, err error) {
	b.log.Warnw(prefix, "error", err)
	if b.session.HandleUnauthorized(err) {
		b.edit(chatID, messageID, sessionExpiredText, nil)
		return
	}
	b.edit(chatID, messageID, fmt.Sprintf("❌ *%s:* %s", prefix, safeMarkdown(err.Error())), nil)
}
