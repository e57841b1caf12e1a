package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

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

type app struct {
	cfg       *config.Config
	log       *logger.Logger
	client    *api.Client
	session   *session.Store
	goals     *goals.Resource
	workflow  *planner.Workflow
	shopping  *shopping.Resource
	recipes   *recipe.Service
	favorites *favorites.Resource
}

func main() {
	log := logger.NewDevelopment()
	defer log.Sync()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tokens := session.NewTokenStore(cfg.TokenPath())
	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, tokens)
	sessionStore := session.NewStore(client, tokens, log)
	goalsResource := goals.NewResource(client)

	cache, err := recipe.OpenCache(cfg.CacheDBPath(), log)
	if err != nil {
		log.Warnf("Recipe cache unavailable, continuing without it: %v", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		client:    client,
		session:   sessionStore,
		goals:     goalsResource,
		workflow:  planner.NewWorkflow(client, goalsResource, log),
		shopping:  shopping.NewResource(client, log),
		recipes:   recipe.NewService(client, cache, log),
		favorites: favorites.NewResource(client),
	}

	ctx := context.Background()
	a.session.Initialize(ctx)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "login":
		a.cmdLogin(ctx, os.Args[2:])
	case "signup":
		a.cmdSignup(ctx, os.Args[2:])
	case "logout":
		a.session.Logout(ctx)
		fmt.Println("Signed out.")
	case "whoami":
		a.cmdWhoami(ctx)
	case "goals":
		a.cmdGoals(ctx)
	case "set-goals":
		a.cmdSetGoals(ctx, os.Args[2:])
	case "plan":
		a.cmdPlan(ctx)
	case "today":
		a.cmdToday(ctx, os.Args[2:])
	case "shopping":
		a.cmdShopping(ctx, os.Args[2:])
	case "recipe":
		a.cmdRecipe(ctx, os.Args[2:])
	case "meals":
		a.cmdMeals(ctx, os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: macromate <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  login        Sign in with email and password")
	fmt.Println("  signup       Create an account")
	fmt.Println("  logout       Sign out and clear the local token")
	fmt.Println("  whoami       Show the signed-in account")
	fmt.Println("  goals        Show your daily macro goals")
	fmt.Println("  set-goals    Set or replace your daily macro goals")
	fmt.Println("  plan         Interactive meal planning for today")
	fmt.Println("  today        Show the saved meal plan for a date")
	fmt.Println("  shopping     Show or generate the shopping list")
	fmt.Println("  recipe       Show a recipe by id")
	fmt.Println("  meals        Manage saved meals")
}

// guard resolves a surface against the session before rendering it. The CLI
// initializes the session synchronously, so the loading state never reaches
// here.
func (a *app) guard(route routes.Route) {
	decision := routes.Resolve(route, a.session.Snapshot())
	if decision.Action == routes.ActionRender {
		return
	}
	switch decision.Target {
	case routes.RouteLogin:
		fmt.Println("You need to sign in first: macromate login -email <email> -password <password>")
	case routes.RouteDashboard:
		fmt.Println("You are already signed in.")
	}
	os.Exit(1)
}

func (a *app) cmdLogin(ctx context.Context, args []string) {
	a.guard(routes.RouteLogin)

	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	email := loginCmd.String("email", "", "Account email")
	password := loginCmd.String("password", "", "Account password")
	loginCmd.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Both -email and -password are required.")
		os.Exit(1)
	}

	result := a.session.Login(ctx, api.Credentials{Email: *email, Password: *password})
	if !result.Success {
		fmt.Printf("Login failed: %s\n", result.Error)
		os.Exit(1)
	}
	snap := a.session.Snapshot()
	fmt.Printf("Signed in as %s %s <%s>.\n", snap.User.FirstName, snap.User.LastName, snap.User.Email)
}

func (a *app) cmdSignup(ctx context.Context, args []string) {
	a.guard(routes.RouteSignup)

	signupCmd := flag.NewFlagSet("signup", flag.ExitOnError)
	email := signupCmd.String("email", "", "Account email")
	password := signupCmd.String("password", "", "Account password")
	first := signupCmd.String("first", "", "First name")
	last := signupCmd.String("last", "", "Last name")
	signupCmd.Parse(args)

	if *email == "" || *password == "" || *first == "" || *last == "" {
		fmt.Println("-email, -password, -first and -last are all required.")
		os.Exit(1)
	}

	result := a.session.Signup(ctx, api.SignupRequest{
		Email:     *email,
		Password:  *password,
		FirstName: *first,
		LastName:  *last,
	})
	if !result.Success {
		fmt.Printf("Signup failed: %s\n", result.Error)
		os.Exit(1)
	}
	fmt.Println("Account created and signed in. Set your goals with: macromate set-goals")
}

func (a *app) cmdWhoami(ctx context.Context) {
	a.guard(routes.RouteDashboard)
	snap := a.session.Snapshot()
	fmt.Printf("%s %s <%s>\n", snap.User.FirstName, snap.User.LastName, snap.User.Email)
}

func (a *app) cmdGoals(ctx context.Context) {
	a.guard(routes.RouteMacroSetup)

	g, err := a.goals.Get(ctx)
	if errors.Is(err, goals.ErrNoGoals) {
		fmt.Println("No macro goals set yet. Use: macromate set-goals -calories 2000 -protein 150 -carbs 200 -fat 70")
		return
	}
	if err != nil {
		a.fail("Failed to fetch goals", err)
	}
	printGoals(g)
}

func (a *app) cmdSetGoals(ctx context.Context, args []string) {
	a.guard(routes.RouteMacroSetup)

	goalsCmd := flag.NewFlagSet("set-goals", flag.ExitOnError)
	calories := goalsCmd.Float64("calories", 0, "Daily calories (kcal)")
	protein := goalsCmd.Float64("protein", 0, "Daily protein (g)")
	carbs := goalsCmd.Float64("carbs", 0, "Daily carbohydrates (g)")
	fat := goalsCmd.Float64("fat", 0, "Daily fat (g)")
	goalsCmd.Parse(args)

	g := api.MacroGoals{Calories: *calories, Proteins: *protein, Carbohydrates: *carbs, Fats: *fat}

	var saved *api.MacroGoals
	var err error
	if _, getErr := a.goals.Get(ctx); errors.Is(getErr, goals.ErrNoGoals) {
		saved, err = a.goals.Create(ctx, g)
	} else {
		saved, err = a.goals.Replace(ctx, g)
	}
	if err != nil {
		a.fail("Failed to save goals", err)
	}
	fmt.Println("Goals saved.")
	printGoals(saved)
}

// cmdPlan runs the planning loop for today: show the suggestions, pick one
// recipe per slot, then generate the shopping list.
func (a *app) cmdPlan(ctx context.Context) {
	a.guard(routes.RouteMealPlan)

	fmt.Println("Loading today's suggestions...")
	if err := a.workflow.Start(ctx); err != nil {
		a.fail("Failed to start planning", err)
	}

	snap := a.workflow.Snapshot()
	if snap.State == planner.StateNoGoals {
		fmt.Println("Set your macro goals first: macromate set-goals")
		os.Exit(1)
	}

	printPlan(snap)
	fmt.Println(`Commands: "<slot> <number>" to pick, "shuffle", "generate", "quit"`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "q":
			return
		case "shuffle":
			if err := a.workflow.RefreshSuggestions(ctx); err != nil {
				a.checkExpired(err)
				fmt.Printf("Refresh failed: %v\n", err)
			}
			printPlan(a.workflow.Snapshot())
		case "generate":
			list, err := a.workflow.GenerateList(ctx)
			if err != nil {
				a.checkExpired(err)
				fmt.Printf("Generate failed: %v\n", err)
				continue
			}
			printShoppingList(a.shopping.NewChecklist(list))
			return
		default:
			a.planSelect(ctx, fields)
			printPlan(a.workflow.Snapshot())
		}
	}
}

func (a *app) planSelect(ctx context.Context, fields []string) {
	if len(fields) != 2 {
		fmt.Println(`Expected "<slot> <number>", e.g. "lunch 2".`)
		return
	}
	slot, ok := planner.ParseSlot(fields[0])
	if !ok {
		fmt.Printf("Unknown slot %q. Slots: breakfast, lunch, dinner.\n", fields[0])
		return
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		fmt.Printf("%q is not a number.\n", fields[1])
		return
	}

	display := a.workflow.Snapshot().Display[slot]
	if n < 1 || n > len(display) {
		fmt.Printf("Pick a number between 1 and %d.\n", len(display))
		return
	}

	if err := a.workflow.Select(ctx, slot, display[n-1]); err != nil {
		a.checkExpired(err)
		fmt.Printf("Selection failed: %v\n", err)
	}
}

func (a *app) cmdToday(ctx context.Context, args []string) {
	a.guard(routes.RouteMealPlan)

	todayCmd := flag.NewFlagSet("today", flag.ExitOnError)
	date := todayCmd.String("date", today(), "Plan date (YYYY-MM-DD)")
	todayCmd.Parse(args)

	plan, err := a.client.MealPlan(ctx, *date)
	if errors.Is(err, api.ErrNotFound) {
		fmt.Printf("No meal plan saved for %s. Build one with: macromate plan\n", *date)
		os.Exit(1)
	}
	if err != nil {
		a.fail("Failed to fetch meal plan", err)
	}

	fmt.Printf("Meal plan for %s\n", plan.Date)
	for _, entry := range []struct {
		slot string
		r    *api.Recipe
	}{
		{"Breakfast", plan.Breakfast},
		{"Lunch", plan.Lunch},
		{"Dinner", plan.Dinner},
	} {
		slot, r := entry.slot, entry.r
		if r != nil {
			fmt.Printf("  %-10s %s (%.0f kcal) [recipe %d]\n", slot+":", r.Title, r.Calories, r.ID)
		} else {
			fmt.Printf("  %-10s (not selected)\n", slot+":")
		}
	}
	if plan.Totals != nil {
		t := plan.Totals.Totals
		fmt.Printf("Totals: %.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat\n",
			t.Calories, t.Proteins, t.Carbohydrates, t.Fats)
	}
}

func (a *app) cmdShopping(ctx context.Context, args []string) {
	a.guard(routes.RouteShoppingList)

	shoppingCmd := flag.NewFlagSet("shopping", flag.ExitOnError)
	start := shoppingCmd.String("start", today(), "Range start (YYYY-MM-DD)")
	end := shoppingCmd.String("end", today(), "Range end (YYYY-MM-DD)")
	generate := shoppingCmd.Bool("generate", false, "Regenerate from the current meal plans")
	shoppingCmd.Parse(args)

	var list *api.ShoppingList
	var err error
	if *generate {
		list, err = a.shopping.Generate(ctx, *start, *end)
	} else {
		list, err = a.shopping.Get(ctx, *start, *end)
	}
	if errors.Is(err, shopping.ErrNoList) {
		fmt.Println("No shopping list for this range. Create a meal plan first: macromate plan")
		os.Exit(1)
	}
	if err != nil {
		a.fail("Failed to fetch shopping list", err)
	}
	printShoppingList(a.shopping.NewChecklist(list))
}

func (a *app) cmdRecipe(ctx context.Context, args []string) {
	a.guard(routes.RouteMealPlan)

	recipeCmd := flag.NewFlagSet("recipe", flag.ExitOnError)
	id := recipeCmd.Int64("id", 0, "Recipe id")
	recipeCmd.Parse(args)

	if *id == 0 {
		fmt.Println("-id is required.")
		os.Exit(1)
	}

	r, err := a.recipes.Get(ctx, *id)
	if errors.Is(err, api.ErrNotFound) {
		fmt.Printf("No recipe with id %d.\n", *id)
		os.Exit(1)
	}
	if err != nil {
		a.fail("Failed to fetch recipe", err)
	}
	printRecipe(r)
}

func (a *app) cmdMeals(ctx context.Context, args []string) {
	a.guard(routes.RouteMyMeals)

	if len(args) == 0 {
		favs, err := a.favorites.List(ctx)
		if err != nil {
			a.fail("Failed to fetch saved meals", err)
		}
		printFavorites(favs)
		return
	}

	switch args[0] {
	case "add":
		addCmd := flag.NewFlagSet("meals add", flag.ExitOnError)
		recipeID := addCmd.Int64("recipe", 0, "Recipe id to save")
		addCmd.Parse(args[1:])
		fav, err := a.favorites.Add(ctx, *recipeID)
		if err != nil {
			a.fail("Failed to save meal", err)
		}
		fmt.Printf("Saved %q to your meals.\n", fav.Recipe.Title)
	case "note":
		noteCmd := flag.NewFlagSet("meals note", flag.ExitOnError)
		favID := noteCmd.Int64("id", 0, "Saved meal id")
		text := noteCmd.String("text", "", "Note text")
		noteCmd.Parse(args[1:])
		if _, err := a.favorites.UpdateNotes(ctx, *favID, *text); err != nil {
			a.fail("Failed to update note", err)
		}
		fmt.Println("Note updated.")
	case "remove":
		removeCmd := flag.NewFlagSet("meals remove", flag.ExitOnError)
		favID := removeCmd.Int64("id", 0, "Saved meal id")
		removeCmd.Parse(args[1:])
		if err := a.favorites.Remove(ctx, *favID); err != nil {
			a.fail("Failed to remove meal", err)
		}
		fmt.Println("Removed.")
	default:
		fmt.Printf("Unknown meals subcommand: %s (expected add, note or remove)\n", args[0])
		os.Exit(1)
	}
}

func (a *app) fail(prefix string, err error) {
	a.checkExpired(err)
	fmt.Printf("%s: %v\n", prefix, err)
	os.Exit(1)
}

// checkExpired exits with a sign-in prompt when a resource call reports a
// rejected token. The session reset happens inside the store.
func (a *app) checkExpired(err error) {
	if a.session.HandleUnauthorized(err) {
		fmt.Println("Your session has expired. Sign in again with: macromate login -email <email> -password <password>")
		os.Exit(1)
	}
}

func printGoals(g *api.MacroGoals) {
	fmt.Printf("Calories: %.0f kcal\nProtein:  %.0f g\nCarbs:    %.0f g\nFat:      %.0f g\n",
		g.Calories, g.Proteins, g.Carbohydrates, g.Fats)
}

func printPlan(snap planner.Snapshot) {
	fmt.Printf("\nMeal plan for %s\n", snap.Date)
	if snap.State == planner.StateSuggestionsFailed {
		fmt.Println(`Couldn't load suggestions. Type "shuffle" to retry.`)
		if snap.Err != nil {
			fmt.Printf("Warning: %v\n", snap.Err)
		}
		return
	}
	for _, slot := range planner.Slots() {
		fmt.Printf("\n%s:\n", strings.ToUpper(string(slot)[:1])+string(slot)[1:])
		if len(snap.Display[slot]) == 0 {
			fmt.Println("  (no suggestions)")
		}
		for i, r := range snap.Display[slot] {
			mark := " "
			if sel := snap.Selected[slot]; sel != nil && sel.ID == r.ID {
				mark = "*"
			}
			fmt.Printf("  %s %d. %s (%.0f kcal, %.0fg protein)\n", mark, i+1, r.Title, r.Calories, r.Proteins)
		}
	}

	fmt.Printf("\nTotals: %.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat\n",
		snap.Totals.Calories, snap.Totals.Proteins, snap.Totals.Carbohydrates, snap.Totals.Fats)
	if snap.Goals != nil {
		fmt.Printf("Goals:  %.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat\n",
			snap.Goals.Calories, snap.Goals.Proteins, snap.Goals.Carbohydrates, snap.Goals.Fats)
	}
	if snap.CanGenerate {
		fmt.Println(`All slots filled. Type "generate" for the shopping list.`)
	}
	if snap.Err != nil {
		fmt.Printf("Warning: %v\n", snap.Err)
	}
}

func printShoppingList(c *shopping.Checklist) {
	list := c.List()
	fmt.Printf("\nShopping list %s to %s (%d items)\n", list.StartDate, list.EndDate, list.TotalItems)
	for _, aisle := range c.Aisles() {
		fmt.Printf("\n%s:\n", aisle)
		for _, item := range list.Aisles[aisle] {
			fmt.Printf("  - %s", item.Name)
			if item.Amount > 0 {
				fmt.Printf(" (%g %s)", item.Amount, item.Unit)
			}
			fmt.Println()
		}
	}
	if list.TotalEstimatedCost > 0 {
		fmt.Printf("\nEstimated cost: $%.2f\n", list.TotalEstimatedCost)
	}

	if len(list.MealBreakdown) > 0 {
		fmt.Println("\nCost per meal:")
		meals := make([]string, 0, len(list.MealBreakdown))
		for name := range list.MealBreakdown {
			meals = append(meals, name)
		}
		sort.Strings(meals)
		for _, name := range meals {
			fmt.Printf("  %s: $%.2f per serving\n", name, list.MealBreakdown[name].CostPerServing)
		}
	}
}

func printRecipe(r *api.Recipe) {
	fmt.Printf("%s (id %d)\n", r.Title, r.ID)
	if r.ReadyInMinutes > 0 {
		fmt.Printf("Ready in %d minutes", r.ReadyInMinutes)
		if r.Servings > 0 {
			fmt.Printf(", %d servings", r.Servings)
		}
		fmt.Println()
	}
	fmt.Printf("%.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat\n",
		r.Calories, r.Proteins, r.Carbohydrates, r.Fats)

	if r.Summary != "" {
		fmt.Printf("\n%s\n", recipe.CleanHTML(r.Summary))
	}
	if r.Ingredients != "" {
		fmt.Printf("\nIngredients:\n%s\n", recipe.CleanHTML(r.Ingredients))
	}
	if r.Instructions != "" {
		fmt.Printf("\nInstructions:\n%s\n", recipe.CleanHTML(r.Instructions))
	}
	if r.SourceURL != "" {
		fmt.Printf("\nSource: %s\n", r.SourceURL)
	}
}

func printFavorites(favs []api.FavoriteRecipe) {
	if len(favs) == 0 {
		fmt.Println("No saved meals yet. Save one with: macromate meals add -recipe <id>")
		return
	}
	for _, f := range favs {
		fmt.Printf("%d. %s (%.0f kcal) [recipe %d]\n", f.ID, f.Recipe.Title, f.Recipe.Calories, f.Recipe.ID)
		if f.Notes != "" {
			fmt.Printf("   note: %s\n", f.Notes)
		}
	}
}

func today() string {
	return time.Now().Format("2006-01-02")
}
