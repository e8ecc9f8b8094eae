package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"sheetbudget/internal/auth"
	"sheetbudget/internal/config"
	"sheetbudget/internal/domain"
	"sheetbudget/internal/logger"
	"sheetbudget/internal/ratelimit"
	"sheetbudget/internal/service"
	"sheetbudget/internal/sheets"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "movements":
		runMovements(log)
	case "categories":
		runCategories(log)
	case "accounts":
		runAccounts(log)
	case "networth":
		runNetWorth(log)
	case "summary":
		runSummary(log)
	case "sync":
		runSync(log)
	case "status":
		runStatus(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Sheet Budget CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  movements   List or add income/expense movements")
	fmt.Println("  categories  List or add categories")
	fmt.Println("  accounts    List or add accounts")
	fmt.Println("  networth    Print the sum of all account balances")
	fmt.Println("  summary     Print and publish a monthly summary")
	fmt.Println("  sync        Replay queued offline mutations")
	fmt.Println("  status      Show per-service sync state")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// app wires the shared client and the three entity services.
type app struct {
	session    *auth.Session
	movements  *service.MovementService
	categories *service.CategoryService
	accounts   *service.AccountService
}

func newApp(ctx context.Context, log zerolog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log = logger.WithLevel(log, cfg.LogLevel)

	session := auth.NewStaticSession(cfg.OAuthToken)
	if cfg.SpreadsheetID != "" {
		session.SelectSpreadsheet(cfg.SpreadsheetID)
	}

	api, err := sheets.NewGoogleValuesAPI(ctx, session.TokenSource())
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(cfg.RateLimitPerMinute, cfg.MinRequestSpacing)
	client := sheets.NewClient(api, session, session, limiter,
		sheets.WithLogger(log),
		sheets.WithMaxRetries(cfg.MaxRetries),
	)

	categories := service.NewCategoryService(client, service.WithCategoryLogger(log))
	return &app{
		session:    session,
		movements:  service.NewMovementService(client, categories, service.WithMovementLogger(log)),
		categories: categories,
		accounts:   service.NewAccountService(client, service.WithAccountLogger(log)),
	}, nil
}

func (a *app) loadAll(ctx context.Context) error {
	if err := a.categories.Load(ctx); err != nil {
		return err
	}
	if err := a.movements.Load(ctx); err != nil {
		return err
	}
	return a.accounts.Load(ctx)
}

func commandContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	return logger.WithContext(ctx, log), cancel
}

// reportQueue tells the user when a mutation was queued offline instead of
// written through, so they know to run 'cli sync' later.
func reportQueue(s service.State) {
	if s.QueueLength > 0 {
		fmt.Printf("Offline: %d mutation(s) queued; run 'cli sync' when back online\n", s.QueueLength)
	}
}

func runMovements(log zerolog.Logger) {
	fs := flag.NewFlagSet("movements", flag.ExitOnError)
	add := fs.Bool("add", false, "Add a movement instead of listing")
	date := fs.String("date", time.Now().Format(domain.DateFormat), "Movement date (YYYY-MM-DD)")
	amount := fs.String("amount", "", "Positive amount")
	category := fs.String("category", "", "Category id")
	description := fs.String("description", "", "Free-text description")
	fs.Parse(os.Args[2:])

	ctx, cancel := commandContext(log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Setup failed")
	}
	if err := a.categories.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load categories")
	}
	if err := a.movements.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load movements")
	}

	if !*add {
		for _, m := range a.movements.List() {
			fmt.Printf("%s  %s  %-8s  %-10s  %s\n",
				m.ID, m.Date.Format(domain.DateFormat), m.Type, m.Amount, m.Description)
		}
		return
	}

	if *amount == "" || *category == "" {
		log.Fatal().Msg("Usage: cli movements -add -amount N -category ID [-date YYYY-MM-DD]")
	}
	parsedAmount, err := decimal.NewFromString(*amount)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid amount")
	}
	parsedDate, err := time.Parse(domain.DateFormat, *date)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date")
	}

	m, err := a.movements.Create(ctx, service.MovementInput{
		Date:        parsedDate,
		Amount:      parsedAmount,
		CategoryID:  *category,
		Description: *description,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to add movement")
	}
	fmt.Printf("Added movement %s (%s %s)\n", m.ID, m.Type, m.Amount)
	reportQueue(a.movements.State())
}

func runCategories(log zerolog.Logger) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	add := fs.Bool("add", false, "Add a category instead of listing")
	name := fs.String("name", "", "Display name")
	color := fs.String("color", "#808080", "Display color (#RRGGBB)")
	kind := fs.String("type", "expense", "Fixed type: income, expense or both")
	fs.Parse(os.Args[2:])

	ctx, cancel := commandContext(log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Setup failed")
	}
	if err := a.categories.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load categories")
	}

	if !*add {
		for _, c := range a.categories.List() {
			fmt.Printf("%s  %-20s  %s  %s\n", c.ID, c.Name, c.Color, c.Type)
		}
		return
	}

	if *name == "" {
		log.Fatal().Msg("Usage: cli categories -add -name NAME [-color #RRGGBB] [-type income|expense|both]")
	}
	c, err := a.categories.Create(ctx, &domain.Category{
		Name:  *name,
		Color: *color,
		Type:  domain.CategoryType(*kind),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to add category")
	}
	fmt.Printf("Added category %s (%s)\n", c.ID, c.Name)
	reportQueue(a.categories.State())
}

func runAccounts(log zerolog.Logger) {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	add := fs.Bool("add", false, "Add an account instead of listing")
	name := fs.String("name", "", "Display name")
	icon := fs.String("icon", "bank", "Display glyph")
	balance := fs.String("balance", "0", "Current balance")
	fs.Parse(os.Args[2:])

	ctx, cancel := commandContext(log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Setup failed")
	}
	if err := a.accounts.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load accounts")
	}

	if !*add {
		for _, acc := range a.accounts.List() {
			fmt.Printf("%s  %-20s  %s  %s\n", acc.ID, acc.Name, acc.Icon, acc.Balance)
		}
		return
	}

	if *name == "" {
		log.Fatal().Msg("Usage: cli accounts -add -name NAME [-icon GLYPH] [-balance N]")
	}
	parsedBalance, err := decimal.NewFromString(*balance)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid balance")
	}
	acc, err := a.accounts.Create(ctx, service.AccountInput{
		Name:    *name,
		Icon:    *icon,
		Balance: parsedBalance,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to add account")
	}
	fmt.Printf("Added account %s (%s, balance %s)\n", acc.ID, acc.Name, acc.Balance)
	reportQueue(a.accounts.State())
}

func runNetWorth(log zerolog.Logger) {
	ctx, cancel := commandContext(log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Setup failed")
	}
	if err := a.accounts.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load accounts")
	}

	fmt.Printf("Net worth: %s\n", a.accounts.NetWorth())
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	month := fs.String("month", time.Now().Format("2006-01"), "Month to summarize (YYYY-MM)")
	publish := fs.Bool("publish", false, "Write the summary row to the spreadsheet")
	fs.Parse(os.Args[2:])

	ctx, cancel := commandContext(log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Setup failed")
	}
	if err := a.categories.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load categories")
	}
	if err := a.movements.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load movements")
	}

	summary, err := a.movements.MonthlySummary(*month)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build summary")
	}
	if *publish {
		if summary, err = a.movements.PublishSummary(ctx, *month); err != nil {
			log.Fatal().Err(err).Msg("Failed to publish summary")
		}
	}

	fmt.Printf("\n=== %s ===\n", summary.Month)
	fmt.Printf("Income:    %s\n", summary.TotalIncome)
	fmt.Printf("Expense:   %s\n", summary.TotalExpense)
	fmt.Printf("Net:       %s\n", summary.Net)
	fmt.Printf("Movements: %d\n", summary.MovementCount)
	for categoryID, total := range summary.ByCategory {
		name := categoryID
		if c, ok := a.categories.Get(categoryID); ok {
			name = c.Name
		}
		fmt.Printf("  %-20s %s\n", name, total)
	}
}

func runSync(log zerolog.Logger) {
	ctx, cancel := commandContext(log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Setup failed")
	}

	total := service.ReplayResult{}
	for name, result := range map[string]service.ReplayResult{
		"categories": a.categories.ProcessQueue(ctx),
		"movements":  a.movements.ProcessQueue(ctx),
		"accounts":   a.accounts.ProcessQueue(ctx),
	} {
		total.Success += result.Success
		total.Failed += result.Failed
		log.Info().Str("service", name).Int("success", result.Success).Int("failed", result.Failed).Msg("Queue replayed")
	}
	fmt.Printf("Replayed %d queued mutations, %d failed\n", total.Success, total.Failed)
}

func runStatus(log zerolog.Logger) {
	ctx, cancel := commandContext(log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Setup failed")
	}
	if err := a.loadAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Load failed; reporting last known state")
	}

	printState := func(name string, s service.State) {
		fmt.Printf("%-12s online=%-5t queued=%-3d", name, s.IsOnline, s.QueueLength)
		if !s.LastSyncTime.IsZero() {
			fmt.Printf(" lastSync=%s", s.LastSyncTime.Format(time.RFC3339))
		}
		if s.Error != "" {
			fmt.Printf(" error=%q", s.Error)
		}
		fmt.Println()
	}
	printState("movements", a.movements.State())
	printState("categories", a.categories.State())
	printState("accounts", a.accounts.State())
}
