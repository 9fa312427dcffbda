package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mvano/budgeteer/internal/config"
	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
	"github.com/mvano/budgeteer/internal/logger"
	"github.com/mvano/budgeteer/internal/normalize"
	"github.com/mvano/budgeteer/internal/service"
)

// app holds the wired configuration, store and services shared by all
// subcommands.
type app struct {
	cfg config.Config
	log zerolog.Logger
	db  *sql.DB

	transactions *repository.TransactionRepo
	categories   *repository.CategoryRepo
	patterns     *repository.PatternRepo
	budgets      *repository.BudgetRepo

	importer      *service.Importer
	recategorizer *service.Recategorizer
	budgeter      *service.Budgeter
	planner       *service.Planner
	amortizer     *service.Amortizer
	analytics     *service.Analytics
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	a.db = db

	if err := database.SeedDefaults(cmd.Context(), db); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	a.transactions = repository.NewTransactionRepo(db)
	a.categories = repository.NewCategoryRepo(db)
	a.patterns = repository.NewPatternRepo(db)
	a.budgets = repository.NewBudgetRepo(db)

	a.importer = &service.Importer{
		Transactions: a.transactions,
		Patterns:     a.patterns,
		Categories:   a.categories,
		Prompter:     newTerminalPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		Workers:      cfg.Import.Workers,
		CardOpts: normalize.CardOptions{
			AutoPaymentSentinel: cfg.Import.AutoPaymentSentinel,
		},
		BrokerageOpts: normalize.BrokerageOptions{
			Card:           cfg.Import.BrokerageCard,
			TransferMarker: cfg.Import.TransferMarker,
		},
		Log: a.log,
	}
	a.recategorizer = &service.Recategorizer{DB: db, Log: a.log}
	a.budgeter = &service.Budgeter{Categories: a.categories, Budgets: a.budgets, Log: a.log}
	a.planner = &service.Planner{DB: db, Log: a.log}
	a.amortizer = &service.Amortizer{DB: db, Log: a.log}
	a.analytics = &service.Analytics{
		Transactions: a.transactions,
		Excluded:     cfg.Analytics.ExcludedCategories,
	}
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "budgeteer",
		Short:         "Categorize bank exports and track spending against budgets and goals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.AddCommand(
		newImportCmd(a),
		newReportCmd(a),
		newBudgetCmd(a),
		newGoalCmd(a),
		newRecategorizeCmd(a),
		newAmortizeCmd(a),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
