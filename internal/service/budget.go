package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
)

// Budgeter sets and reads per-category monthly budgets. Budget rows are
// timestamped facts; the current budget is the latest row per category.
type Budgeter struct {
	Categories *repository.CategoryRepo
	Budgets    *repository.BudgetRepo
	Log        zerolog.Logger
}

// Set records a new budget for category. The category must already be
// registered; this is checked explicitly, not only by a store constraint.
func (s *Budgeter) Set(ctx context.Context, category string, amount float64) error {
	ok, err := s.Categories.Exists(ctx, category)
	if err != nil {
		return err
	}
	if !ok {
		return &ReferentialError{Op: "set budget", Category: category}
	}
	if err := s.Budgets.Insert(ctx, category, amount, database.Now()); err != nil {
		return err
	}
	s.Log.Info().Str("category", category).Float64("budget", amount).Msg("budget set")
	return nil
}

// Current returns the latest budget per category.
func (s *Budgeter) Current(ctx context.Context) ([]repository.Budget, error) {
	return s.Budgets.Current(ctx)
}
