package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
)

// Planner persists surplus/deficit goals and materializes their monthly
// breakdown items from realized net income.
type Planner struct {
	DB  *sql.DB
	Log zerolog.Logger

	// Today is the clock used to decide which months have fully elapsed.
	// Nil means time.Now.
	Today func() time.Time
}

// AddGoal persists a goal header and immediately materializes items for
// every already-completed month in its window, in one atomic operation.
// Allocations map category names or free descriptions to fractions of
// monthly net income; a total above 100% is warned about, not rejected.
func (s *Planner) AddGoal(ctx context.Context, description string, allocations map[string]float64, effective time.Time, terminal *time.Time) (string, error) {
	if len(allocations) == 0 {
		return "", fmt.Errorf("add goal: no allocations given")
	}
	var total float64
	for _, pct := range allocations {
		total += pct
	}
	if total > 1.0 {
		s.Log.Warn().Float64("total", total*100).Msg("goal allocations exceed 100%")
	}

	b := repository.Breakdown{
		ID:            uuid.NewString(),
		Description:   description,
		Allocations:   allocations,
		EffectiveDate: effective,
		TerminalDate:  terminal,
		CreatedAt:     database.Now(),
	}
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		if err := repository.NewBreakdownRepo(tx).Insert(ctx, b); err != nil {
			return err
		}
		return s.materialize(ctx, tx, b)
	})
	if err != nil {
		s.Log.Error().Err(err).Str("goal", description).Msg("goal insertion rolled back")
		return "", err
	}
	s.Log.Info().Str("goal", description).Str("id", b.ID).Msg("goal added")
	return b.ID, nil
}

// MaterializeAll brings every goal's breakdown items up to date. Months that
// already have items are skipped, so re-running never double counts.
func (s *Planner) MaterializeAll(ctx context.Context) error {
	latest, ok, err := repository.NewTransactionRepo(s.DB).LatestDate(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	goals, err := repository.NewBreakdownRepo(s.DB).EffectiveBy(ctx, latest.Year(), int(latest.Month()))
	if err != nil {
		return err
	}
	for _, b := range goals {
		err := database.WithTx(s.DB, func(tx *sql.Tx) error {
			return s.materialize(ctx, tx, b)
		})
		if err != nil {
			s.Log.Error().Err(err).Str("goal", b.Description).Msg("materialization rolled back")
			return err
		}
	}
	return nil
}

// materialize walks months from the goal's effective date through the latest
// transaction date and inserts one item per allocation entry for each fully
// elapsed, not yet materialized month. Item amounts are that month's net
// income times the allocation fraction.
func (s *Planner) materialize(ctx context.Context, tx *sql.Tx, b repository.Breakdown) error {
	txRepo := repository.NewTransactionRepo(tx)
	bdRepo := repository.NewBreakdownRepo(tx)
	catRepo := repository.NewCategoryRepo(tx)

	latest, ok, err := txRepo.LatestDate(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	today := time.Now().UTC()
	if s.Today != nil {
		today = s.Today()
	}

	names := make([]string, 0, len(b.Allocations))
	for name := range b.Allocations {
		names = append(names, name)
	}
	sort.Strings(names)

	// Iterate first-of-month cursors so short months are never skipped.
	end := firstOfMonth(latest)
	for current := firstOfMonth(b.EffectiveDate); !current.After(end); current = current.AddDate(0, 1, 0) {
		if b.TerminalDate != nil && current.After(*b.TerminalDate) {
			break
		}
		// Only fully elapsed months are materialized.
		if current.AddDate(0, 1, 0).After(today) {
			continue
		}
		year, month := current.Year(), int(current.Month())
		exists, err := bdRepo.HasItems(ctx, b.ID, year, month)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		net, err := txRepo.NetIncomeForMonth(ctx, year, month)
		if err != nil {
			return err
		}
		for _, name := range names {
			item := repository.BreakdownItem{
				BreakdownID: b.ID,
				Description: name,
				Amount:      net * b.Allocations[name],
				Date:        current,
			}
			registered, err := catRepo.Exists(ctx, name)
			if err != nil {
				return err
			}
			if registered {
				category := name
				item.Category = &category
			}
			if err := bdRepo.InsertItem(ctx, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
