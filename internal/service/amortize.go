package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
)

// Amortizer splits one lump transaction into equal monthly installments
// with traceable linkage back to the original row.
type Amortizer struct {
	DB  *sql.DB
	Log zerolog.Logger
}

// Amortize divides the transaction's amount evenly over months: the
// original row's amount becomes amount/months with a marker memo, and
// months-1 new rows are synthesized at successive one-month offsets, each
// referencing the original id. All row operations are atomic; any failure
// leaves the original transaction untouched.
func (s *Amortizer) Amortize(ctx context.Context, id int64, months int) error {
	if months <= 1 {
		return fmt.Errorf("amortize: months must be greater than 1, got %d", months)
	}
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		repo := repository.NewTransactionRepo(tx)
		t, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("transaction %d not found", id)
		}

		monthly := t.Amount / float64(months)
		if err := repo.UpdateAmount(ctx, id, monthly); err != nil {
			return err
		}
		if err := repo.AppendMemo(ctx, id, fmt.Sprintf(" 1/%d amortized transaction.", months)); err != nil {
			return err
		}

		// Ids come from the explicit sequence because the whole batch is
		// generated before commit.
		for i := 1; i < months; i++ {
			newID, err := repo.NextID(ctx)
			if err != nil {
				return err
			}
			installment := repository.Transaction{
				ID:          newID,
				Card:        t.Card,
				Date:        t.Date.AddDate(0, i, 0),
				Description: t.Description,
				Category:    t.Category,
				Type:        t.Type,
				Amount:      monthly,
				Memo: fmt.Sprintf("%s %d/%d amortized transaction. Original transaction ID: %d",
					t.Memo, i+1, months, id),
			}
			if err := repo.Insert(ctx, installment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.Log.Error().Err(err).Int64("id", id).Msg("amortization rolled back")
		return err
	}
	s.Log.Info().Int64("id", id).Int("months", months).Msg("transaction amortized")
	return nil
}
