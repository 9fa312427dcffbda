package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
)

func TestBudgetSetRejectsUnknownCategory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)

	svc := &Budgeter{
		Categories: repository.NewCategoryRepo(db),
		Budgets:    repository.NewBudgetRepo(db),
		Log:        testLogger(),
	}
	err := svc.Set(ctx, "Not A Category", 500)
	require.Error(t, err)
	var refErr *ReferentialError
	require.True(t, errors.As(err, &refErr))
	require.Equal(t, "Not A Category", refErr.Category)
}

func TestBudgetSetAndCurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	addCategory(t, ctx, db, "Groceries", database.GroupNonDiscretionary)

	svc := &Budgeter{
		Categories: repository.NewCategoryRepo(db),
		Budgets:    repository.NewBudgetRepo(db),
		Log:        testLogger(),
	}
	require.NoError(t, svc.Set(ctx, "Groceries", 400))
	require.NoError(t, svc.Set(ctx, "Groceries", 450))

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	require.Len(t, current, 1)
	require.Equal(t, "Groceries", current[0].Category)
	require.InDelta(t, 450, current[0].Budget, 1e-9)
}
