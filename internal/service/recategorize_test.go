package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
)

func TestRecategorizeOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	addCategory(t, ctx, db, "Food & Drink", database.GroupDiscretionary)
	addCategory(t, ctx, db, "Transportation", database.GroupDiscretionary)

	id := insertTx(t, ctx, db, "Chase", "2026-01-15", "UBER EATS", strp("Food & Drink"), -25.40)
	svc := &Recategorizer{DB: db, Log: testLogger()}

	require.NoError(t, svc.RecategorizeOne(ctx, id, strp("Transportation")))

	got, err := repository.NewTransactionRepo(db).Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	require.Equal(t, "Transportation", *got.Category)
	require.Contains(t, got.Memo, "Recategorized by user from Food & Drink")
}

func TestRecategorizeOneExclude(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	addCategory(t, ctx, db, "Food & Drink", database.GroupDiscretionary)

	id := insertTx(t, ctx, db, "Chase", "2026-01-15", "CC PAYMENT", strp("Food & Drink"), -100)
	svc := &Recategorizer{DB: db, Log: testLogger()}

	require.NoError(t, svc.RecategorizeOne(ctx, id, nil))

	got, err := repository.NewTransactionRepo(db).Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, got.Category, "excluded rows keep the row, lose the category")
	require.Contains(t, got.Memo, "Excluded by user from Food & Drink")
}

func TestRecategorizeVendorUpdatesRowsAndMapping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	addCategory(t, ctx, db, "Food & Drink", database.GroupDiscretionary)
	addCategory(t, ctx, db, "Transportation", database.GroupDiscretionary)

	insertTx(t, ctx, db, "Chase", "2026-01-15", "UBER EATS PENDING", strp("Food & Drink"), -25)
	insertTx(t, ctx, db, "Chase", "2026-01-20", "UBER TRIP 0423", strp("Food & Drink"), -14)
	insertTx(t, ctx, db, "Chase", "2026-01-21", "LYFT RIDE", strp("Transportation"), -11)

	svc := &Recategorizer{DB: db, Log: testLogger()}
	changed, err := svc.RecategorizeVendor(ctx, "UBER", strp("Transportation"))
	require.NoError(t, err)
	require.Equal(t, 2, changed)

	txs, err := repository.NewTransactionRepo(db).ByVendor(ctx, "UBER")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		require.NotNil(t, tx.Category)
		require.Equal(t, "Transportation", *tx.Category)
		require.Contains(t, tx.Memo, "Recategorized by user from Food & Drink")
	}

	m, err := repository.NewVendorMappingRepo(db).Get(ctx, "UBER")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "Transportation", m.Category)
}

func TestRecategorizeVendorRollsBackAtomically(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	addCategory(t, ctx, db, "Food & Drink", database.GroupDiscretionary)

	var ids []int64
	for i := 0; i < 10; i++ {
		ids = append(ids, insertTx(t, ctx, db, "Chase", "2026-01-15",
			"UBER EATS", strp("Food & Drink"), -25-float64(i)))
	}

	// The mapping upsert fails its foreign key check after every row has
	// already been updated inside the transaction; all ten must revert.
	svc := &Recategorizer{DB: db, Log: testLogger()}
	_, err := svc.RecategorizeVendor(ctx, "UBER", strp("Not A Category"))
	require.Error(t, err)
	require.True(t, repository.IsConstraintViolation(err))

	repo := repository.NewTransactionRepo(db)
	for _, id := range ids {
		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got.Category)
		require.Equal(t, "Food & Drink", *got.Category)
		require.NotContains(t, got.Memo, "Recategorized")
	}

	m, err := repository.NewVendorMappingRepo(db).Get(ctx, "UBER")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestRecategorizeVendorExcludeDropsMapping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	addCategory(t, ctx, db, "Transportation", database.GroupDiscretionary)

	insertTx(t, ctx, db, "Chase", "2026-01-15", "UBER TRIP", strp("Transportation"), -14)
	vendors := repository.NewVendorMappingRepo(db)
	require.NoError(t, vendors.Upsert(ctx, "UBER", "Transportation"))

	svc := &Recategorizer{DB: db, Log: testLogger()}
	changed, err := svc.RecategorizeVendor(ctx, "UBER", nil)
	require.NoError(t, err)
	require.Equal(t, 1, changed)

	m, err := vendors.Get(ctx, "UBER")
	require.NoError(t, err)
	require.Nil(t, m, "excluding a vendor removes its durable mapping")
}

func TestSimilarVendors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	addCategory(t, ctx, db, "Transportation", database.GroupDiscretionary)
	addCategory(t, ctx, db, "Groceries", database.GroupNonDiscretionary)

	vendors := repository.NewVendorMappingRepo(db)
	require.NoError(t, vendors.Upsert(ctx, "UBER EATS", "Transportation"))
	require.NoError(t, vendors.Upsert(ctx, "TRADER JOES", "Groceries"))

	svc := &Recategorizer{DB: db, Log: testLogger()}
	similar, err := svc.SimilarVendors(ctx, "UBER EAST", 5)
	require.NoError(t, err)
	require.Equal(t, []string{"UBER EATS"}, similar)

	similar, err = svc.SimilarVendors(ctx, "UBER EATS", 5)
	require.NoError(t, err)
	require.Empty(t, similar, "the vendor itself is never a suggestion")
}
