package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
	"github.com/mvano/budgeteer/internal/resolve"
)

func writeExport(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	return path
}

// promptWith always answers with the given category.
type promptWith string

func (p promptWith) Ask(description string, choices []string) (string, error) {
	return string(p), nil
}

func newImporter(t *testing.T, db *sql.DB, prompter resolve.Prompter) *Importer {
	t.Helper()
	return &Importer{
		Transactions: repository.NewTransactionRepo(db),
		Patterns:     repository.NewPatternRepo(db),
		Categories:   repository.NewCategoryRepo(db),
		Prompter:     prompter,
		Workers:      2,
		Log:          testLogger(),
	}
}

func TestImportCategorizesAndInserts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db))

	dir := t.TempDir()
	card := writeExport(t, dir, "Chase_2026-01.csv",
		"Transaction Date,Description,Category,Type,Amount,Memo",
		"01/15/2026,UBER EATS PENDING,Food & Drink,Sale,-25.40,",
		"01/16/2026,AUTOMATIC PAYMENT - THANK,,Payment,500.00,",
		"01/17/2026,TRADER JOES #512,Groceries,Sale,-88.12,",
	)

	svc := newImporter(t, db, nil)
	res, err := svc.Import(ctx, InstitutionFiles{Card: []string{card}})
	require.NoError(t, err)
	require.Empty(t, res.FileErrors)
	require.Equal(t, 2, res.Inserted, "the autopay sentinel row is dropped")
	require.Equal(t, 0, res.Failed)

	repo := repository.NewTransactionRepo(db)

	// Keyword UBER wins over the issuer's Food & Drink label.
	txs, err := repo.ByVendor(ctx, "UBER EATS")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Category)
	require.Equal(t, "Transportation", *txs[0].Category)
	require.Contains(t, txs[0].Memo, "Category updated via import from Food & Drink")
	require.Equal(t, "Chase", txs[0].Card)

	// A trustworthy issuer category passes through untouched.
	txs, err = repo.ByVendor(ctx, "TRADER JOES")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Category)
	require.Equal(t, "Groceries", *txs[0].Category)
}

func TestImportIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db))

	dir := t.TempDir()
	card := writeExport(t, dir, "Chase_2026-01.csv",
		"Transaction Date,Description,Category,Type,Amount,Memo",
		"01/15/2026,UBER EATS PENDING,Food & Drink,Sale,-25.40,",
		"01/17/2026,TRADER JOES #512,Groceries,Sale,-88.12,",
	)

	svc := newImporter(t, db, nil)
	res, err := svc.Import(ctx, InstitutionFiles{Card: []string{card}})
	require.NoError(t, err)
	require.Equal(t, 2, res.Inserted)

	res, err = svc.Import(ctx, InstitutionFiles{Card: []string{card}})
	require.NoError(t, err)
	require.Equal(t, 0, res.Inserted, "re-importing the same file inserts nothing")
	require.Equal(t, 2, res.Failed)
}

func TestImportUnresolvedRowsAreExcludedNotDropped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db))

	dir := t.TempDir()
	// "Personal" is an issuer label too vague to trust, and no keyword
	// matches; with no prompter the row resolves to excluded.
	card := writeExport(t, dir, "Chase_2026-01.csv",
		"Transaction Date,Description,Category,Type,Amount,Memo",
		"01/15/2026,MYSTERY VENDOR 42,Personal,Sale,-10.00,",
	)

	svc := newImporter(t, db, nil)
	res, err := svc.Import(ctx, InstitutionFiles{Card: []string{card}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)

	txs, err := repository.NewTransactionRepo(db).ByVendor(ctx, "MYSTERY VENDOR")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Nil(t, txs[0].Category)
}

func TestImportPromptAnswerIsRecorded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db))

	dir := t.TempDir()
	card := writeExport(t, dir, "Chase_2026-01.csv",
		"Transaction Date,Description,Category,Type,Amount,Memo",
		"01/15/2026,MYSTERY VENDOR 42,,Sale,-10.00,",
	)

	svc := newImporter(t, db, promptWith("Shopping"))
	res, err := svc.Import(ctx, InstitutionFiles{Card: []string{card}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)

	txs, err := repository.NewTransactionRepo(db).ByVendor(ctx, "MYSTERY VENDOR")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Category)
	require.Equal(t, "Shopping", *txs[0].Category)
	require.Contains(t, txs[0].Memo, "Category assigned by user via import")
}

func TestImportRegistersNewCategories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db))

	dir := t.TempDir()
	card := writeExport(t, dir, "Chase_2026-01.csv",
		"Transaction Date,Description,Category,Type,Amount,Memo",
		"01/15/2026,YARN BARN,,Sale,-32.00,",
	)

	// The operator types a category that is not in the vocabulary yet.
	svc := newImporter(t, db, promptWith("Crafts"))
	res, err := svc.Import(ctx, InstitutionFiles{Card: []string{card}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)

	ok, err := repository.NewCategoryRepo(db).Exists(ctx, "Crafts")
	require.NoError(t, err)
	require.True(t, ok, "operator-entered categories join the vocabulary")
}

func TestImportBadFileSkipsOnlyThatFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db))

	dir := t.TempDir()
	good := writeExport(t, dir, "Chase_good.csv",
		"Transaction Date,Description,Category,Type,Amount,Memo",
		"01/15/2026,UBER EATS,Food & Drink,Sale,-25.40,",
	)
	bad := writeExport(t, dir, "Chase_bad.csv",
		"Transaction Date,Description",
		"01/15/2026,NO AMOUNT COLUMN",
	)

	svc := newImporter(t, db, nil)
	res, err := svc.Import(ctx, InstitutionFiles{Card: []string{good, bad}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)
	require.Len(t, res.FileErrors, 1)
	require.ErrorContains(t, res.FileErrors[0], "Chase_bad.csv")
}

func TestImportBrokerage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db))

	dir := t.TempDir()
	brokerage := writeExport(t, dir, "schwab.csv",
		`"Date","Description","Type","Withdrawal","Deposit"`,
		`"01/05/2026","DIVIDEND PAYOUT","DIVIDEND","","$120.00"`,
		`"01/06/2026","CHASE CREDIT CRD EPAY","TRANSFER","$500.00",""`,
	)

	svc := newImporter(t, db, promptWith(resolve.Exclude))
	res, err := svc.Import(ctx, InstitutionFiles{Brokerage: []string{brokerage}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted, "transfer rows between own accounts are dropped")

	txs, err := repository.NewTransactionRepo(db).ByVendor(ctx, "DIVIDEND")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, "Brokerage", txs[0].Card)
	require.InDelta(t, 120, txs[0].Amount, 1e-9)
}
