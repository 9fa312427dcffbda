package service

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
	"github.com/mvano/budgeteer/internal/logger"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func addCategory(t *testing.T, ctx context.Context, db *sql.DB, name, group string) {
	t.Helper()
	require.NoError(t, repository.NewCategoryRepo(db).Add(ctx, name, group))
}

func insertTx(t *testing.T, ctx context.Context, db *sql.DB, card, date, desc string, category *string, amount float64) int64 {
	t.Helper()
	repo := repository.NewTransactionRepo(db)
	id, err := repo.NextID(ctx)
	require.NoError(t, err)
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, repository.Transaction{
		ID: id, Card: card, Date: d, Description: desc,
		Category: category, Type: "Sale", Amount: amount,
	}))
	return id
}

func strp(s string) *string { return &s }

func testLogger() zerolog.Logger { return logger.NewWithWriter(io.Discard) }
