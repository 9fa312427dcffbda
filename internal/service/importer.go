package service

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
	"github.com/mvano/budgeteer/internal/normalize"
	"github.com/mvano/budgeteer/internal/resolve"
)

// InstitutionFiles is the batch-import input: export file paths grouped by
// the institution format they use.
type InstitutionFiles struct {
	Card      []string
	Brokerage []string
}

// ImportResult reports what one batch import did. FileErrors holds per-file
// parse/read failures; a failed file never aborts its siblings.
type ImportResult struct {
	Inserted   int
	Failed     int
	FileErrors []error
}

// reviewCategories are institution-supplied labels too vague to trust; rows
// carrying them are re-resolved.
var reviewCategories = map[string]bool{
	"":                      true,
	"Bills & Utilities":     true,
	"Professional Services": true,
	"Personal":              true,
}

// Importer runs batch imports: parse and categorize files in parallel on a
// bounded worker pool, then insert in file order on the shared connection.
type Importer struct {
	Transactions *repository.TransactionRepo
	Patterns     *repository.PatternRepo
	Categories   *repository.CategoryRepo

	Prompter      resolve.Prompter
	Workers       int
	CardOpts      normalize.CardOptions
	BrokerageOpts normalize.BrokerageOptions
	Log           zerolog.Logger
}

type parsedFile struct {
	name string
	rows []repository.Transaction
}

// Import normalizes, categorizes and upserts every file in the batch.
// Duplicate rows (unique on card, date, description, amount) are counted as
// failed, never fatal, which makes re-imports idempotent.
func (s *Importer) Import(ctx context.Context, files InstitutionFiles) (ImportResult, error) {
	keywords, err := s.Patterns.Map(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("load keyword map: %w", err)
	}
	categories, err := s.Categories.List(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("load categories: %w", err)
	}
	resolver := resolve.New(keywords, categories, s.Prompter)
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c] = true
	}

	type task struct {
		path      string
		brokerage bool
	}
	var tasks []task
	for _, p := range files.Card {
		tasks = append(tasks, task{path: p})
	}
	for _, p := range files.Brokerage {
		tasks = append(tasks, task{path: p, brokerage: true})
	}

	workers := s.Workers
	if workers <= 0 {
		workers = 4
	}

	parsed := make([]*parsedFile, len(tasks))
	var mu sync.Mutex
	var fileErrors []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := s.processFile(t.path, t.brokerage, resolver)
			if err != nil {
				s.Log.Warn().Err(err).Str("file", t.path).Msg("file skipped")
				mu.Lock()
				fileErrors = append(fileErrors, err)
				mu.Unlock()
				return nil // sibling files continue
			}
			parsed[i] = &parsedFile{name: t.path, rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ImportResult{FileErrors: fileErrors}, err
	}

	res := ImportResult{FileErrors: fileErrors}
	for _, pf := range parsed {
		if pf == nil {
			continue
		}
		for _, row := range pf.rows {
			// Operator-entered and unfamiliar issuer categories join the
			// vocabulary so later budget and vendor operations accept them.
			if row.Category != nil && !known[*row.Category] {
				if err := s.Categories.Add(ctx, *row.Category, database.GroupMisc); err != nil {
					return res, fmt.Errorf("register category %s: %w", *row.Category, err)
				}
				known[*row.Category] = true
			}
			id, err := s.Transactions.NextID(ctx)
			if err != nil {
				return res, fmt.Errorf("allocate id: %w", err)
			}
			row.ID = id
			if err := s.Transactions.Insert(ctx, row); err != nil {
				if repository.IsUniqueViolation(err) {
					res.Failed++
					continue
				}
				return res, fmt.Errorf("insert %s: %w", pf.name, err)
			}
			res.Inserted++
		}
	}

	s.Log.Info().
		Int("inserted", res.Inserted).
		Int("failed", res.Failed).
		Int("files_skipped", len(res.FileErrors)).
		Msg("import complete")
	return res, nil
}

func (s *Importer) processFile(path string, brokerage bool, resolver *resolve.Resolver) ([]repository.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rows []normalize.Transaction
	if brokerage {
		rows, err = normalize.ParseBrokerage(f, path, s.BrokerageOpts)
	} else {
		rows, err = normalize.ParseCard(f, path, s.CardOpts)
	}
	if err != nil {
		return nil, err
	}

	out := make([]repository.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := s.categorize(row, brokerage, resolver)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// categorize applies the resolution precedence to one normalized row and
// stamps the audit memo. Exclusion becomes a NULL category, never a dropped
// row.
func (s *Importer) categorize(row normalize.Transaction, brokerage bool, resolver *resolve.Resolver) (repository.Transaction, error) {
	t := repository.Transaction{
		Card:        row.Card,
		Date:        row.Date,
		Description: row.Description,
		Type:        row.Type,
		Amount:      row.Amount,
		Memo:        row.Memo,
	}

	if category, ok := resolver.KeywordMatch(row.Description); ok {
		if !brokerage && row.Category != "" && row.Category != category {
			t.Memo += fmt.Sprintf(" Category updated via import from %s", row.Category)
		} else {
			t.Memo += " Category assigned automatically via import"
		}
		t.Category = &category
		return t, nil
	}

	// Card rows keep a trustworthy issuer category as-is.
	if !brokerage && !reviewCategories[row.Category] {
		category := row.Category
		t.Category = &category
		return t, nil
	}

	category, userIntervened, err := resolver.Resolve(row.Description)
	if err != nil {
		return repository.Transaction{}, err
	}
	if category == resolve.Exclude {
		t.Category = nil
		return t, nil
	}
	t.Category = &category
	if userIntervened {
		t.Memo += " Category assigned by user via import"
	} else {
		t.Memo += " Category assigned automatically via import"
	}
	return t, nil
}
