package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
)

// Recategorizer applies retroactive category changes with an append-only
// memo trail. Bulk operations are all-or-nothing.
type Recategorizer struct {
	DB  *sql.DB
	Log zerolog.Logger
}

// RecategorizeOne updates a single transaction's category and appends the
// audit memo, in one unit of work. A nil newCategory excludes the row.
func (s *Recategorizer) RecategorizeOne(ctx context.Context, id int64, newCategory *string) error {
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		repo := repository.NewTransactionRepo(tx)
		t, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("transaction %d not found", id)
		}
		if err := repo.UpdateCategory(ctx, id, newCategory); err != nil {
			return err
		}
		return repo.AppendMemo(ctx, id, recategorizeMemo(t.Category, newCategory))
	})
	if err != nil {
		s.Log.Error().Err(err).Int64("id", id).Msg("recategorize rolled back")
		return err
	}
	return nil
}

// RecategorizeVendor recategorizes every transaction whose description
// contains vendor and makes the decision durable in the vendor mapping, all
// within one atomic transaction. On any failure every change is rolled back,
// including the already-updated rows. Returns the number of transactions
// changed.
func (s *Recategorizer) RecategorizeVendor(ctx context.Context, vendor string, newCategory *string) (int, error) {
	var changed int
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		txRepo := repository.NewTransactionRepo(tx)
		mapRepo := repository.NewVendorMappingRepo(tx)

		txs, err := txRepo.ByVendor(ctx, vendor)
		if err != nil {
			return err
		}
		for _, t := range txs {
			if err := txRepo.UpdateCategory(ctx, t.ID, newCategory); err != nil {
				return err
			}
			if err := txRepo.AppendMemo(ctx, t.ID, recategorizeMemo(t.Category, newCategory)); err != nil {
				return err
			}
		}
		changed = len(txs)

		// Keep the durable mapping in step with the rows inside the same
		// transaction, so they can never disagree. The foreign key checks
		// category validity here.
		if newCategory == nil {
			return mapRepo.Delete(ctx, vendor)
		}
		return mapRepo.Upsert(ctx, vendor, *newCategory)
	})
	if err != nil {
		s.Log.Error().Err(err).Str("vendor", vendor).Msg("bulk recategorize rolled back")
		return 0, err
	}
	s.Log.Info().Str("vendor", vendor).Int("transactions", changed).Msg("vendor recategorized")
	return changed, nil
}

// SimilarVendors surfaces existing vendor keys close to the given one, so
// the operator can spot near-duplicate spellings before committing a new
// mapping. Distance is levenshtein over uppercased keys.
func (s *Recategorizer) SimilarVendors(ctx context.Context, vendor string, limit int) ([]string, error) {
	mapRepo := repository.NewVendorMappingRepo(s.DB)
	mappings, err := mapRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	type scored struct {
		vendor string
		dist   int
	}
	target := strings.ToUpper(vendor)
	var candidates []scored
	for _, m := range mappings {
		if strings.EqualFold(m.Vendor, vendor) {
			continue
		}
		d := levenshtein.ComputeDistance(target, strings.ToUpper(m.Vendor))
		maxLen := len(target)
		if len(m.Vendor) > maxLen {
			maxLen = len(m.Vendor)
		}
		if maxLen == 0 || float64(d)/float64(maxLen) >= 0.4 {
			continue
		}
		candidates = append(candidates, scored{vendor: m.Vendor, dist: d})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.vendor
	}
	return out, nil
}

func recategorizeMemo(old, updated *string) string {
	oldName := "NULL"
	if old != nil {
		oldName = *old
	}
	if updated == nil {
		return fmt.Sprintf(". Excluded by user from %s", oldName)
	}
	return fmt.Sprintf(". Recategorized by user from %s", oldName)
}
