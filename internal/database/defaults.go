package database

import (
	"context"
	"database/sql"

	"github.com/mvano/budgeteer/internal/database/repository"
)

// Category groups used to compute grouped net income.
const (
	GroupRevenue          = "Revenue"
	GroupCostOfRevenue    = "Cost of revenue"
	GroupDiscretionary    = "Discretionary"
	GroupNonDiscretionary = "Non-discretionary"
	GroupMisc             = "Misc"
)

var defaultCategories = map[string]string{
	"Salary":                   GroupRevenue,
	"Rental income":            GroupRevenue,
	"Monthly property expense": GroupCostOfRevenue,
	"Monthly mortgage expense": GroupCostOfRevenue,
	"Monthly fixed cost":       GroupNonDiscretionary,
	"Groceries":                GroupNonDiscretionary,
	"Health & Wellness":        GroupNonDiscretionary,
	"Kids":                     GroupNonDiscretionary,
	"Education":                GroupNonDiscretionary,
	"Automotive":               GroupNonDiscretionary,
	"Gas":                      GroupNonDiscretionary,
	"Home":                     GroupNonDiscretionary,
	"Fees & Adjustments":       GroupNonDiscretionary,
	"Amazon":                   GroupDiscretionary,
	"Amusement":                GroupDiscretionary,
	"Drink":                    GroupDiscretionary,
	"Entertainment":            GroupDiscretionary,
	"Food & Drink":             GroupDiscretionary,
	"Gifts & Donations":        GroupDiscretionary,
	"Shopping":                 GroupDiscretionary,
	"Transportation":           GroupDiscretionary,
	"Travel":                   GroupDiscretionary,
	"Personal spending":        GroupDiscretionary,
	"Partner spending":         GroupDiscretionary,
	"Misc":                     GroupMisc,
}

var defaultPatterns = map[string]string{
	"AMZN":        "Amazon",
	"AMAZON":      "Amazon",
	"COFFEE":      "Drink",
	"CAFE":        "Drink",
	"BAKERY":      "Drink",
	"Netflix":     "Entertainment",
	"Prime Video": "Entertainment",
	"Spotify":     "Entertainment",
	"BLUE CROSS":  "Health & Wellness",
	"CONDO INS":   "Monthly fixed cost",
	"GEICO":       "Monthly fixed cost",
	"GOOGLE *FI":  "Monthly fixed cost",
	"MORTGAGE":    "Monthly mortgage expense",
	"WEB PMTS":    "Monthly property expense",
	"CITIBIK":     "Transportation",
	"E-ZPASS":     "Transportation",
	"LYFT":        "Transportation",
	"UBER":        "Transportation",
}

// SeedDefaults ensures the baseline category vocabulary and keyword patterns
// exist for new databases. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	catRepo := repository.NewCategoryRepo(db)
	existing, err := catRepo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for name, group := range defaultCategories {
			if err := catRepo.Add(ctx, name, group); err != nil {
				return err
			}
		}
	}

	// Patterns are seeded independently: a database whose categories were
	// populated by hand still gets the keyword seed.
	patRepo := repository.NewPatternRepo(db)
	patterns, err := patRepo.Map(ctx)
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		for keyword, category := range defaultPatterns {
			if err := patRepo.Upsert(ctx, keyword, category); err != nil {
				return err
			}
		}
	}
	return nil
}
