package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/mvano/budgeteer/internal/database"
	"github.com/mvano/budgeteer/internal/database/repository"
)

// Analytics answers read-only questions about persisted transactions:
// percentile outliers, extraordinary spending, monthly summaries and net
// income. All methods are pure queries with no side effects.
type Analytics struct {
	Transactions *repository.TransactionRepo

	// Excluded names income and fixed-cost categories that never count as
	// discretionary outliers (rent, mortgage, salary and the like).
	Excluded []string
}

// Outlier is one unusually large expense, amount as positive magnitude.
type Outlier struct {
	Category    string
	Description string
	Amount      float64
	Date        time.Time
}

// CategorySummary compares a category's spending in one month against its
// own history. Sums are sign-flipped: positive means outflow.
type CategorySummary struct {
	Category string
	MonthSum float64
	P50      float64
	P75      float64
}

// TopPercentileNonRecurring returns the month's non-recurring expenses at or
// above the pct percentile of expense magnitudes, largest first. Fixed-cost
// categories are excluded before ranking. Lowering pct can only grow the
// result set.
func (a *Analytics) TopPercentileNonRecurring(ctx context.Context, year, month int, pct float64) ([]Outlier, error) {
	rows, err := a.Transactions.ExpensesForMonth(ctx, year, month, a.Excluded)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	magnitudes := make([]float64, len(rows))
	for i, t := range rows {
		magnitudes[i] = math.Abs(t.Amount)
	}
	threshold := percentileCont(magnitudes, pct)

	var out []Outlier
	for _, t := range rows {
		if math.Abs(t.Amount) < threshold {
			continue
		}
		recurring, err := a.Transactions.IsRecurring(ctx, t.Description, t.Amount, t.Date)
		if err != nil {
			return nil, err
		}
		if recurring {
			continue
		}
		out = append(out, outlierFrom(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out, nil
}

// ExtraordinarySpending flags genuinely one-off large expenses for a month.
// Candidate categories are ranked by how far the month's sum sits above the
// category's historical median; candidates must clear their category's p85
// per-transaction threshold, then a global p90 floor across all non-excluded
// categories, and finally must not recur elsewhere in history.
func (a *Analytics) ExtraordinarySpending(ctx context.Context, year, month int) ([]Outlier, error) {
	summaries, err := a.MonthSummary(ctx, year, month)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]bool, len(a.Excluded))
	for _, c := range a.Excluded {
		excluded[c] = true
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].MonthSum-summaries[i].P50 > summaries[j].MonthSum-summaries[j].P50
	})

	globalFloor, err := a.globalPercentile(ctx, year, month, 0.90)
	if err != nil {
		return nil, err
	}

	var out []Outlier
	for _, s := range summaries {
		if excluded[s.Category] {
			continue
		}
		rows, err := a.Transactions.ForCategoryMonth(ctx, s.Category, year, month)
		if err != nil {
			return nil, err
		}
		// Refunds and other inflows inside a spending category are not
		// spending; only expense rows feed the threshold and candidates.
		txs := rows[:0]
		for _, t := range rows {
			if t.Amount < 0 {
				txs = append(txs, t)
			}
		}
		if len(txs) == 0 {
			continue
		}
		magnitudes := make([]float64, len(txs))
		for i, t := range txs {
			magnitudes[i] = math.Abs(t.Amount)
		}
		p85 := percentileCont(magnitudes, 0.85)

		for _, t := range txs {
			m := math.Abs(t.Amount)
			if m < p85 || m < globalFloor {
				continue
			}
			recurring, err := a.Transactions.IsRecurring(ctx, t.Description, t.Amount, t.Date)
			if err != nil {
				return nil, err
			}
			if recurring {
				continue
			}
			out = append(out, outlierFrom(t))
		}
	}
	return out, nil
}

// MonthSummary returns each category's sign-flipped sum for the month next
// to the historical p50/p75 of its monthly sums.
func (a *Analytics) MonthSummary(ctx context.Context, year, month int) ([]CategorySummary, error) {
	sums, err := a.Transactions.MonthlySums(ctx)
	if err != nil {
		return nil, err
	}
	target := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")

	history := make(map[string][]float64)
	current := make(map[string]float64)
	for _, s := range sums {
		history[s.Category] = append(history[s.Category], s.Sum)
		if s.Month == target {
			current[s.Category] = s.Sum
		}
	}

	categories := make([]string, 0, len(history))
	for c := range history {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	out := make([]CategorySummary, 0, len(categories))
	for _, c := range categories {
		series := history[c]
		sort.Float64s(series)
		out = append(out, CategorySummary{
			Category: c,
			MonthSum: current[c],
			P50:      percentileCont(series, 0.50),
			P75:      percentileCont(series, 0.75),
		})
	}
	return out, nil
}

// NetIncome is the canonical formula: the signed sum of all categorized
// transactions in the month.
func (a *Analytics) NetIncome(ctx context.Context, year, month int) (float64, error) {
	return a.Transactions.NetIncomeForMonth(ctx, year, month)
}

// NetIncomeGrouped is the reporting view: revenue minus cost of revenue,
// discretionary and non-discretionary spending. Expense groups carry
// negative signed sums, so the grouped net is their signed total with the
// Misc group left out.
func (a *Analytics) NetIncomeGrouped(ctx context.Context, year, month int) (float64, error) {
	groups, err := a.Transactions.GroupSumsForMonth(ctx, year, month)
	if err != nil {
		return 0, err
	}
	return groups[database.GroupRevenue] +
		groups[database.GroupCostOfRevenue] +
		groups[database.GroupDiscretionary] +
		groups[database.GroupNonDiscretionary], nil
}

// globalPercentile computes one threshold over the magnitudes of every
// non-excluded expense in the month.
func (a *Analytics) globalPercentile(ctx context.Context, year, month int, pct float64) (float64, error) {
	rows, err := a.Transactions.ExpensesForMonth(ctx, year, month, a.Excluded)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	magnitudes := make([]float64, len(rows))
	for i, t := range rows {
		magnitudes[i] = math.Abs(t.Amount)
	}
	return percentileCont(magnitudes, pct), nil
}

func outlierFrom(t repository.Transaction) Outlier {
	o := Outlier{
		Description: t.Description,
		Amount:      math.Abs(t.Amount),
		Date:        t.Date,
	}
	if t.Category != nil {
		o.Category = *t.Category
	}
	return o
}

// percentileCont computes the continuous (linearly interpolated) percentile
// of values, matching PERCENTILE_CONT semantics. values need not be sorted.
func percentileCont(values []float64, pct float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 1 {
		return sorted[len(sorted)-1]
	}
	rank := pct * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
