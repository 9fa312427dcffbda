// Package report renders tabular query results. The engine only produces
// result tables; all presentation lives here and in the CLI.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/mvano/budgeteer/internal/database/repository"
	"github.com/mvano/budgeteer/internal/service"
)

// Table is a rendered-agnostic tabular result.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render writes the table to w.
func Render(w io.Writer, t Table) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.Headers)
	tw.SetAutoWrapText(false)
	tw.SetBorder(false)
	tw.AppendBulk(t.Rows)
	tw.Render()
}

// FromOutliers tabulates outlier results, largest first as produced.
func FromOutliers(outliers []service.Outlier) Table {
	t := Table{Headers: []string{"Category", "Date", "Description", "Amount"}}
	for _, o := range outliers {
		t.Rows = append(t.Rows, []string{
			o.Category,
			o.Date.Format(time.DateOnly),
			o.Description,
			fmt.Sprintf("$%.2f", o.Amount),
		})
	}
	return t
}

// FromSummaries tabulates per-category month summaries.
func FromSummaries(summaries []service.CategorySummary) Table {
	t := Table{Headers: []string{"Category", "Month sum", "Historic p50", "Historic p75"}}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			s.Category,
			fmt.Sprintf("%.2f", s.MonthSum),
			fmt.Sprintf("%.2f", s.P50),
			fmt.Sprintf("%.2f", s.P75),
		})
	}
	return t
}

// FromBudgets tabulates the current budget per category.
func FromBudgets(budgets []repository.Budget) Table {
	t := Table{Headers: []string{"Category", "Budget", "Set at"}}
	for _, b := range budgets {
		t.Rows = append(t.Rows, []string{
			b.Category,
			fmt.Sprintf("$%.2f", b.Budget),
			b.Timestamp.Format(time.DateOnly),
		})
	}
	return t
}

// FromCategories tabulates the category vocabulary with its groups.
func FromCategories(cats []repository.Category) Table {
	t := Table{Headers: []string{"Category", "Group"}}
	for _, c := range cats {
		t.Rows = append(t.Rows, []string{c.Name, c.Group})
	}
	return t
}

// FromTransactions tabulates raw transaction rows.
func FromTransactions(txs []repository.Transaction) Table {
	t := Table{Headers: []string{"ID", "Card", "Date", "Description", "Category", "Amount", "Memo"}}
	for _, tx := range txs {
		category := ""
		if tx.Category != nil {
			category = *tx.Category
		}
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%d", tx.ID),
			tx.Card,
			tx.Date.Format(time.DateOnly),
			tx.Description,
			category,
			fmt.Sprintf("%.2f", tx.Amount),
			tx.Memo,
		})
	}
	return t
}
