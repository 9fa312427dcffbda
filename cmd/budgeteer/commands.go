package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvano/budgeteer/internal/report"
	"github.com/mvano/budgeteer/internal/service"
)

func newImportCmd(a *app) *cobra.Command {
	var cardFiles, brokerageFiles []string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import institution CSV exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(cardFiles) == 0 && len(brokerageFiles) == 0 {
				return fmt.Errorf("nothing to import: pass --card and/or --brokerage files")
			}
			res, err := a.importer.Import(cmd.Context(), service.InstitutionFiles{
				Card:      cardFiles,
				Brokerage: brokerageFiles,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d, skipped %d duplicates, %d files failed\n",
				res.Inserted, res.Failed, len(res.FileErrors))
			for _, fe := range res.FileErrors {
				fmt.Fprintf(cmd.OutOrStdout(), "  %v\n", fe)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&cardFiles, "card", nil, "card export CSV files")
	cmd.Flags().StringSliceVar(&brokerageFiles, "brokerage", nil, "brokerage export CSV files")
	return cmd
}

// parseMonth reads "YYYY-MM"; an empty string means the current month.
func parseMonth(s string) (int, int, error) {
	if s == "" {
		now := time.Now().UTC()
		return now.Year(), int(now.Month()), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM: %w", s, err)
	}
	return t.Year(), int(t.Month()), nil
}

func newReportCmd(a *app) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Spending reports",
	}
	cmd.PersistentFlags().StringVar(&month, "month", "", "month to report on (YYYY-MM, default current)")

	var pct float64
	outliers := &cobra.Command{
		Use:   "outliers",
		Short: "Largest non-recurring expenses for the month",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, mon, err := parseMonth(month)
			if err != nil {
				return err
			}
			out, err := a.analytics.TopPercentileNonRecurring(cmd.Context(), year, mon, pct)
			if err != nil {
				return err
			}
			report.Render(cmd.OutOrStdout(), report.FromOutliers(out))
			return nil
		},
	}
	outliers.Flags().Float64Var(&pct, "percentile", 0.95, "expense size percentile cutoff")

	extraordinary := &cobra.Command{
		Use:   "extraordinary",
		Short: "Unusual spending versus each category's own history",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, mon, err := parseMonth(month)
			if err != nil {
				return err
			}
			out, err := a.analytics.ExtraordinarySpending(cmd.Context(), year, mon)
			if err != nil {
				return err
			}
			report.Render(cmd.OutOrStdout(), report.FromOutliers(out))
			return nil
		},
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Per-category totals with historical percentiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, mon, err := parseMonth(month)
			if err != nil {
				return err
			}
			sums, err := a.analytics.MonthSummary(cmd.Context(), year, mon)
			if err != nil {
				return err
			}
			report.Render(cmd.OutOrStdout(), report.FromSummaries(sums))
			return nil
		},
	}

	net := &cobra.Command{
		Use:   "net",
		Short: "Net income for the month",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, mon, err := parseMonth(month)
			if err != nil {
				return err
			}
			n, err := a.analytics.NetIncome(cmd.Context(), year, mon)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "net income %d-%02d: %.2f\n", year, mon, n)
			return nil
		},
	}

	vendor := &cobra.Command{
		Use:   "vendor <name>",
		Short: "Transactions whose description matches a vendor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := a.transactions.ByVendor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report.Render(cmd.OutOrStdout(), report.FromTransactions(txs))
			return nil
		},
	}

	categories := &cobra.Command{
		Use:   "categories",
		Short: "Registered category vocabulary and its income groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := a.categories.ListWithGroups(cmd.Context())
			if err != nil {
				return err
			}
			report.Render(cmd.OutOrStdout(), report.FromCategories(cats))
			return nil
		},
	}

	cmd.AddCommand(outliers, extraordinary, summary, net, vendor, categories)
	return cmd
}

func newBudgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Per-category monthly budgets",
	}
	set := &cobra.Command{
		Use:   "set <category> <amount>",
		Short: "Record a new budget for a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			return a.budgeter.Set(cmd.Context(), args[0], amount)
		},
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the current budget per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			budgets, err := a.budgeter.Current(cmd.Context())
			if err != nil {
				return err
			}
			report.Render(cmd.OutOrStdout(), report.FromBudgets(budgets))
			return nil
		},
	}
	cmd.AddCommand(set, show)
	return cmd
}

func newGoalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Savings goals funded from monthly net income",
	}

	var description, effective, terminal string
	var allocations []string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a goal allocating net income percentages by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			allocs := make(map[string]float64, len(allocations))
			for _, spec := range allocations {
				name, pctStr, ok := strings.Cut(spec, "=")
				if !ok {
					return fmt.Errorf("invalid allocation %q, want name=fraction", spec)
				}
				pct, err := strconv.ParseFloat(pctStr, 64)
				if err != nil {
					return fmt.Errorf("invalid allocation %q: %w", spec, err)
				}
				allocs[name] = pct
			}
			if len(allocs) == 0 {
				return fmt.Errorf("at least one --allocate name=fraction is required")
			}
			eff, err := time.Parse("2006-01-02", effective)
			if err != nil {
				return fmt.Errorf("invalid --effective date: %w", err)
			}
			var term *time.Time
			if terminal != "" {
				t, err := time.Parse("2006-01-02", terminal)
				if err != nil {
					return fmt.Errorf("invalid --terminal date: %w", err)
				}
				term = &t
			}
			id, err := a.planner.AddGoal(cmd.Context(), description, allocs, eff, term)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "goal %s added\n", id)
			return nil
		},
	}
	add.Flags().StringVar(&description, "description", "", "goal description")
	add.Flags().StringSliceVar(&allocations, "allocate", nil, "allocation as name=fraction, repeatable")
	add.Flags().StringVar(&effective, "effective", "", "first month the goal applies (YYYY-MM-DD)")
	add.Flags().StringVar(&terminal, "terminal", "", "optional last month the goal applies (YYYY-MM-DD)")
	_ = add.MarkFlagRequired("effective")

	materialize := &cobra.Command{
		Use:   "materialize",
		Short: "Compute goal contributions for every elapsed month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.planner.MaterializeAll(cmd.Context())
		},
	}
	cmd.AddCommand(add, materialize)
	return cmd
}

func newRecategorizeCmd(a *app) *cobra.Command {
	var exclude bool
	cmd := &cobra.Command{
		Use:   "recategorize",
		Short: "Move transactions to a different category",
	}

	one := &cobra.Command{
		Use:   "one <id> [category]",
		Short: "Recategorize a single transaction, or exclude it with --exclude",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q: %w", args[0], err)
			}
			category, err := categoryArg(args[1:], exclude)
			if err != nil {
				return err
			}
			return a.recategorizer.RecategorizeOne(cmd.Context(), id, category)
		},
	}
	one.Flags().BoolVar(&exclude, "exclude", false, "exclude the transaction instead of assigning a category")

	var vendorExclude bool
	vendor := &cobra.Command{
		Use:   "vendor <vendor> [category]",
		Short: "Recategorize every transaction matching a vendor and remember the choice",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := categoryArg(args[1:], vendorExclude)
			if err != nil {
				return err
			}
			n, err := a.recategorizer.RecategorizeVendor(cmd.Context(), args[0], category)
			if err != nil {
				similar, serr := a.recategorizer.SimilarVendors(cmd.Context(), args[0], 5)
				if serr == nil && len(similar) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "similar vendors: %s\n", strings.Join(similar, ", "))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recategorized %d transactions\n", n)
			return nil
		},
	}
	vendor.Flags().BoolVar(&vendorExclude, "exclude", false, "exclude the matching transactions instead of assigning a category")

	cmd.AddCommand(one, vendor)
	return cmd
}

func categoryArg(args []string, exclude bool) (*string, error) {
	if exclude {
		if len(args) > 0 {
			return nil, fmt.Errorf("--exclude does not take a category")
		}
		return nil, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("a category is required unless --exclude is set")
	}
	return &args[0], nil
}

func newAmortizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "amortize <id> <months>",
		Short: "Spread a transaction's amount evenly over future months",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q: %w", args[0], err)
			}
			months, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid month count %q: %w", args[1], err)
			}
			return a.amortizer.Amortize(cmd.Context(), id, months)
		},
	}
}
