// Package normalize parses per-institution bank export files into the
// canonical transaction shape used by the rest of the system.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Transaction is one canonical row parsed from an export file. Category is
// the institution-supplied value and may be empty; final categorization is
// the resolver's job.
type Transaction struct {
	Card        string
	Date        time.Time
	Description string
	Category    string
	Type        string
	Amount      float64
	Memo        string
}

// ParseError marks a malformed export file (missing required columns, bad
// row data). The file is skipped; sibling files continue.
type ParseError struct {
	File string
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s line %d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("parse %s: %s", e.File, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// exportDateLayout matches the MM/DD/YYYY dates banks put in CSV exports.
const exportDateLayout = "01/02/2006"

func parseExportDate(s string) (time.Time, error) {
	return time.Parse(exportDateLayout, strings.TrimSpace(s))
}

// ParseMoney converts a currency-formatted string such as "$1,234.56" to a
// signed decimal. Empty or null-ish input normalizes to 0.0, never an error.
func ParseMoney(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
		return 0, nil
	}
	s = strings.ReplaceAll(strings.ReplaceAll(s, "$", ""), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	return f, nil
}

// headerIndex maps column names to positions, case-insensitive.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

func field(rec []string, idx map[string]int, name string) (string, bool) {
	i, ok := idx[name]
	if !ok || i >= len(rec) {
		return "", false
	}
	return strings.TrimSpace(rec[i]), true
}
