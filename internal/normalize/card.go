package normalize

import (
	"bufio"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
)

// CardOptions tunes the card-style export parser.
type CardOptions struct {
	// AutoPaymentSentinel is the exact description of statement-payment
	// rows, which are internal transfers and never spending.
	AutoPaymentSentinel string
}

// DefaultAutoPaymentSentinel matches the payment line card issuers insert
// for each statement autopay.
const DefaultAutoPaymentSentinel = "AUTOMATIC PAYMENT - THANK"

// ParseCard parses a card-style export: a headered CSV with Transaction
// Date, Description, Category, Type, Amount and optional Memo columns.
// The card tag is derived from the filename prefix up to the first "_".
func ParseCard(r io.Reader, filename string, opts CardOptions) ([]Transaction, error) {
	if opts.AutoPaymentSentinel == "" {
		opts.AutoPaymentSentinel = DefaultAutoPaymentSentinel
	}
	card := cardFromFilename(filename)

	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	header, err := csvr.Read()
	if err != nil {
		return nil, &ParseError{File: filename, Msg: "missing header", Err: err}
	}
	idx := headerIndex(header)
	for _, required := range []string{"transaction date", "description", "amount"} {
		if _, ok := idx[required]; !ok {
			return nil, &ParseError{File: filename, Msg: "missing required column " + required}
		}
	}

	var out []Transaction
	line := 1
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{File: filename, Line: line, Msg: "malformed row", Err: err}
		}

		desc, _ := field(rec, idx, "description")
		if desc == opts.AutoPaymentSentinel {
			continue
		}

		rawDate, _ := field(rec, idx, "transaction date")
		date, err := parseExportDate(rawDate)
		if err != nil {
			return nil, &ParseError{File: filename, Line: line, Msg: "bad transaction date", Err: err}
		}
		rawAmount, _ := field(rec, idx, "amount")
		amount, err := ParseMoney(rawAmount)
		if err != nil {
			return nil, &ParseError{File: filename, Line: line, Msg: "bad amount", Err: err}
		}

		category, _ := field(rec, idx, "category")
		txType, _ := field(rec, idx, "type")
		memo, _ := field(rec, idx, "memo") // missing memo column coerces to ""

		out = append(out, Transaction{
			Card:        card,
			Date:        date,
			Description: desc,
			Category:    category,
			Type:        txType,
			Amount:      amount,
			Memo:        memo,
		})
	}
	return out, nil
}

func cardFromFilename(filename string) string {
	base := filepath.Base(filename)
	if i := strings.Index(base, "_"); i > 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
