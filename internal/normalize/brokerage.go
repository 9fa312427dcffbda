package normalize

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"
)

// BrokerageOptions tunes the brokerage-style export parser.
type BrokerageOptions struct {
	// Card is the constant account tag stamped on every row.
	Card string
	// TransferMarker drops rows whose description contains it; these are
	// internal transfers between own accounts (e.g. card bill payments).
	TransferMarker string
}

// DefaultBrokerageCard tags rows from the brokerage checking account.
const DefaultBrokerageCard = "Brokerage"

// ParseBrokerage parses a brokerage-style export, restricted to the Date,
// Description, Type, Withdrawal and Deposit columns. Amounts arrive as
// currency strings; the signed amount is deposit minus withdrawal.
func ParseBrokerage(r io.Reader, filename string, opts BrokerageOptions) ([]Transaction, error) {
	if opts.Card == "" {
		opts.Card = DefaultBrokerageCard
	}

	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	header, err := csvr.Read()
	if err != nil {
		return nil, &ParseError{File: filename, Msg: "missing header", Err: err}
	}
	idx := headerIndex(header)
	for _, required := range []string{"date", "description", "type", "withdrawal", "deposit"} {
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
		txType, _ := field(rec, idx, "type")
		if opts.TransferMarker != "" &&
			strings.Contains(strings.ToLower(desc), strings.ToLower(opts.TransferMarker)) {
			continue
		}
		if txType == "TRANSFER" {
			continue
		}

		rawDate, _ := field(rec, idx, "date")
		date, err := parseExportDate(rawDate)
		if err != nil {
			return nil, &ParseError{File: filename, Line: line, Msg: "bad date", Err: err}
		}
		rawWithdrawal, _ := field(rec, idx, "withdrawal")
		withdrawal, err := ParseMoney(rawWithdrawal)
		if err != nil {
			return nil, &ParseError{File: filename, Line: line, Msg: "bad withdrawal", Err: err}
		}
		rawDeposit, _ := field(rec, idx, "deposit")
		deposit, err := ParseMoney(rawDeposit)
		if err != nil {
			return nil, &ParseError{File: filename, Line: line, Msg: "bad deposit", Err: err}
		}

		out = append(out, Transaction{
			Card:        opts.Card,
			Date:        date,
			Description: desc,
			Type:        txType,
			Amount:      deposit - withdrawal,
		})
	}
	return out, nil
}
