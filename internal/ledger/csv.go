// Package ledger shapes a detection run's output for the external ledger
// serializer: a CSV of transactions, one row per posting, validated against
// the pipeline's invariants before anything is written.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beanflow-dev/beanflow/internal/model"
)

// Header is the CSV header for transactions.csv.
const Header = "txn_id,date,account,amount,currency,narration,meta"

const (
	numFields  = 7
	dateFormat = "2006-01-02"
	colTxnID   = 0
	colDate    = 1
	colAccount = 2
	colAmount  = 3
	colCcy     = 4
	colNarr    = 5
	colMeta    = 6
)

// WriteTransactions writes transactions to a transactions.csv writer
// (including header), one row per posting.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, t := range txns {
		for _, row := range MarshalTransaction(t) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing transaction %s: %w", t.ID, err)
			}
		}
	}
	return cw.Error()
}

// ReadTransactions reads a transactions.csv reader, grouping consecutive
// rows that share a transaction ID.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		t, posting, err := unmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if n := len(txns); n > 0 && txns[n-1].ID == t.ID {
			txns[n-1].Postings = append(txns[n-1].Postings, posting)
			continue
		}
		t.Postings = []model.Posting{posting}
		txns = append(txns, t)
	}
	return txns, nil
}

// MarshalTransaction converts a transaction to CSV rows, one per posting.
// The narration and metadata are repeated on every row of the group.
func MarshalTransaction(t model.Transaction) [][]string {
	meta := flattenMeta(t.Meta)
	rows := make([][]string, 0, len(t.Postings))
	for _, p := range t.Postings {
		row := make([]string, numFields)
		row[colTxnID] = t.ID
		row[colDate] = t.Date.Format(dateFormat)
		row[colAccount] = p.Account
		row[colAmount] = p.Amount.String()
		row[colCcy] = p.Currency
		row[colNarr] = t.Narration
		row[colMeta] = meta
		rows = append(rows, row)
	}
	return rows
}

func unmarshalRow(rec []string) (model.Transaction, model.Posting, error) {
	if len(rec) != numFields {
		return model.Transaction{}, model.Posting{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}

	date, err := time.Parse(dateFormat, rec[colDate])
	if err != nil {
		return model.Transaction{}, model.Posting{}, fmt.Errorf("parsing date %q: %w", rec[colDate], err)
	}

	amount, err := decimal.NewFromString(rec[colAmount])
	if err != nil {
		return model.Transaction{}, model.Posting{}, fmt.Errorf("parsing amount %q: %w", rec[colAmount], err)
	}

	t := model.Transaction{
		ID:        rec[colTxnID],
		Date:      date,
		Narration: rec[colNarr],
		Meta:      expandMeta(rec[colMeta]),
	}
	p := model.Posting{
		Account:  rec[colAccount],
		Amount:   amount,
		Currency: rec[colCcy],
	}
	return t, p, nil
}

// flattenMeta encodes metadata as "k=v;k=v" with sorted keys.
func flattenMeta(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+meta[k])
	}
	return strings.Join(parts, ";")
}

func expandMeta(s string) map[string]string {
	if s == "" {
		return nil
	}
	meta := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		meta[k] = v
	}
	return meta
}
