package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beanflow-dev/beanflow/internal/id"
	"github.com/beanflow-dev/beanflow/internal/model"
)

// StatementCSV parses the normalized statement shape: one row per
// transaction, with columns date, time, amount, currency, narration,
// reference. Institutions without a dedicated importer export into this
// format.
type StatementCSV struct{}

const (
	stmtDateFormat = "2006-01-02"
	stmtNumFields  = 6
	stmtColDate    = 0
	stmtColTime    = 1
	stmtColAmount  = 2
	stmtColCcy     = 3
	stmtColNarr    = 4
	stmtColRef     = 5
)

// Format returns the importer name.
func (p *StatementCSV) Format() string { return "statement" }

// Extract reads a normalized statement CSV and returns one single-posting
// transaction per row, attributed to acct's ledger account.
func (p *StatementCSV) Extract(r io.Reader, acct model.Account) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = stmtNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := p.parseRow(rec, i, acct)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (p *StatementCSV) parseRow(rec []string, row int, acct model.Account) (model.Transaction, error) {
	date, err := time.Parse(stmtDateFormat, rec[stmtColDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", rec[stmtColDate], err)
	}

	amount, err := decimal.NewFromString(rec[stmtColAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", rec[stmtColAmount], err)
	}

	currency := rec[stmtColCcy]
	if currency == "" {
		currency = acct.Currency
	}

	ref := rec[stmtColRef]
	if ref == "" {
		// Row position keeps the ID stable for statements without
		// per-row references.
		ref = fmt.Sprintf("%s-row%d", acct.StatementID, row+1)
	}

	meta := map[string]string{
		model.MetaSourceImporter: p.Format(),
	}
	if rec[stmtColTime] != "" {
		meta[model.MetaTime] = rec[stmtColTime]
	}
	if rec[stmtColRef] != "" {
		meta[model.MetaSrcID] = rec[stmtColRef]
	}

	return model.Transaction{
		ID:        id.Transaction(p.Format(), date, ref),
		Date:      date,
		Narration: rec[stmtColNarr],
		Postings: []model.Posting{
			{Account: acct.LedgerName, Amount: amount, Currency: currency},
		},
		Meta: meta,
	}, nil
}
