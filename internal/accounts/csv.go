package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/beanflow-dev/beanflow/internal/model"
)

const (
	numFields      = 5
	colStatementID = 0
	colLedgerName  = 1
	colCurrency    = 2
	colOwn         = 3
	colImporter    = 4
)

// ReadAccounts reads account-map.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading account map CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes account-map.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"statement_id", "ledger_account", "currency", "own", "importer"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colStatementID] = acct.StatementID
	row[colLedgerName] = acct.LedgerName
	row[colCurrency] = acct.Currency
	row[colOwn] = strconv.FormatBool(acct.Own)
	row[colImporter] = acct.Importer
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	own, err := strconv.ParseBool(record[colOwn])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing own %q: %w", record[colOwn], err)
	}

	return model.Account{
		StatementID: record[colStatementID],
		LedgerName:  record[colLedgerName],
		Currency:    record[colCurrency],
		Own:         own,
		Importer:    record[colImporter],
	}, nil
}
