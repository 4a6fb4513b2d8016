package accounts

import "github.com/beanflow-dev/beanflow/internal/model"

// DefaultMap returns a starter account map written by `beanflow init`.
func DefaultMap() []model.Account {
	return []model.Account{
		{StatementID: "wise-personal-USD", LedgerName: "Assets:Wise:Personal:USD", Currency: "USD", Own: true, Importer: "wisejson"},
		{StatementID: "wise-personal-EUR", LedgerName: "Assets:Wise:Personal:EUR", Currency: "EUR", Own: true, Importer: "wisejson"},
		{StatementID: "bank-checking", LedgerName: "Assets:Bank:Checking", Currency: "USD", Own: true, Importer: "statement"},
	}
}
