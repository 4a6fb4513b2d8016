package model

// Account maps a statement-level account reference to a ledger account name,
// one row in account-map.csv.
type Account struct {
	StatementID string // reference used inside statement files (IBAN, card number, "wise-personal-USD", ...)
	LedgerName  string // ledger account name, e.g. "Assets:Wise:Personal:USD"
	Currency    string // ISO 4217 code of the account
	Own         bool   // user-controlled account, eligible for transfer matching
	Importer    string // importer format that produces this account's statements
}
