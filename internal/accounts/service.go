package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Rhymond/go-money"

	"github.com/beanflow-dev/beanflow/internal/model"
)

// Service provides in-memory lookup over the account map.
type Service struct {
	accounts      []model.Account
	byStatementID map[string]model.Account
}

// NewService creates a Service from a slice of account-map rows.
func NewService(accounts []model.Account) *Service {
	byID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.StatementID] = a
	}
	return &Service{accounts: accounts, byStatementID: byID}
}

// Load reads accounts/account-map.csv from a project root and returns a Service.
func Load(root string) (*Service, error) {
	path := filepath.Join(root, "accounts", "account-map.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening account map: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading account map: %w", err)
	}
	return NewService(accts), nil
}

// All returns all account-map rows.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns the mapping for a statement-level account reference.
func (s *Service) Get(statementID string) (model.Account, bool) {
	a, ok := s.byStatementID[statementID]
	return a, ok
}

// Exists reports whether a statement-level account reference is mapped.
func (s *Service) Exists(statementID string) bool {
	_, ok := s.byStatementID[statementID]
	return ok
}

// OwnLedgerNames returns the sorted set of ledger account names the user
// controls. Only these accounts participate in transfer matching.
func (s *Service) OwnLedgerNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, a := range s.accounts {
		if a.Own && !seen[a.LedgerName] {
			seen[a.LedgerName] = true
			names = append(names, a.LedgerName)
		}
	}
	sort.Strings(names)
	return names
}

// ByImporter returns all accounts whose statements are produced by format.
func (s *Service) ByImporter(format string) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Importer == format {
			result = append(result, a)
		}
	}
	return result
}

// Validate checks every account-map row and returns one issue string per
// problem. knownImporter reports whether an importer format is registered.
func (s *Service) Validate(knownImporter func(string) bool) []string {
	var issues []string
	seen := make(map[string]bool)
	for i, a := range s.accounts {
		row := i + 2 // 1-based, after header
		if a.StatementID == "" {
			issues = append(issues, fmt.Sprintf("row %d: empty statement_id", row))
		} else if seen[a.StatementID] {
			issues = append(issues, fmt.Sprintf("row %d: duplicate statement_id %q", row, a.StatementID))
		}
		seen[a.StatementID] = true

		if a.LedgerName == "" {
			issues = append(issues, fmt.Sprintf("row %d: empty ledger_account", row))
		}
		if money.GetCurrency(a.Currency) == nil {
			issues = append(issues, fmt.Sprintf("row %d: unknown currency %q", row, a.Currency))
		}
		if a.Importer != "" && knownImporter != nil && !knownImporter(a.Importer) {
			issues = append(issues, fmt.Sprintf("row %d: unknown importer %q", row, a.Importer))
		}
	}
	return issues
}

// Save writes the account map to accounts/account-map.csv under root.
func (s *Service) Save(root string) error {
	dir := filepath.Join(root, "accounts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	path := filepath.Join(dir, "account-map.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating account map file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing account map: %w", err)
	}
	return nil
}
