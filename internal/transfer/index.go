package transfer

import (
	"sort"

	"github.com/beanflow-dev/beanflow/internal/model"
)

// Index holds one run's transactions, with the matchable ones grouped by
// owning account and ordered by date. It is rebuilt fresh for every run and
// exposes no mutation after Load.
type Index struct {
	own       map[string]bool
	byID      map[string]model.Transaction
	byAccount map[string][]model.Transaction
}

// NewIndex creates an empty index for the given own-account set.
func NewIndex(ownAccounts []string) *Index {
	own := make(map[string]bool, len(ownAccounts))
	for _, a := range ownAccounts {
		own[a] = true
	}
	return &Index{
		own:       own,
		byID:      make(map[string]model.Transaction),
		byAccount: make(map[string][]model.Transaction),
	}
}

// Load indexes the transactions. It fails with DuplicateIDError if two share
// an identifier. Only unbalanced single-posting transactions on own accounts
// become matching candidates; everything else is held for pass-through only.
func (ix *Index) Load(txns []model.Transaction) error {
	for _, t := range txns {
		if _, seen := ix.byID[t.ID]; seen {
			return &DuplicateIDError{ID: t.ID}
		}
		ix.byID[t.ID] = t

		if checkMalformed(t) != nil {
			continue
		}
		if acct, ok := matchableAccount(ix.own, t); ok {
			ix.byAccount[acct] = append(ix.byAccount[acct], t)
		}
	}

	for acct := range ix.byAccount {
		list := ix.byAccount[acct]
		sort.Slice(list, func(i, j int) bool {
			if !list[i].Date.Equal(list[j].Date) {
				return list[i].Date.Before(list[j].Date)
			}
			return list[i].ID < list[j].ID
		})
	}
	return nil
}

// matchableAccount returns the own account a transaction is eligible on.
// Eligible means: exactly one posting, on an own account, not balanced.
func matchableAccount(own map[string]bool, t model.Transaction) (string, bool) {
	if len(t.Postings) != 1 || t.Balanced() {
		return "", false
	}
	acct := t.Postings[0].Account
	if !own[acct] {
		return "", false
	}
	return acct, true
}

// UnbalancedFor returns the date-ordered matchable transactions for one own
// account. The returned slice is a read-only view.
func (ix *Index) UnbalancedFor(account string) []model.Transaction {
	return ix.byAccount[account]
}

// OwnAccounts returns the sorted own accounts that have at least one
// matchable transaction. Sorting keeps candidate generation deterministic.
func (ix *Index) OwnAccounts() []string {
	accounts := make([]string, 0, len(ix.byAccount))
	for a := range ix.byAccount {
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)
	return accounts
}

// Get returns an indexed transaction by ID.
func (ix *Index) Get(txnID string) (model.Transaction, bool) {
	t, ok := ix.byID[txnID]
	return t, ok
}

// Len returns the number of indexed transactions.
func (ix *Index) Len() int {
	return len(ix.byID)
}
