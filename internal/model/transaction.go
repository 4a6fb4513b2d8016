package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known metadata keys attached by importers and the transfer detector.
const (
	MetaSourceImporter = "source-importer"
	MetaTime           = "time"
	MetaSrcID          = "src-id"
	MetaConverted      = "converted"
	MetaOriginIDs      = "origin-ids"
	MetaMatchScore     = "match-score"
	MetaImpliedRate    = "implied-rate"
)

// Posting is one side of a transaction: a signed amount on an account.
type Posting struct {
	Account  string
	Amount   decimal.Decimal
	Currency string
}

// Transaction is the normalized shape every importer produces.
// Freshly imported statement rows carry a single posting; the transfer
// detector produces two-posting transactions when it merges a pair.
type Transaction struct {
	ID        string
	Date      time.Time // date only, UTC midnight
	Narration string
	Postings  []Posting
	Meta      map[string]string
}

// CurrencySums returns the per-currency sum of posting amounts.
func (t Transaction) CurrencySums() map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal, 2)
	for _, p := range t.Postings {
		sums[p.Currency] = sums[p.Currency].Add(p.Amount)
	}
	return sums
}

// Balanced reports whether every per-currency sum of postings is zero.
// A transaction with no postings is trivially balanced.
func (t Transaction) Balanced() bool {
	for _, sum := range t.CurrencySums() {
		if !sum.IsZero() {
			return false
		}
	}
	return true
}

// SourceImporter returns the source-importer meta tag, or "".
func (t Transaction) SourceImporter() string {
	return t.Meta[MetaSourceImporter]
}

// WithMeta returns a shallow copy of t with key set in a copied Meta map.
func (t Transaction) WithMeta(key, value string) Transaction {
	meta := make(map[string]string, len(t.Meta)+1)
	for k, v := range t.Meta {
		meta[k] = v
	}
	meta[key] = value
	t.Meta = meta
	return t
}
