// Package transfer detects transfers between own accounts: two one-sided
// transactions from different importers that describe the same movement of
// money, merged into one balanced transaction.
package transfer

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/beanflow-dev/beanflow/internal/model"
)

// Merge records one accepted merge with the candidate that produced it.
type Merge struct {
	Result    model.Transaction
	Candidate Candidate
}

// Skipped pairs a malformed transaction with the reason it was excluded from
// matching. The transaction still appears in the output unchanged.
type Skipped struct {
	Transaction model.Transaction
	Err         *MalformedTransactionError
}

// Result is one detection run's output: the full transaction universe with
// matched pairs replaced by merged transactions, plus the side reports.
type Result struct {
	// Transactions is a partition of the input: unchanged transactions and
	// merged pairs, sorted by date then ID.
	Transactions []model.Transaction
	Merges       []Merge
	Ambiguous    []AmbiguousReport
	Skipped      []Skipped
}

// Detect runs the full pipeline over a fully loaded batch: index, candidate
// generation, global matching, merging. It is deterministic and idempotent:
// the same input set produces the same output regardless of input order.
func Detect(txns []model.Transaction, cfg Config, log zerolog.Logger) (*Result, error) {
	result := &Result{}

	for _, t := range txns {
		if merr := checkMalformed(t); merr != nil {
			log.Warn().Str("txn", t.ID).Str("reason", merr.Reason).Msg("skipping malformed transaction")
			result.Skipped = append(result.Skipped, Skipped{Transaction: t, Err: merr})
		}
	}
	sort.Slice(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].Transaction.ID < result.Skipped[j].Transaction.ID
	})

	// The index sees the whole batch so the duplicate check covers
	// malformed transactions too; Load never makes them matchable.
	index := NewIndex(cfg.OwnAccounts)
	if err := index.Load(txns); err != nil {
		return nil, err
	}

	candidates := NewGenerator(cfg, index).Generate()
	accepted, ambiguous := ResolveMatches(candidates, cfg.AmbiguityEpsilon)
	result.Ambiguous = ambiguous

	merger := NewMerger(cfg)
	consumed := make(map[string]bool, 2*len(accepted))
	for _, c := range accepted {
		a, _ := index.Get(c.A)
		b, _ := index.Get(c.B)
		merged := merger.Merge(a, b, c)
		consumed[c.A] = true
		consumed[c.B] = true
		result.Merges = append(result.Merges, Merge{Result: merged, Candidate: c})
		result.Transactions = append(result.Transactions, merged)
		log.Debug().
			Str("a", c.A).
			Str("b", c.B).
			Float64("score", c.Score).
			Msg("merged transfer pair")
	}

	for _, t := range txns {
		if !consumed[t.ID] {
			result.Transactions = append(result.Transactions, t)
		}
	}
	sort.Slice(result.Transactions, func(i, j int) bool {
		ti, tj := result.Transactions[i], result.Transactions[j]
		if !ti.Date.Equal(tj.Date) {
			return ti.Date.Before(tj.Date)
		}
		return ti.ID < tj.ID
	})

	log.Info().
		Int("input", len(txns)).
		Int("merged", len(result.Merges)).
		Int("ambiguous", len(result.Ambiguous)).
		Int("skipped", len(result.Skipped)).
		Msg("transfer detection finished")
	return result, nil
}

// checkMalformed reports whether a transaction lacks a usable posting: no
// postings at all, a posting without an account or currency, or a sole
// posting with a zero amount.
func checkMalformed(t model.Transaction) *MalformedTransactionError {
	if len(t.Postings) == 0 {
		return &MalformedTransactionError{ID: t.ID, Reason: "no postings"}
	}
	for _, p := range t.Postings {
		if p.Account == "" {
			return &MalformedTransactionError{ID: t.ID, Reason: "posting without account"}
		}
		if p.Currency == "" {
			return &MalformedTransactionError{ID: t.ID, Reason: "posting without currency"}
		}
	}
	if len(t.Postings) == 1 && t.Postings[0].Amount.IsZero() {
		return &MalformedTransactionError{ID: t.ID, Reason: "zero amount"}
	}
	return nil
}
