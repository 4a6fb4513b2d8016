package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/beanflow-dev/beanflow/internal/id"
	"github.com/beanflow-dev/beanflow/internal/model"
)

// ValidationError describes a single invariant violation in a run's output.
type ValidationError struct {
	Invariant   int
	TxnID       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.TxnID, e.Description)
}

// Validate enforces the pipeline's output invariants before the run is
// persisted:
//
//  1. Merged transactions balance per currency within the matching
//     tolerance (absolute plus relative slack); for
//     cross-currency merges the recorded implied rate stands in for the
//     per-currency check.
//  2. Every input transaction ID appears exactly once in the output, either
//     unchanged or inside exactly one merge's origin-ids.
//  3. The output introduces no transaction that is neither an input nor a
//     merge of inputs.
//  4. Output transaction IDs are unique.
func Validate(in, out []model.Transaction, absTol decimal.Decimal, relTol float64) []ValidationError {
	var errs []ValidationError

	inputIDs := make(map[string]bool, len(in))
	for _, t := range in {
		inputIDs[t.ID] = true
	}

	covered := make(map[string]int, len(in))
	outSeen := make(map[string]bool, len(out))

	for _, t := range out {
		if outSeen[t.ID] {
			errs = append(errs, ValidationError{
				Invariant:   4,
				TxnID:       t.ID,
				Description: "duplicate transaction in output",
			})
		}
		outSeen[t.ID] = true

		origins := id.SplitOrigins(t.Meta[model.MetaOriginIDs])
		if len(origins) == 0 {
			// Pass-through transaction.
			if !inputIDs[t.ID] {
				errs = append(errs, ValidationError{
					Invariant:   3,
					TxnID:       t.ID,
					Description: "output transaction not present in input",
				})
				continue
			}
			covered[t.ID]++
			continue
		}

		// Merged transaction.
		for _, origin := range origins {
			if !inputIDs[origin] {
				errs = append(errs, ValidationError{
					Invariant:   3,
					TxnID:       t.ID,
					Description: fmt.Sprintf("merge origin %q not present in input", origin),
				})
				continue
			}
			covered[origin]++
		}

		if err, ok := checkMergedBalance(t, absTol, relTol); !ok {
			errs = append(errs, err)
		}
	}

	for _, t := range in {
		switch covered[t.ID] {
		case 1:
		case 0:
			errs = append(errs, ValidationError{
				Invariant:   2,
				TxnID:       t.ID,
				Description: "input transaction dropped from output",
			})
		default:
			errs = append(errs, ValidationError{
				Invariant:   2,
				TxnID:       t.ID,
				Description: fmt.Sprintf("input transaction consumed %d times", covered[t.ID]),
			})
		}
	}

	return errs
}

func checkMergedBalance(t model.Transaction, absTol decimal.Decimal, relTol float64) (ValidationError, bool) {
	if t.Meta[model.MetaImpliedRate] != "" {
		// Cross-currency merge: the two sides live in different
		// currencies on purpose; the conversion assumption is in meta.
		return ValidationError{}, true
	}
	largest := decimal.Zero
	for _, p := range t.Postings {
		largest = decimal.Max(largest, p.Amount.Abs())
	}
	tolerance := absTol.Add(largest.Mul(decimal.NewFromFloat(relTol)))
	for currency, sum := range t.CurrencySums() {
		if sum.Abs().GreaterThan(tolerance) {
			return ValidationError{
				Invariant:   1,
				TxnID:       t.ID,
				Description: fmt.Sprintf("postings sum to %s %s, want 0 within %s", sum, currency, tolerance),
			}, false
		}
	}
	return ValidationError{}, true
}
