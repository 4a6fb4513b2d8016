package transfer

import "github.com/shopspring/decimal"

// Weights holds the scorer's sub-score weights. They are normalized by their
// sum, so only the ratios matter.
type Weights struct {
	Date      float64
	Amount    float64
	Narration float64
}

// Config tunes one detection run. Zero values are not usable; start from
// DefaultConfig.
type Config struct {
	// OwnAccounts is the set of ledger account names the user controls.
	// Only single-posting transactions on these accounts are matched.
	OwnAccounts []string

	// WindowDays is the maximum date offset between the two sides of a
	// transfer.
	WindowDays int

	// Workers bounds the number of goroutines scanning account pairs.
	Workers int

	Weights Weights

	// AmountTolerance is the absolute slack allowed between same-currency
	// amounts; RelativeTolerance adds a proportional slack on top.
	AmountTolerance   decimal.Decimal
	RelativeTolerance float64

	// AmbiguityEpsilon: when a transaction's two best candidates score
	// within this distance, the transaction is reported instead of merged.
	AmbiguityEpsilon float64

	// CrossCurrencyCap is the ceiling of the amount sub-score for
	// cross-currency candidates.
	CrossCurrencyCap float64

	// ReferenceRates maps "FROM/TO" currency pairs to the expected rate
	// (units of TO per unit of FROM). Implied rates are scored against
	// these, or against 1.0 when a pair is absent.
	ReferenceRates map[string]float64

	// NarrationPriority lists importer names whose narration wins when a
	// merged pair's narrations differ. Earlier entries win.
	NarrationPriority []string
}

// DefaultConfig returns a Config with the documented defaults for the given
// own-account set.
func DefaultConfig(ownAccounts ...string) Config {
	return Config{
		OwnAccounts:       ownAccounts,
		WindowDays:        3,
		Workers:           4,
		Weights:           Weights{Date: 0.35, Amount: 0.45, Narration: 0.20},
		AmountTolerance:   decimal.New(1, -2), // 0.01
		RelativeTolerance: 0.01,
		AmbiguityEpsilon:  0.05,
		CrossCurrencyCap:  0.6,
	}
}
