package transfer

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/beanflow-dev/beanflow/internal/model"
)

// srcIDBonus is added to the narration sub-score when both sides carry the
// same statement-level reference in their metadata.
const srcIDBonus = 0.25

// Scorer assigns a confidence in [0,1] to a candidate pair. It is a pure
// function of the configuration and the two transactions.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer for one run's configuration.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score combines the date, amount, and narration sub-scores of a candidate
// pair into one weighted confidence. Both transactions must be matchable
// (single posting each).
func (s *Scorer) Score(a, b model.Transaction) float64 {
	w := s.cfg.Weights
	total := w.Date + w.Amount + w.Narration
	if total == 0 {
		return 0
	}
	sum := w.Date*s.dateScore(a, b) +
		w.Amount*s.amountScore(a, b) +
		w.Narration*s.narrationScore(a, b)
	return sum / total
}

// dateScore decays linearly from 1.0 at zero offset to 0 at the window edge.
func (s *Scorer) dateScore(a, b model.Transaction) float64 {
	gap := dayGap(a, b)
	if s.cfg.WindowDays == 0 {
		if gap == 0 {
			return 1
		}
		return 0
	}
	if gap >= s.cfg.WindowDays {
		return 0
	}
	return 1 - float64(gap)/float64(s.cfg.WindowDays)
}

// amountScore is 1.0 for a same-currency pair (the generator already checked
// the tolerance). Cross-currency pairs start at the configured ceiling and
// decay as the implied rate deviates from the reference rate, or from 1.0
// when no reference is configured for the pair.
func (s *Scorer) amountScore(a, b model.Transaction) float64 {
	pa, pb := a.Postings[0], b.Postings[0]
	if pa.Currency == pb.Currency {
		return 1
	}
	implied := impliedRate(a, b)
	ref := s.referenceRate(pa.Currency, pb.Currency)
	dev := math.Abs(implied/ref - 1)
	return s.cfg.CrossCurrencyCap / (1 + dev)
}

// referenceRate looks up the expected TO-per-FROM rate, trying the inverse
// pair before falling back to 1.0.
func (s *Scorer) referenceRate(from, to string) float64 {
	if r, ok := s.cfg.ReferenceRates[from+"/"+to]; ok && r > 0 {
		return r
	}
	if r, ok := s.cfg.ReferenceRates[to+"/"+from]; ok && r > 0 {
		return 1 / r
	}
	return 1
}

// narrationScore measures textual similarity between the two narrations:
// the better of token overlap (Jaccard) and normalized edit distance, plus a
// bonus when both sides reference the same statement identifier.
func (s *Scorer) narrationScore(a, b model.Transaction) float64 {
	na, nb := normalizeNarration(a.Narration), normalizeNarration(b.Narration)

	var sim float64
	if na != "" && nb != "" {
		sim = math.Max(tokenOverlap(na, nb), editSimilarity(na, nb))
	}

	if srcA := a.Meta[model.MetaSrcID]; srcA != "" && srcA == b.Meta[model.MetaSrcID] {
		sim = math.Min(1, sim+srcIDBonus)
	}
	return sim
}

// normalizeNarration lowercases and collapses everything that is not a letter
// or digit into single spaces.
func normalizeNarration(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func tokenOverlap(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]bool, len(ta))
	for _, tok := range ta {
		set[tok] = true
	}
	union := len(set)
	shared := 0
	for _, tok := range tb {
		if set[tok] {
			set[tok] = false
			shared++
		} else {
			union++
		}
	}
	return float64(shared) / float64(union)
}

func editSimilarity(a, b string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// dayGap returns the absolute date offset in whole days.
func dayGap(a, b model.Transaction) int {
	gap := int(a.Date.Sub(b.Date).Hours() / 24)
	if gap < 0 {
		gap = -gap
	}
	return gap
}

// impliedRate returns |amount(b)| / |amount(a)|, the conversion rate that
// would make the two single postings equal. Recorded, never verified.
func impliedRate(a, b model.Transaction) float64 {
	av, _ := a.Postings[0].Amount.Abs().Float64()
	bv, _ := b.Postings[0].Amount.Abs().Float64()
	if av == 0 {
		return 0
	}
	return bv / av
}
