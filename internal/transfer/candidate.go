package transfer

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/beanflow-dev/beanflow/internal/model"
)

// Candidate is an unordered pair of transactions hypothesized to be the two
// sides of one transfer. A and B are transaction IDs with A < B.
type Candidate struct {
	A, B  string
	Score float64
	// DayGap is the absolute date offset between the two sides.
	DayGap int
	// Cross marks a cross-currency pair; ImpliedRate is the conversion
	// assumption that justifies the amount match (1 for same currency).
	Cross       bool
	ImpliedRate float64
}

// Generator enumerates plausible transfer pairs from an index without a full
// pairwise scan: per account pair, each transaction only looks at the other
// account's date window.
type Generator struct {
	cfg    Config
	index  *Index
	scorer *Scorer
}

// NewGenerator creates a Generator over a loaded index.
func NewGenerator(cfg Config, index *Index) *Generator {
	return &Generator{cfg: cfg, index: index, scorer: NewScorer(cfg)}
}

// Generate returns all scored candidates, sorted for the matcher. Account
// pairs are scanned concurrently; workers only read the index and append to
// the shared result under a lock.
func (g *Generator) Generate() []Candidate {
	accounts := g.index.OwnAccounts()

	type pair struct{ a, b string }
	var pairs []pair
	for i, a := range accounts {
		for _, b := range accounts[i+1:] {
			pairs = append(pairs, pair{a, b})
		}
	}

	workers := g.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan pair)

	var (
		mu         sync.Mutex
		candidates []Candidate
		wg         sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				found := g.scanPair(p.a, p.b)
				mu.Lock()
				candidates = append(candidates, found...)
				mu.Unlock()
			}
		}()
	}
	for _, p := range pairs {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	sortCandidates(candidates)
	return candidates
}

// scanPair emits candidates between two own accounts. For every transaction
// on acctA it binary-searches acctB's date-ordered slice to the window start
// and scans linearly to the window end.
func (g *Generator) scanPair(acctA, acctB string) []Candidate {
	listA := g.index.UnbalancedFor(acctA)
	listB := g.index.UnbalancedFor(acctB)

	var out []Candidate
	for _, t := range listA {
		lo := t.Date.AddDate(0, 0, -g.cfg.WindowDays)
		hi := t.Date.AddDate(0, 0, g.cfg.WindowDays)

		start := sort.Search(len(listB), func(i int) bool {
			return !listB[i].Date.Before(lo)
		})
		for i := start; i < len(listB) && !listB[i].Date.After(hi); i++ {
			u := listB[i]
			cand, ok := g.pairCandidate(t, u)
			if !ok {
				continue
			}
			out = append(out, cand)
		}
	}
	return out
}

// pairCandidate decides whether (t, u) is a plausible transfer and scores it.
// Amounts must have opposite signs; same-currency amounts must agree within
// the absolute-plus-relative tolerance, while cross-currency pairs are always
// emitted with their implied rate recorded for the scorer to penalize.
func (g *Generator) pairCandidate(t, u model.Transaction) (Candidate, bool) {
	pt, pu := t.Postings[0], u.Postings[0]
	if pt.Amount.Sign() == 0 || pu.Amount.Sign() == 0 || pt.Amount.Sign() == pu.Amount.Sign() {
		return Candidate{}, false
	}

	cross := pt.Currency != pu.Currency
	if !cross && !g.amountsCompatible(pt.Amount.Abs(), pu.Amount.Abs()) {
		return Candidate{}, false
	}

	c := Candidate{
		A:           t.ID,
		B:           u.ID,
		DayGap:      dayGap(t, u),
		Cross:       cross,
		ImpliedRate: 1,
	}
	if c.B < c.A {
		c.A, c.B = c.B, c.A
	}
	if cross {
		c.ImpliedRate = impliedRate(t, u)
	}
	c.Score = g.scorer.Score(t, u)
	return c, true
}

// amountsCompatible reports whether two absolute same-currency amounts agree
// within tolerance.
func (g *Generator) amountsCompatible(a, b decimal.Decimal) bool {
	larger := decimal.Max(a, b)
	tol := g.cfg.AmountTolerance.Add(larger.Mul(decimal.NewFromFloat(g.cfg.RelativeTolerance)))
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

// sortCandidates orders by score descending, then smaller date offset, then
// lexicographically smaller ID pair. This ordering makes the matcher's output
// independent of input ordering.
func sortCandidates(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		if cands[i].DayGap != cands[j].DayGap {
			return cands[i].DayGap < cands[j].DayGap
		}
		if cands[i].A != cands[j].A {
			return cands[i].A < cands[j].A
		}
		return cands[i].B < cands[j].B
	})
}
