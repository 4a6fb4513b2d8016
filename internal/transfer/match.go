package transfer

import "sort"

// TiedCandidate is one side of an ambiguous tie.
type TiedCandidate struct {
	Other string // counterpart transaction ID
	Score float64
}

// AmbiguousReport lists the indistinguishable top candidates of one
// transaction. Reported transactions are left unmatched for manual review.
type AmbiguousReport struct {
	TxnID string
	Ties  []TiedCandidate
}

// ResolveMatches chooses a conflict-free subset of candidates. Candidates are
// walked in score order (ties broken by date offset, then ID pair) and
// accepted greedily while both transactions are still unconsumed.
//
// Before the greedy pass, any transaction whose two best candidates score
// within epsilon is marked ambiguous: none of its candidates can be accepted
// and the tie is reported. A wrong merge corrupts the ledger silently; an
// unmatched transaction is visible and safe to fix by hand.
func ResolveMatches(candidates []Candidate, epsilon float64) ([]Candidate, []AmbiguousReport) {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sortCandidates(sorted)

	ambiguous, reports := findAmbiguous(sorted, epsilon)

	var accepted []Candidate
	used := make(map[string]bool)
	for _, c := range sorted {
		if ambiguous[c.A] || ambiguous[c.B] {
			continue
		}
		if used[c.A] || used[c.B] {
			continue
		}
		used[c.A] = true
		used[c.B] = true
		accepted = append(accepted, c)
	}
	return accepted, reports
}

// findAmbiguous returns the set of transactions whose top two candidates tie
// within epsilon, with one report per transaction listing every candidate
// inside the tie band.
func findAmbiguous(sorted []Candidate, epsilon float64) (map[string]bool, []AmbiguousReport) {
	perTxn := make(map[string][]TiedCandidate)
	for _, c := range sorted {
		perTxn[c.A] = append(perTxn[c.A], TiedCandidate{Other: c.B, Score: c.Score})
		perTxn[c.B] = append(perTxn[c.B], TiedCandidate{Other: c.A, Score: c.Score})
	}

	ambiguous := make(map[string]bool)
	var reports []AmbiguousReport
	for txnID, cands := range perTxn {
		if len(cands) < 2 {
			continue
		}
		// cands inherit the sorted candidate order: best first.
		if cands[0].Score-cands[1].Score > epsilon {
			continue
		}
		ambiguous[txnID] = true

		ties := []TiedCandidate{cands[0]}
		for _, c := range cands[1:] {
			if cands[0].Score-c.Score > epsilon {
				break
			}
			ties = append(ties, c)
		}
		reports = append(reports, AmbiguousReport{TxnID: txnID, Ties: ties})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].TxnID < reports[j].TxnID
	})
	return ambiguous, reports
}
