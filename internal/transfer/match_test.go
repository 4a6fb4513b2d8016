package transfer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMatches_GreedyPrefersBestScore(t *testing.T) {
	cands := []Candidate{
		{A: "t1", B: "t2", Score: 0.9},
		{A: "t1", B: "t3", Score: 0.5},
	}

	accepted, ambiguous := ResolveMatches(cands, 0.05)
	require.Len(t, accepted, 1)
	assert.Equal(t, "t2", accepted[0].B)
	assert.Empty(t, ambiguous)
}

func TestResolveMatches_ConsumedOnce(t *testing.T) {
	cands := []Candidate{
		{A: "t1", B: "t2", Score: 0.9},
		{A: "t2", B: "t3", Score: 0.7},
		{A: "t3", B: "t4", Score: 0.6},
	}

	accepted, _ := ResolveMatches(cands, 0.05)
	require.Len(t, accepted, 2)
	assert.Equal(t, Candidate{A: "t1", B: "t2", Score: 0.9}, accepted[0])
	assert.Equal(t, Candidate{A: "t3", B: "t4", Score: 0.6}, accepted[1])
}

func TestResolveMatches_TieWithinEpsilonReported(t *testing.T) {
	cands := []Candidate{
		{A: "t1", B: "t2", Score: 0.80},
		{A: "t1", B: "t3", Score: 0.78},
	}

	accepted, ambiguous := ResolveMatches(cands, 0.05)
	assert.Empty(t, accepted, "a genuine tie must not be guessed")

	require.Len(t, ambiguous, 1)
	rep := ambiguous[0]
	assert.Equal(t, "t1", rep.TxnID)
	require.Len(t, rep.Ties, 2)
	assert.Equal(t, "t2", rep.Ties[0].Other)
	assert.Equal(t, "t3", rep.Ties[1].Other)
}

func TestResolveMatches_TieBandStopsAtEpsilon(t *testing.T) {
	cands := []Candidate{
		{A: "t1", B: "t2", Score: 0.80},
		{A: "t1", B: "t3", Score: 0.79},
		{A: "t1", B: "t4", Score: 0.30},
	}

	_, ambiguous := ResolveMatches(cands, 0.05)
	require.Len(t, ambiguous, 1)
	assert.Len(t, ambiguous[0].Ties, 2, "the distant third candidate is not part of the tie")
}

func TestResolveMatches_ClearGapNotAmbiguous(t *testing.T) {
	cands := []Candidate{
		{A: "t1", B: "t2", Score: 0.90},
		{A: "t1", B: "t3", Score: 0.50},
	}

	accepted, ambiguous := ResolveMatches(cands, 0.05)
	require.Len(t, accepted, 1)
	assert.Empty(t, ambiguous)
}

func TestResolveMatches_EqualScoreTieBreaksByDayGapThenIDs(t *testing.T) {
	cands := []Candidate{
		{A: "t3", B: "t4", Score: 0.7, DayGap: 2},
		{A: "t1", B: "t2", Score: 0.7, DayGap: 1},
		{A: "t1", B: "t9", Score: 0.7, DayGap: 1},
	}

	accepted, ambiguous := ResolveMatches(cands, 0.0)
	// t1 ties exactly between t2 and t9, so it is ambiguous; t3/t4 stands.
	require.Len(t, ambiguous, 1)
	assert.Equal(t, "t1", ambiguous[0].TxnID)
	require.Len(t, accepted, 1)
	assert.Equal(t, "t3", accepted[0].A)
}

func TestResolveMatches_InputOrderIrrelevant(t *testing.T) {
	base := []Candidate{
		{A: "t1", B: "t2", Score: 0.9, DayGap: 1},
		{A: "t2", B: "t3", Score: 0.7, DayGap: 0},
		{A: "t3", B: "t4", Score: 0.65, DayGap: 2},
		{A: "t5", B: "t6", Score: 0.8, DayGap: 1},
		{A: "t4", B: "t5", Score: 0.4, DayGap: 3},
	}

	wantAccepted, wantAmbiguous := ResolveMatches(base, 0.05)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := make([]Candidate, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		accepted, ambiguous := ResolveMatches(shuffled, 0.05)
		assert.Equal(t, wantAccepted, accepted)
		assert.Equal(t, wantAmbiguous, ambiguous)
	}
}
