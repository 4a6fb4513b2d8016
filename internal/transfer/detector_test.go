package transfer

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanflow-dev/beanflow/internal/model"
)

func detect(t *testing.T, txns []model.Transaction, cfg Config) *Result {
	t.Helper()
	result, err := Detect(txns, cfg, zerolog.Nop())
	require.NoError(t, err)
	return result
}

func TestDetect_SimpleTransfer(t *testing.T) {
	t1 := txn("t1", date(2024, 1, 5), "Assets:Bank:Checking", "-100", "USD", "Transfer to B")
	t2 := txn("t2", date(2024, 1, 6), "Assets:Bank:Savings", "100", "USD", "Transfer from A")

	result := detect(t, []model.Transaction{t1, t2}, testConfig())

	require.Len(t, result.Merges, 1)
	merged := result.Merges[0].Result
	assert.Equal(t, date(2024, 1, 5), merged.Date)
	assert.Equal(t, "t1,t2", merged.Meta[model.MetaOriginIDs])
	require.Len(t, merged.Postings, 2)
	assert.Equal(t, "Assets:Bank:Checking", merged.Postings[0].Account)
	assert.Equal(t, "Assets:Bank:Savings", merged.Postings[1].Account)
	assert.True(t, merged.Balanced())

	require.Len(t, result.Transactions, 1, "both sides are consumed into one transaction")
	assert.Empty(t, result.Ambiguous)
	assert.Empty(t, result.Skipped)
}

func TestDetect_AmbiguousTieLeavesAllUnmatched(t *testing.T) {
	t3 := txn("t3", date(2024, 1, 5), "Assets:Bank:Checking", "-50", "USD", "transfer")
	b := txn("tb", date(2024, 1, 5), "Assets:Bank:Savings", "50", "USD", "transfer")
	c := txn("tc", date(2024, 1, 5), "Assets:Wise:USD", "50", "USD", "transfer")

	result := detect(t, []model.Transaction{t3, b, c}, testConfig())

	assert.Empty(t, result.Merges)
	assert.Len(t, result.Transactions, 3, "all three pass through unchanged")

	require.Len(t, result.Ambiguous, 1)
	rep := result.Ambiguous[0]
	assert.Equal(t, "t3", rep.TxnID)
	require.Len(t, rep.Ties, 2)
	assert.Equal(t, rep.Ties[0].Score, rep.Ties[1].Score)
}

func TestDetect_MalformedSkippedRunContinues(t *testing.T) {
	good1 := txn("g1", date(2024, 1, 5), "Assets:Bank:Checking", "-100", "USD", "transfer")
	good2 := txn("g2", date(2024, 1, 5), "Assets:Bank:Savings", "100", "USD", "transfer")
	zero := txn("z1", date(2024, 1, 5), "Assets:Bank:Checking", "0", "USD", "nothing")
	noCcy := model.Transaction{
		ID:   "n1",
		Date: date(2024, 1, 5),
		Postings: []model.Posting{
			{Account: "Assets:Bank:Savings", Amount: dec("100")},
		},
	}

	result := detect(t, []model.Transaction{zero, good1, noCcy, good2}, testConfig())

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "n1", result.Skipped[0].Transaction.ID)
	assert.Error(t, result.Skipped[0].Err)
	assert.Equal(t, "z1", result.Skipped[1].Transaction.ID)

	require.Len(t, result.Merges, 1, "the well-formed pair still merges")
	assert.Len(t, result.Transactions, 3, "merged pair plus two skipped pass-throughs")
}

func TestDetect_DuplicateIDFatal(t *testing.T) {
	t1 := txn("t1", date(2024, 1, 5), "Assets:Bank:Checking", "-100", "USD", "a")
	t2 := txn("t1", date(2024, 1, 6), "Assets:Bank:Savings", "100", "USD", "b")

	_, err := Detect([]model.Transaction{t1, t2}, testConfig(), zerolog.Nop())
	var dup *DuplicateIDError
	require.ErrorAs(t, err, &dup)
}

func TestDetect_WindowExcludesDistantDates(t *testing.T) {
	t1 := txn("t1", date(2024, 1, 5), "Assets:Bank:Checking", "-100", "USD", "transfer")
	t2 := txn("t2", date(2024, 1, 12), "Assets:Bank:Savings", "100", "USD", "transfer")

	result := detect(t, []model.Transaction{t1, t2}, testConfig())
	assert.Empty(t, result.Merges)
	assert.Len(t, result.Transactions, 2)
}

func TestDetect_SameAccountNeverPairs(t *testing.T) {
	t1 := txn("t1", date(2024, 1, 5), "Assets:Bank:Checking", "-100", "USD", "out")
	t2 := txn("t2", date(2024, 1, 5), "Assets:Bank:Checking", "100", "USD", "in")

	result := detect(t, []model.Transaction{t1, t2}, testConfig())
	assert.Empty(t, result.Merges)
}

func TestDetect_NonOwnAccountsPassThrough(t *testing.T) {
	expense := model.Transaction{
		ID:   "e1",
		Date: date(2024, 1, 5),
		Postings: []model.Posting{
			{Account: "Expenses:Groceries", Amount: dec("-100"), Currency: "USD"},
		},
	}
	deposit := txn("t1", date(2024, 1, 5), "Assets:Bank:Checking", "100", "USD", "refund")

	result := detect(t, []model.Transaction{expense, deposit}, testConfig())
	assert.Empty(t, result.Merges)
	assert.Len(t, result.Transactions, 2)
}

func TestDetect_CrossCurrencyTransfer(t *testing.T) {
	cfg := testConfig()
	cfg.ReferenceRates = map[string]float64{"USD/EUR": 0.92}

	t1 := txn("t1", date(2024, 1, 5), "Assets:Bank:Checking", "-100", "USD", "convert to EUR")
	t2 := txn("t2", date(2024, 1, 5), "Assets:Wise:USD", "92", "EUR", "convert to EUR")

	result := detect(t, []model.Transaction{t1, t2}, cfg)

	require.Len(t, result.Merges, 1)
	merged := result.Merges[0].Result
	assert.Equal(t, "0.920000", merged.Meta[model.MetaImpliedRate],
		"the conversion assumption is recorded for audit")
	require.Len(t, merged.Postings, 2)
}

func TestDetect_AmountOutsideToleranceNoMatch(t *testing.T) {
	t1 := txn("t1", date(2024, 1, 5), "Assets:Bank:Checking", "-100", "USD", "transfer")
	t2 := txn("t2", date(2024, 1, 5), "Assets:Bank:Savings", "110", "USD", "transfer")

	result := detect(t, []model.Transaction{t1, t2}, testConfig())
	assert.Empty(t, result.Merges)
}

func TestDetect_ToleranceCoversRounding(t *testing.T) {
	t1 := txn("t1", date(2024, 1, 5), "Assets:Bank:Checking", "-100.00", "USD", "transfer")
	t2 := txn("t2", date(2024, 1, 5), "Assets:Bank:Savings", "100.01", "USD", "transfer")

	result := detect(t, []model.Transaction{t1, t2}, testConfig())
	require.Len(t, result.Merges, 1)
}

func TestDetect_IdempotentAcrossInputOrder(t *testing.T) {
	txns := []model.Transaction{
		txn("t1", date(2024, 1, 5), "Assets:Bank:Checking", "-100", "USD", "Transfer to savings"),
		txn("t2", date(2024, 1, 6), "Assets:Bank:Savings", "100", "USD", "Transfer to savings"),
		txn("t3", date(2024, 1, 8), "Assets:Bank:Checking", "-40", "USD", "wise topup"),
		txn("t4", date(2024, 1, 8), "Assets:Wise:USD", "40", "USD", "wise topup"),
		txn("t5", date(2024, 1, 9), "Assets:Bank:Checking", "-40", "USD", "another"),
		txn("t6", date(2024, 1, 20), "Assets:Bank:Savings", "7", "USD", "interest"),
	}

	want := detect(t, txns, testConfig())

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		shuffled := make([]model.Transaction, len(txns))
		copy(shuffled, txns)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := detect(t, shuffled, testConfig())
		assert.Equal(t, want.Transactions, got.Transactions)
		assert.Equal(t, want.Merges, got.Merges)
		assert.Equal(t, want.Ambiguous, got.Ambiguous)
	}
}

func TestDetect_OutputPartitionsInput(t *testing.T) {
	txns := []model.Transaction{
		txn("t1", date(2024, 1, 5), "Assets:Bank:Checking", "-100", "USD", "Transfer to savings"),
		txn("t2", date(2024, 1, 6), "Assets:Bank:Savings", "100", "USD", "Transfer to savings"),
		txn("t3", date(2024, 1, 9), "Assets:Bank:Checking", "-40", "USD", "groceries"),
		txn("t4", date(2024, 1, 15), "Assets:Wise:USD", "250", "USD", "salary"),
	}

	result := detect(t, txns, testConfig())

	seen := make(map[string]int)
	for _, out := range result.Transactions {
		if origins := out.Meta[model.MetaOriginIDs]; origins != "" {
			for _, origin := range strings.Split(origins, ",") {
				seen[origin]++
			}
			continue
		}
		seen[out.ID]++
	}

	for _, in := range txns {
		assert.Equal(t, 1, seen[in.ID], "input %s must appear exactly once", in.ID)
	}
}
