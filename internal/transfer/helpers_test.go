package transfer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/beanflow-dev/beanflow/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// txn builds a single-posting transaction, the shape importers emit.
func txn(id string, dt time.Time, account, amount, currency, narration string) model.Transaction {
	return model.Transaction{
		ID:        id,
		Date:      dt,
		Narration: narration,
		Postings: []model.Posting{
			{Account: account, Amount: dec(amount), Currency: currency},
		},
		Meta: map[string]string{model.MetaSourceImporter: "statement"},
	}
}

var testAccounts = []string{
	"Assets:Bank:Checking",
	"Assets:Bank:Savings",
	"Assets:Wise:USD",
}

func testConfig() Config {
	return DefaultConfig(testAccounts...)
}
