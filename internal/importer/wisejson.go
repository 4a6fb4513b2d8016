package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beanflow-dev/beanflow/internal/id"
	"github.com/beanflow-dev/beanflow/internal/model"
)

// WiseJSON parses balance statements exported by the Wise API in JSON form.
// Fee-bearing rows get a second posting to FeesAccount so the fee is not
// lost; exchange details are recorded as metadata only.
type WiseJSON struct {
	FeesAccount string
}

type wiseStatement struct {
	Transactions []wiseTransaction `json:"transactions"`
}

type wiseTransaction struct {
	Date            string        `json:"date"`
	ReferenceNumber string        `json:"referenceNumber"`
	Amount          wiseAmount    `json:"amount"`
	TotalFees       *wiseAmount   `json:"totalFees"`
	ExchangeDetails *wiseExchange `json:"exchangeDetails"`
	Details         wiseDetails   `json:"details"`
}

type wiseAmount struct {
	Value    json.Number `json:"value"`
	Currency string      `json:"currency"`
	Zero     bool        `json:"zero"`
}

type wiseExchange struct {
	ToAmount wiseAmount  `json:"toAmount"`
	Rate     json.Number `json:"rate"`
}

type wiseDetails struct {
	Type       string     `json:"type"`
	Category   string     `json:"category"`
	SenderName string     `json:"senderName"`
	Recipient  *wiseParty `json:"recipient"`
	Merchant   *wiseParty `json:"merchant"`
}

type wiseParty struct {
	Name string `json:"name"`
}

// Format returns the importer name.
func (p *WiseJSON) Format() string { return "wisejson" }

// Extract reads a Wise JSON balance statement for acct.
func (p *WiseJSON) Extract(r io.Reader, acct model.Account) ([]model.Transaction, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var stmt wiseStatement
	if err := dec.Decode(&stmt); err != nil {
		return nil, fmt.Errorf("decoding wise statement: %w", err)
	}

	var txns []model.Transaction
	for i, wt := range stmt.Transactions {
		txn, err := p.transaction(wt, acct)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (p *WiseJSON) transaction(wt wiseTransaction, acct model.Account) (model.Transaction, error) {
	dt, err := time.Parse(time.RFC3339, wt.Date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", wt.Date, err)
	}
	date := time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC)

	amount, err := decimal.NewFromString(wt.Amount.Value.String())
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", wt.Amount.Value, err)
	}

	meta := map[string]string{
		model.MetaSourceImporter: p.Format(),
		model.MetaTime:           dt.Format("15:04:05"),
		model.MetaSrcID:          wt.ReferenceNumber,
	}
	if wt.ExchangeDetails != nil {
		meta[model.MetaConverted] = fmt.Sprintf("%s %s (%s)",
			wt.ExchangeDetails.ToAmount.Value,
			wt.ExchangeDetails.ToAmount.Currency,
			wt.ExchangeDetails.Rate)
	}

	narration, err := p.narration(wt, meta)
	if err != nil {
		return model.Transaction{}, err
	}

	postings := []model.Posting{
		{Account: acct.LedgerName, Amount: amount, Currency: wt.Amount.Currency},
	}
	if wt.TotalFees != nil && !wt.TotalFees.Zero {
		fee, err := decimal.NewFromString(wt.TotalFees.Value.String())
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing fee %q: %w", wt.TotalFees.Value, err)
		}
		postings = append(postings, model.Posting{
			Account:  p.FeesAccount,
			Amount:   fee,
			Currency: wt.TotalFees.Currency,
		})
	}

	return model.Transaction{
		ID:        id.Transaction(p.Format(), date, wt.ReferenceNumber),
		Date:      date,
		Narration: narration,
		Postings:  postings,
		Meta:      meta,
	}, nil
}

// narration derives the counterparty from the typed details block, mirroring
// what the Wise statement exposes per transaction type.
func (p *WiseJSON) narration(wt wiseTransaction, meta map[string]string) (string, error) {
	switch wt.Details.Type {
	case "TRANSFER":
		if wt.Details.Recipient != nil {
			return wt.Details.Recipient.Name, nil
		}
		return "", nil
	case "CARD":
		if wt.Details.Category != "" {
			meta["src-category"] = wt.Details.Category
		}
		if wt.Details.Merchant != nil {
			return wt.Details.Merchant.Name, nil
		}
		return "", nil
	case "DEPOSIT":
		return wt.Details.SenderName, nil
	case "MONEY_ADDED":
		return "self", nil
	case "UNKNOWN":
		return "", nil
	default:
		return "", fmt.Errorf("unknown wise transaction type %q", wt.Details.Type)
	}
}
