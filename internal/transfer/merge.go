package transfer

import (
	"strconv"

	"github.com/beanflow-dev/beanflow/internal/id"
	"github.com/beanflow-dev/beanflow/internal/model"
)

// Merger materializes accepted candidates as balanced transactions.
type Merger struct {
	cfg Config
}

// NewMerger creates a Merger for one run's configuration.
func NewMerger(cfg Config) *Merger {
	return &Merger{cfg: cfg}
}

// Merge combines a matched pair into one transaction: the earlier date, a
// narration chosen by importer priority, both original postings untouched,
// and provenance metadata (origin-ids, match-score, implied-rate). No fee or
// conversion leg is ever fabricated.
func (m *Merger) Merge(a, b model.Transaction, c Candidate) model.Transaction {
	if b.ID < a.ID {
		a, b = b, a
	}

	merged := model.Transaction{
		ID:        id.Merge(a.ID, b.ID),
		Date:      a.Date,
		Narration: m.pickNarration(a, b),
		Postings:  make([]model.Posting, 0, len(a.Postings)+len(b.Postings)),
		Meta: map[string]string{
			model.MetaOriginIDs:  id.Origins(a.ID, b.ID),
			model.MetaMatchScore: strconv.FormatFloat(c.Score, 'f', 4, 64),
		},
	}
	if b.Date.Before(a.Date) {
		merged.Date = b.Date
	}
	merged.Postings = append(merged.Postings, a.Postings...)
	merged.Postings = append(merged.Postings, b.Postings...)

	if c.Cross {
		merged.Meta[model.MetaImpliedRate] = strconv.FormatFloat(c.ImpliedRate, 'f', 6, 64)
	}
	return merged
}

// pickNarration prefers the narration of the importer listed first in the
// configured priority; otherwise both narrations are joined.
func (m *Merger) pickNarration(a, b model.Transaction) string {
	if a.Narration == b.Narration {
		return a.Narration
	}
	if a.Narration == "" {
		return b.Narration
	}
	if b.Narration == "" {
		return a.Narration
	}

	pa, pb := m.priority(a.SourceImporter()), m.priority(b.SourceImporter())
	switch {
	case pa < pb:
		return a.Narration
	case pb < pa:
		return b.Narration
	default:
		return a.Narration + " / " + b.Narration
	}
}

// priority returns the importer's position in the configured priority list,
// or one past the end when unlisted.
func (m *Merger) priority(importer string) int {
	for i, name := range m.cfg.NarrationPriority {
		if name == importer {
			return i
		}
	}
	return len(m.cfg.NarrationPriority)
}
