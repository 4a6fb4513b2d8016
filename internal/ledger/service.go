package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/beanflow-dev/beanflow/internal/model"
)

// Service writes detection-run output under <root>/ledger/, one
// transactions.csv per month, the shape the external serializer consumes.
type Service struct {
	root string
}

// NewService creates a ledger Service rooted at a project directory.
func NewService(root string) *Service {
	return &Service{root: root}
}

// WriteRun persists a run's full output set, grouped into monthly files.
// Each touched month file is rewritten whole; the run owns its months.
func (s *Service) WriteRun(txns []model.Transaction) error {
	type month struct{ year, mon int }
	groups := make(map[month][]model.Transaction)
	for _, t := range txns {
		m := month{t.Date.Year(), int(t.Date.Month())}
		groups[m] = append(groups[m], t)
	}

	months := make([]month, 0, len(groups))
	for m := range groups {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].mon < months[j].mon
	})

	for _, m := range months {
		path := s.monthPath(m.year, m.mon)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating ledger dir: %w", err)
		}

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := WriteTransactions(f, groups[m]); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", path, err)
		}
	}
	return nil
}

// ReadMonth reads all transactions for a given year/month. A missing file is
// an empty month.
func (s *Service) ReadMonth(year, month int) ([]model.Transaction, error) {
	path := s.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	txns, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return txns, nil
}

func (s *Service) monthPath(year, month int) string {
	return filepath.Join(s.root, "ledger", fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "transactions.csv")
}
