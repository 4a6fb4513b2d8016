package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/beanflow-dev/beanflow/internal/accounts"
	"github.com/beanflow-dev/beanflow/internal/config"
	"github.com/beanflow-dev/beanflow/internal/gitops"
	"github.com/beanflow-dev/beanflow/internal/importer"
	"github.com/beanflow-dev/beanflow/internal/ledger"
	"github.com/beanflow-dev/beanflow/internal/logging"
	"github.com/beanflow-dev/beanflow/internal/model"
	"github.com/beanflow-dev/beanflow/internal/runlog"
	"github.com/beanflow-dev/beanflow/internal/transfer"
)

func newImportCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [directory]",
		Short: "Import statements from import/, detect transfers, write the ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runImport(absDir, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "detect and report without writing anything")

	return cmd
}

func runImport(root string, dryRun bool) error {
	log := logging.New()

	cfg, err := config.Load(filepath.Join(root, "beanflow.yaml"))
	if err != nil {
		return err
	}

	acctSvc, err := accounts.Load(root)
	if err != nil {
		return err
	}

	registry := importer.DefaultRegistry(cfg.Ledger.FeesAccount)

	// Every configuration problem surfaces here, before any transaction
	// is touched.
	if err := cfg.Validate(acctSvc.Validate(registry.Has)...); err != nil {
		return err
	}

	files, err := importer.Scan(root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	txns, imported, err := extractFiles(files, acctSvc, registry, log)
	if err != nil {
		return err
	}

	detCfg, err := detectionConfig(cfg, acctSvc.OwnLedgerNames())
	if err != nil {
		return err
	}

	result, err := transfer.Detect(txns, detCfg, log)
	if err != nil {
		return err
	}

	if verrs := ledger.Validate(txns, result.Transactions, detCfg.AmountTolerance, detCfg.RelativeTolerance); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return fmt.Errorf("output validation failed: %s", strings.Join(msgs, "; "))
	}

	printSummary(result)

	if dryRun {
		fmt.Println("Dry run: nothing written.")
		return nil
	}

	if err := ledger.NewService(root).WriteRun(result.Transactions); err != nil {
		return err
	}

	entry := runlog.NewEntry()
	entry.Files = len(imported)
	entry.Imported = len(txns)
	entry.Merged = len(result.Merges)
	entry.Ambiguous = len(result.Ambiguous)
	entry.Skipped = len(result.Skipped)
	if err := runlog.Append(root, []runlog.Entry{entry}); err != nil {
		return err
	}

	for _, name := range imported {
		if err := importer.MarkProcessed(root, name); err != nil {
			return err
		}
	}

	if cfg.Git.AutoCommit && gitops.IsRepo(root) {
		msg := fmt.Sprintf("import: %d transactions, %d transfers merged", len(txns), len(result.Merges))
		hash, err := gitops.CommitAll(root, msg, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if err != nil {
			return fmt.Errorf("committing run: %w", err)
		}
		log.Info().Str("commit", hash).Msg("run committed")
	}

	return nil
}

// extractFiles runs each statement file through its account's importer and
// returns the combined transactions plus the names of the files consumed.
// Files that match no account are left in place for the user to sort out.
func extractFiles(files []importer.FileInfo, acctSvc *accounts.Service, registry *importer.Registry, log zerolog.Logger) ([]model.Transaction, []string, error) {
	var (
		txns     []model.Transaction
		imported []string
	)
	for _, file := range files {
		acct, ok := accountForFile(file.Name, acctSvc)
		if !ok {
			log.Warn().Str("file", file.Name).Msg("no account map entry matches file, leaving in place")
			continue
		}

		imp := registry.Get(acct.Importer)
		if imp == nil {
			log.Warn().Str("file", file.Name).Str("importer", acct.Importer).Msg("account has no importer, leaving in place")
			continue
		}

		f, err := os.Open(file.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", file.Name, err)
		}
		extracted, err := imp.Extract(f, acct)
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("extracting %s: %w", file.Name, err)
		}

		log.Info().Str("file", file.Name).Str("account", acct.LedgerName).Int("transactions", len(extracted)).Msg("statement imported")
		txns = append(txns, extracted...)
		imported = append(imported, file.Name)
	}
	return txns, imported, nil
}

// accountForFile resolves a statement file to its account-map row by the
// longest statement_id prefix of the file name, e.g. "wise-personal-USD"
// claims "wise-personal-USD-2024-01.json".
func accountForFile(fileName string, acctSvc *accounts.Service) (model.Account, bool) {
	var (
		best    model.Account
		bestLen = -1
	)
	for _, acct := range acctSvc.All() {
		if strings.HasPrefix(fileName, acct.StatementID) && len(acct.StatementID) > bestLen {
			best = acct
			bestLen = len(acct.StatementID)
		}
	}
	return best, bestLen >= 0
}

// detectionConfig maps the yaml detection block onto the detector's config.
func detectionConfig(cfg *config.Config, own []string) (transfer.Config, error) {
	d := cfg.Detection

	tol := decimal.New(1, -2)
	if d.AmountTolerance != "" {
		var err error
		tol, err = decimal.NewFromString(d.AmountTolerance)
		if err != nil {
			return transfer.Config{}, fmt.Errorf("parsing amount tolerance: %w", err)
		}
	}

	return transfer.Config{
		OwnAccounts:       own,
		WindowDays:        d.WindowDays,
		Workers:           d.Workers,
		Weights:           transfer.Weights{Date: d.Weights.Date, Amount: d.Weights.Amount, Narration: d.Weights.Narration},
		AmountTolerance:   tol,
		RelativeTolerance: d.RelativeTolerance,
		AmbiguityEpsilon:  d.AmbiguityEpsilon,
		CrossCurrencyCap:  d.CrossCurrencyCap,
		ReferenceRates:    d.ReferenceRates,
		NarrationPriority: d.NarrationPriority,
	}, nil
}

// printSummary renders merged pairs and ambiguous ties for the user.
func printSummary(result *transfer.Result) {
	if len(result.Merges) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Date", "Accounts", "Score", "Origin IDs"})
		for _, m := range result.Merges {
			accts := make([]string, 0, len(m.Result.Postings))
			for _, p := range m.Result.Postings {
				accts = append(accts, p.Account)
			}
			table.Append([]string{
				m.Result.Date.Format("2006-01-02"),
				strings.Join(accts, " <-> "),
				fmt.Sprintf("%.4f", m.Candidate.Score),
				m.Result.Meta[model.MetaOriginIDs],
			})
		}
		fmt.Printf("Merged %d transfer pair(s):\n", len(result.Merges))
		table.Render()
	} else {
		fmt.Println("No transfers detected.")
	}

	for _, amb := range result.Ambiguous {
		color.Yellow("ambiguous: %s has %d indistinguishable candidates:", amb.TxnID, len(amb.Ties))
		for _, tie := range amb.Ties {
			color.Yellow("  %s (score %.4f)", tie.Other, tie.Score)
		}
	}

	for _, sk := range result.Skipped {
		color.Red("skipped: %s", sk.Err)
	}
}
