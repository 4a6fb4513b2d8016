package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/beanflow-dev/beanflow/internal/accounts"
)

func newAccountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts [directory]",
		Short: "Show the statement-to-ledger account map",
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

			svc, err := accounts.Load(absDir)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Statement ID", "Ledger Account", "Currency", "Own", "Importer"})
			for _, a := range svc.All() {
				table.Append([]string{
					a.StatementID,
					a.LedgerName,
					a.Currency,
					strconv.FormatBool(a.Own),
					a.Importer,
				})
			}
			table.Render()
			return nil
		},
	}
}
