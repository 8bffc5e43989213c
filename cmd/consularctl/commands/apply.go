package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"consular/internal/catalog"
	"consular/internal/tui"
	"consular/internal/wizard"
	"consular/pkg/validator"
)

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Fill in and submit a passport application interactively",
		Long: "Walks the five passport steps in the terminal. Type " + tui.BackCommand +
			" in any text prompt to return to the previous step.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := wizard.NewRules(validator.New(), wizard.WithMaxDocumentBytes(app.cfg.Upload.MaxBytes))
			session := wizard.NewSession(rules, catalog.Default())

			receipt, err := tui.NewRunner(tui.NewSurveyDriver(), session, app.services, app.log).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Reference number: %s\nStatus: %s\n", receipt.ReferenceNumber, receipt.Status)
			if !receipt.AmountDue.IsZero() {
				fmt.Fprintf(app.out, "Amount due: %s %s\n", receipt.AmountDue.StringFixed(2), receipt.Currency)
			}
			return nil
		},
	}
}
