package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"consular/internal/apiclient"
	"consular/internal/catalog"
	"consular/internal/domain"
)

func feeCmd() *cobra.Command {
	var (
		passportType string
		speed        string
	)
	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Show the passport fee for a type and processing speed",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := catalog.Default().Quote(domain.PassportType(passportType), domain.ProcessingSpeed(speed))
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "%s passport, %s processing: %s %s (about %d working days)\n",
				q.PassportType, q.Speed, q.Amount.StringFixed(2), q.Currency, q.ProcessingDays)
			return nil
		},
	}
	cmd.Flags().StringVar(&passportType, "type", string(domain.PassportTypeOrdinary), "passport type")
	cmd.Flags().StringVar(&speed, "speed", string(domain.ProcessingSpeedNormal), "processing speed")
	return cmd
}

func codesCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "List the portal error codes and their messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tSTATUS\tMESSAGE")
			for _, m := range apiclient.Catalogue(group) {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", m.Code, m.HTTPStatus, m.Message)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "only codes of this group, e.g. payment")
	return cmd
}
