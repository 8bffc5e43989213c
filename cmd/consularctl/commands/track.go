package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func trackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track APPLICATION",
		Short: "Show the status history of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := app.services.Track(cmd.Context(), args[0])
			if !res.OK() {
				return fmt.Errorf("%s: %s", res.Err.Code, res.Err.Message)
			}
			if len(res.Data) == 0 {
				fmt.Fprintln(app.out, "No status updates yet")
				return nil
			}
			for _, ev := range res.Data {
				line := fmt.Sprintf("%s  %s", ev.Timestamp.Local().Format(time.DateTime), ev.Status)
				if ev.Note != "" {
					line += "  " + ev.Note
				}
				fmt.Fprintln(app.out, line)
			}
			return nil
		},
	}
}
