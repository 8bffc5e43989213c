package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"consular/internal/credentials"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the bearer tokens sent to the portal service",
	}
	cmd.AddCommand(tokenSetCmd(), tokenClearCmd(), tokenShowCmd())
	return cmd
}

func parseKind(admin bool) credentials.Kind {
	if admin {
		return credentials.Admin
	}
	return credentials.Citizen
}

func tokenSetCmd() *cobra.Command {
	var admin bool
	cmd := &cobra.Command{
		Use:   "set TOKEN",
		Short: "Store a citizen (or --admin) token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(args[0])
			claims := credentials.Inspect(token)
			if claims.Expired(time.Now()) {
				return fmt.Errorf("token expired at %s", claims.ExpiresAt.UTC().Format(time.RFC3339))
			}
			if err := app.creds.SetToken(cmd.Context(), parseKind(admin), token); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Stored %s\n", parseKind(admin))
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "store the admin token")
	return cmd
}

func tokenClearCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := []credentials.Kind{credentials.Citizen}
			if all {
				kinds = append(kinds, credentials.Admin)
			}
			for _, k := range kinds {
				if err := app.creds.Clear(cmd.Context(), k); err != nil {
					return err
				}
			}
			fmt.Fprintln(app.out, "Cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also clear the admin token")
	return cmd
}

func tokenShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Describe the stored tokens without printing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range []credentials.Kind{credentials.Citizen, credentials.Admin} {
				token, err := app.creds.Token(cmd.Context(), k)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.out, "%s: %s\n", k, describeToken(token, time.Now()))
			}
			return nil
		},
	}
}

func describeToken(token string, now time.Time) string {
	if token == "" {
		return "not set"
	}
	c := credentials.Inspect(token)
	if !c.IsJWT {
		return "opaque token"
	}
	desc := "JWT"
	if c.Subject != "" {
		desc += " for " + c.Subject
	}
	switch {
	case c.ExpiresAt.IsZero():
	case c.Expired(now):
		desc += ", expired " + c.ExpiresAt.UTC().Format(time.RFC3339)
	default:
		desc += ", expires " + c.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return desc
}
