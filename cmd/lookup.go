package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Rainier-MSFT/ID360Model/pkg/client"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <identity-ref>",
	Short: "Look up a directory profile through the gateway",
	Long: `Looks up a user profile in the downstream directory via a running ID360 server.
The server resolves a credential for the request and checks the caller's roles first.

Pass 'me' to look up your own profile; this only works when the forwarded
credential is a true delegated token.`,
	Example: `  id360 lookup jane@contoso.com --token <delegated token>
  id360 lookup me --token <delegated token>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}

		ref := args[0]
		log.Debug().Str("ref", ref).Msg("Looking up profile...")

		profile, correlation, err := cli.Lookup(cmd.Context(), ref)
		if err != nil {
			var apiErr client.APIError
			if errors.As(err, &apiErr) && len(apiErr.RequiredRoles) > 0 {
				log.Error().Strs("required_roles", apiErr.RequiredRoles).
					Msg("Denied: missing a required role")
			}
			return logError(err, correlation, "lookup failed")
		}

		fmt.Println(bold("\n── Directory Profile ──"))
		fmt.Printf("  %s:  %s\n", faint("ID"), profile.ID)
		fmt.Printf("  %s:  %s\n", faint("Name"), bold(profile.DisplayName))
		fmt.Printf("  %s:  %s\n", faint("UPN"), profile.UserPrincipalName)
		if profile.Mail != "" {
			fmt.Printf("  %s:  %s\n", faint("Mail"), profile.Mail)
		}
		if profile.JobTitle != "" {
			fmt.Printf("  %s:  %s\n", faint("Title"), profile.JobTitle)
		}
		return nil
	},
}

func logError(err error, correlation, msg string) error {
	if correlation != "" {
		log.Debug().Str("correlation_id", correlation).Msg("server correlation id")
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
