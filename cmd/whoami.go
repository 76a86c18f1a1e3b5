package cmd

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show how the gateway sees your identity",
	Long: `Reports the role set and credential kind the server resolves for the identity
material you forward (delegated token, session token, asserted roles).
Useful for debugging why a lookup is denied.`,
	Example: `  id360 whoami --session-token <token>
  id360 whoami --roles Admin,Directory.Reader`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Asking the server who we are...")
		result, correlation, err := cli.Whoami(cmd.Context())
		if err != nil {
			return logError(err, correlation, "whoami failed")
		}

		fmt.Println(bold("\n── Resolved Identity ──"))
		identity := result.Identity
		if identity == "" {
			identity = faint("(no display identity)")
		}
		fmt.Printf("  %s:    %s\n", faint("Identity"), bold(identity))
		fmt.Printf("  %s:       %s\n", faint("Roles"), strings.Join(result.Roles, ", "))

		fmt.Println(bold("\n── Resolved Credential ──"))
		fmt.Printf("  %s:        %s\n", faint("Kind"), bold(string(result.CredentialKind)))
		if result.CredentialSource != "" {
			fmt.Printf("  %s:      %s\n", faint("Source"), result.CredentialSource)
		}
		if result.CredentialReason != "" {
			fmt.Printf("  %s:      %s\n", faint("Reason"), result.CredentialReason)
		}
		if result.CredentialFingerprint != "" {
			fmt.Printf("  %s: %s\n", faint("Fingerprint"), truncate(result.CredentialFingerprint, 16))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
