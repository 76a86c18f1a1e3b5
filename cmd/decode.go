package cmd

import (
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Rainier-MSFT/ID360Model/internal/claims"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <token>",
	Short: "Decode the claims of a compact token",
	Long: `Decodes and displays the claim payload of a compact token.
No signature verification is performed; this is a diagnostic view only and
never an authentication proof. Two-segment (unsigned) tokens are accepted.`,
	Example: `  id360 decode <token>`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenInput := args[0]
		if tokenInput == "" {
			return fmt.Errorf("token cannot be empty")
		}

		mapping, err := claims.Decode(tokenInput)
		if err != nil {
			return fmt.Errorf("decoding token: %w", err)
		}

		log.Info().Msg("Token Claims:")
		log.Info().Msg(spew.Sdump(mapping))

		if issRaw, ok := mapping["iss"]; ok {
			log.Info().Msgf("Issuer (iss): %v", issRaw)
		}
		if audRaw, ok := mapping["aud"]; ok {
			log.Info().Msgf("Audience (aud): %v", audRaw)
		}
		if rolesRaw, ok := mapping["roles"]; ok {
			log.Info().Msgf("Roles: %v", rolesRaw)
		}

		// full JWTs also get a parsed expiry with time remaining
		parser := jwt.NewParser()
		if token, _, err := parser.ParseUnverified(tokenInput, jwt.MapClaims{}); err == nil {
			if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
				log.Info().Msgf("Expiration (exp): %v (in %v)", exp.Time, time.Until(exp.Time))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}
