package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Rainier-MSFT/ID360Model/internal/authz"
	"github.com/Rainier-MSFT/ID360Model/internal/config"
)

var configValidateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate a server configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}

		// also compile the policy conditions so expression errors surface here
		if _, err := authz.NewGate(cfg.Policy.Operations); err != nil {
			return err
		}

		log.Info().
			Int("operations", len(cfg.Policy.Operations)).
			Bool("exchange_configured", cfg.Exchange.Complete()).
			Bool("cache_enabled", cfg.Cache.Enabled).
			Msg("Config is valid")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
