package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Rainier-MSFT/ID360Model/internal/buildinfo"
	"github.com/Rainier-MSFT/ID360Model/internal/logging"
)

// global flags
var (
	userConfig string
)

const (
	ServerAddrKey = "addr"

	TokenKey        = "token"
	SessionTokenKey = "session_token"
	RolesKey        = "roles"
)

var rootCmd = &cobra.Command{
	Use:   "id360",
	Short: fmt.Sprintf("ID360 directory gateway (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `ID360 is a credential-resolving authorization gateway for a directory service.
	Per request it resolves one credential (delegated, exchanged or service identity),
	extracts the caller's effective roles and gates the directory lookup on them.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, configErr := initConfig()
		logging.Init(nil)
		if configErr != nil { // handle error after logging is initialized
			return configErr
		}
		if configPath != "" {
			log.Debug().Msgf("using config file: %s", configPath)
		}
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("execution failed")
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	rootCmd.PersistentFlags().StringVar(&userConfig, "user-config", "",
		"User configuration file for default values (default is $HOME/.id360.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(logging.LogLevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(logging.LogFormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(logging.LogNoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.PersistentFlags().String("server", "", "Address of the remote ID360 server")
	_ = viper.BindPFlag(ServerAddrKey, rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.PersistentFlags().String("token", "", "Pre-acquired delegated token to forward")
	_ = viper.BindPFlag(TokenKey, rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.PersistentFlags().String("session-token", "", "Session token to forward for on-behalf-of exchange")
	_ = viper.BindPFlag(SessionTokenKey, rootCmd.PersistentFlags().Lookup("session-token"))

	rootCmd.PersistentFlags().StringSlice("roles", nil, "Roles to assert via the role header")
	_ = viper.BindPFlag(RolesKey, rootCmd.PersistentFlags().Lookup("roles"))

	viper.SetEnvPrefix("ID360")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))

	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func initConfig() (string, error) {
	// reads in config file and ENV variables if set.
	if userConfig != "" {
		viper.SetConfigFile(userConfig)
	} else {
		// search order: current dir, $HOME, XDG config
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}

		config, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(config + "/id360")
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(".id360")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundError) {
			return "", err
		}
	} else {
		return viper.ConfigFileUsed(), nil
	}

	return "", nil
}
