package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/viper"

	"github.com/Rainier-MSFT/ID360Model/pkg/client"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

func getClient() (*client.Client, error) {
	// we need the user to provide some server address first
	server := viper.GetString(ServerAddrKey)
	if server == "" {
		return nil, fmt.Errorf("server address not configured, provide via --server or env")
	}

	var opts []client.Option
	if token := viper.GetString(TokenKey); token != "" {
		opts = append(opts, client.WithDelegatedToken(token))
	}
	if session := viper.GetString(SessionTokenKey); session != "" {
		opts = append(opts, client.WithSessionToken(session))
	}
	if roles := viper.GetStringSlice(RolesKey); len(roles) > 0 {
		opts = append(opts, client.WithAssertedRoles(roles))
	}

	return client.New(server, opts...), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
