package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var auditDecisionsLimit uint

var auditDecisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "List recent authorization decisions",
	Long: `Retrieves the most recent authorization decisions recorded by the server:
who asked for what, which roles they held, which credential kind was resolved
and whether the request was allowed.

This command requires a role satisfying the server's audit policy.`,
	Example: `  id360 audit decisions --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Fetching recent decisions...")
		entries, correlation, err := cli.RecentDecisions(cmd.Context(), auditDecisionsLimit)
		if err != nil {
			return logError(err, correlation, "fetching decisions failed")
		}

		if len(entries) == 0 {
			log.Info().Msg("No decisions recorded yet")
			return nil
		}
		log.Debug().Msgf("Retrieved %d decision(s)", len(entries))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Time", "Action", "Identity", "Roles", "Credential", "Target", "Allowed",
		})

		for _, entry := range entries {
			identity := entry.Identity
			if identity == "" {
				identity = "(anonymous)"
			}

			allowed := color.RedString("denied")
			if entry.Allowed {
				allowed = color.GreenString("allowed")
			}

			t.AppendRow(table.Row{
				entry.Time.Format(time.RFC3339),
				entry.Action,
				bold(truncate(identity, 40)),
				truncate(strings.Join(entry.Roles, ","), 48),
				entry.CredentialKind,
				entry.TargetRef,
				allowed,
			})
		}

		s := table.StyleRounded
		s.Format.Header = text.FormatDefault
		t.SetStyle(s)
		t.Render()
		return nil
	},
}

func init() {
	auditDecisionsCmd.Flags().UintVar(&auditDecisionsLimit, "limit", 50, "maximum number of decisions to fetch")
	auditCmd.AddCommand(auditDecisionsCmd)
}
