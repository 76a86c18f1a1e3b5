package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Rainier-MSFT/ID360Model/internal/api"
	"github.com/Rainier-MSFT/ID360Model/internal/audit"
	"github.com/Rainier-MSFT/ID360Model/internal/authz"
	"github.com/Rainier-MSFT/ID360Model/internal/config"
	"github.com/Rainier-MSFT/ID360Model/internal/directory"
	"github.com/Rainier-MSFT/ID360Model/internal/resolver"
	"github.com/Rainier-MSFT/ID360Model/internal/roles"
	"github.com/Rainier-MSFT/ID360Model/internal/service"
)

var serveCfgFile string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ID360 gateway server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		var cfg *config.Config
		if serveCfgFile != "" {
			loaded, err := config.Load(serveCfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = loaded
		} else {
			log.Info().Msg("No config file given, using defaults with environment overrides")
			cfg = config.Default()
			cfg.ApplyEnv()
		}

		log.Info().Msg("Initializing authorization policy...")
		gate, err := authz.NewGate(cfg.Policy.Operations)
		if err != nil {
			return fmt.Errorf("building authorization gate: %w", err)
		}

		auditor, err := audit.NewFromConfig(cfg.Audit)
		if err != nil {
			return fmt.Errorf("building auditor: %w", err)
		}
		defer func() {
			if err := auditor.Close(); err != nil {
				log.Error().Err(err).Msg("closing auditor")
			}
		}()

		res := resolver.New(cfg.Exchange, cfg.Identity, cfg.Cache)
		dir := directory.New(cfg.Directory.BaseURL, cfg.Directory.Timeout)
		gateway := service.NewGatewayService(roles.NewExtractor(), res, gate, dir, auditor)

		// setup server
		srv := api.NewServer(gateway)

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Routes(),
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")
	serveCmd.Flags().StringVarP(&serveCfgFile, "config", "c", "", "path to the server config file")
}
