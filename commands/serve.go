package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/penwyp/go-herdbook/internal/data/server"
	"github.com/penwyp/go-herdbook/internal/data/store"
	"github.com/penwyp/go-herdbook/internal/util"
	"github.com/spf13/cobra"
)

var (
	serveListen string
	serveToken  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the SQLite database over HTTP",
	Long: `Runs the herdbook HTTP API over the local SQLite database, so that other
machines can read it with --url.

Endpoints:
  GET /health
  GET /v1/activities
  GET /v1/transactions
  GET /v1/transactions/aggregate
  GET /v1/subjects

List endpoints take offset, limit, subject_id, category, start and end query
parameters. When a token is configured, /v1 requires "Authorization: Bearer <token>".`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"Listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().StringVar(&serveToken, "token", "",
		"Bearer token required on /v1 (overrides server.api_token)")
}

func runServe(cmd *cobra.Command, args []string) error {
	initLogging()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	listen := cfg.Server.Listen
	if serveListen != "" {
		listen = serveListen
	}
	token := cfg.Server.APIToken
	if serveToken != "" {
		token = serveToken
	}

	st, err := store.Open(expandPath(cfg.Source.DBPath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	if token == "" {
		util.LogWarn("Serving without authentication")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", st.Path(), listen)
	return server.New(st, token).ListenAndServe(ctx, listen)
}
