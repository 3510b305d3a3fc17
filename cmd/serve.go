package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rodrigosramos/fundeb-mvp/internal/server"
)

var (
	flagServeAddr    string
	flagServeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().DurationVar(&flagServeTimeout, "timeout", 90*time.Second, "Per-request timeout")
	addRealNationalFlag(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, cat, eng, err := loadAll()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	addr := cfg.Server.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}

	client := newAssistant(cfg, eng)
	if client == nil {
		log.Warn().Msg("ANTHROPIC_API_KEY not set; /api/chat will return 503")
	}

	srv, err := server.New(server.Config{
		Addr:           addr,
		Log:            log,
		Catalog:        cat,
		Engine:         eng,
		Assistant:      client,
		RealNational:   flagRealNational,
		RequestTimeout: flagServeTimeout,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
