package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the HTTP API and dashboard.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and dashboard",
	Long: `Start the contactbook HTTP server.

The server will:
  - Load the contact book described by the config file (or defaults)
  - Serve the REST API under /api and a live dashboard at /
  - Reload the contacts file when another program edits it (server.watch)

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  contactbook serve
  contactbook serve -c /etc/contactbook/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	book, logger, release, err := openBook(cmd)
	if err != nil {
		return err
	}
	defer release()

	logger.Info("starting server",
		"port", book.Port(),
		"contacts", book.Len(),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d contacts on http://localhost:%d\n", book.Len(), book.Port())

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// serve - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- book.Serve(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
