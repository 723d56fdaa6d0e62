package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/contactbook"
	"github.com/jpalmerr/contactbook/config"
	"github.com/jpalmerr/contactbook/internal/logging"
)

// loadConfig reads the --config file, or returns defaults when none is given.
// The --file and --log-level flags are applied on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		cfg.Storage.Path = file
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		if _, ok := logging.ParseLevel(level); !ok {
			return nil, fmt.Errorf("invalid --log-level %q", level)
		}
		cfg.Log.Level = level
	}

	return cfg, nil
}

// openBook opens the contact book described by the command's flags.
// Callers must call the returned release func, which closes the book and
// then the log file.
func openBook(cmd *cobra.Command) (*contactbook.Book, *slog.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, logCloser := logging.New(cfg.Log)
	opts := append(config.BuildOptions(cfg), contactbook.WithLogger(logger))

	book, err := contactbook.Open(cmd.Context(), opts...)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, nil, fmt.Errorf("failed to open contact book: %w", err)
	}
	release := func() {
		if err := book.Close(); err != nil {
			logger.Warn("failed to close contact book", "error", err)
		}
		_ = logCloser.Close()
	}
	return book, logger, release, nil
}
