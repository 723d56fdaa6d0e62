package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/contactbook"
	"github.com/jpalmerr/contactbook/config"
)

// validateCmd validates a config file without opening the contact book.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a contactbook configuration file without opening storage.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  contactbook validate -c config.yaml
  contactbook validate --config /etc/contactbook/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return errors.New("a config file is required (--config)")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Title:   %s\n", cfg.Title)
	fmt.Printf("  Storage: %s (%s)\n", cfg.Storage.Driver, storageLocation(cfg.Storage))
	fmt.Printf("  Log:     level=%s format=%s\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Printf("  Port:    %d\n", cfg.Server.Port)

	return nil
}

// storageLocation describes where contacts live without printing the mongo
// URI, which may carry credentials.
func storageLocation(s config.StorageConfig) string {
	switch s.Driver {
	case contactbook.DriverMongo:
		return s.Mongo.Database + "." + s.Mongo.Collection
	case contactbook.DriverJSON:
		if s.Path == "" {
			return "contacts.txt"
		}
	}
	return s.Path
}
