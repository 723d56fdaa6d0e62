// Package main is the entry point for the contactbook CLI.
//
// Contactbook can be used as a library (SDK) or as a standalone binary.
// Run without a subcommand it starts the interactive menu; the subcommands
// perform single operations, serve the HTTP API or validate a config file.
//
// Usage:
//
//	contactbook                         # Interactive menu
//	contactbook add Alice --phone 555   # Add one contact
//	contactbook list --json             # Print all contacts
//	contactbook serve -c config.yaml    # Start the API and dashboard
//	contactbook validate -c config.yaml # Validate configuration
//	contactbook version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It runs the interactive menu.
var rootCmd = &cobra.Command{
	Use:   "contactbook",
	Short: "A small persistent contact book",
	Long: `Contactbook keeps named contacts (phone and email) in a JSON file.

Run without arguments for the interactive menu:

  --- Contact Book Menu ---
  1. Add new contact
  2. View all contacts
  3. Search for a contact by name
  4. Delete a contact
  5. Exit

Contacts are stored in contacts.txt in the working directory unless
--file or a config file says otherwise. Every change is saved at once.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runShell,
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this contactbook binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("contactbook %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "path to config file (defaults apply when omitted)")
	flags.StringP("file", "f", "", "contacts file, overrides storage.path")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(versionCmd)
}
