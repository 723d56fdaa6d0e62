package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/contactbook"
)

// shellCmd runs the interactive menu, same as running with no subcommand.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run the interactive menu",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a contact",
	Long: `Add a contact and save the contact book.

Names are unique and compared exactly, so "alice" and "Alice" are
different contacts. Phone and email are optional.

Example:
  contactbook add "Alice Smith" --phone 555-0100 --email alice@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all contacts in insertion order",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var searchCmd = &cobra.Command{
	Use:   "search NAME",
	Short: "Find a contact by name, ignoring case",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete the contact with exactly this name",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	addCmd.Flags().String("phone", "", "phone number")
	addCmd.Flags().String("email", "", "email address")
	listCmd.Flags().Bool("json", false, "print contacts as a JSON array")

	rootCmd.AddCommand(shellCmd, addCmd, listCmd, searchCmd, deleteCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	book, _, release, err := openBook(cmd)
	if err != nil {
		return err
	}
	defer release()

	return book.RunShell(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}

func runAdd(cmd *cobra.Command, args []string) error {
	book, _, release, err := openBook(cmd)
	if err != nil {
		return err
	}
	defer release()

	phone, _ := cmd.Flags().GetString("phone")
	email, _ := cmd.Flags().GetString("email")

	err = book.Add(cmd.Context(), contactbook.Record{Name: args[0], Phone: phone, Email: email})
	switch {
	case err == nil:
		fmt.Fprintln(cmd.OutOrStdout(), "Contact added successfully.")
		return nil
	case errors.Is(err, contactbook.ErrEmptyName):
		return errors.New("name cannot be empty")
	case errors.Is(err, contactbook.ErrNameConflict):
		return fmt.Errorf("a contact named %q already exists", args[0])
	default:
		return fmt.Errorf("error adding contact: %w", err)
	}
}

func runList(cmd *cobra.Command, args []string) error {
	book, _, release, err := openBook(cmd)
	if err != nil {
		return err
	}
	defer release()

	out := cmd.OutOrStdout()
	records := book.List()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode contacts: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No contacts yet.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(out, "%s: phone=%s, email=%s\n", r.Name, r.Phone, r.Email)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	book, _, release, err := openBook(cmd)
	if err != nil {
		return err
	}
	defer release()

	r, ok := book.Search(args[0])
	if !ok {
		return fmt.Errorf("no contact found with name %q", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Found: %s - phone=%s, email=%s\n", r.Name, r.Phone, r.Email)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	book, _, release, err := openBook(cmd)
	if err != nil {
		return err
	}
	defer release()

	err = book.Delete(cmd.Context(), args[0])
	switch {
	case err == nil:
		fmt.Fprintln(cmd.OutOrStdout(), "Contact deleted.")
		return nil
	case errors.Is(err, contactbook.ErrNotFound):
		return fmt.Errorf("no contact found with name %q", args[0])
	default:
		return fmt.Errorf("error deleting contact: %w", err)
	}
}
