package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jpalmerr/contactbook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := os.MkdirTemp("", "contactbook-demo")
	if err != nil {
		slog.Error("failed to create demo directory", "error", err)
		os.Exit(1)
	}
	file := filepath.Join(dir, "contacts.txt")

	// print every change, including edits made to the file by hand
	book, err := contactbook.Open(ctx,
		contactbook.WithFile(file),
		contactbook.WithTitle("Demo Contacts"),
		contactbook.WithPort(8080),
		contactbook.WithWatch(true),
		contactbook.WithChangeCallback(func(ev contactbook.Event) {
			fmt.Printf("  %s %s\n", ev.Op, ev.Record.Name)
		}),
	)
	if err != nil {
		slog.Error("failed to open contact book", "error", err)
		os.Exit(1)
	}
	defer book.Close()

	seed := []contactbook.Record{
		{Name: "Ada Lovelace", Phone: "555-0101", Email: "ada@example.com"},
		{Name: "Alan Turing", Phone: "555-0102", Email: "alan@example.com"},
		{Name: "Grace Hopper", Phone: "555-0103"},
	}
	for _, r := range seed {
		if err := book.Add(ctx, r); err != nil && !errors.Is(err, contactbook.ErrNameConflict) {
			slog.Error("failed to add demo contact", "name", r.Name, "error", err)
			os.Exit(1)
		}
	}

	fmt.Println()
	fmt.Println("  Contactbook Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println("  API:  curl http://localhost:8080/api/contacts")
	fmt.Printf("  File: %s (edits are picked up live)\n", file)
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	if err := book.Serve(ctx); err != nil {
		slog.Error("contactbook error", "error", err)
		os.Exit(1)
	}
}
