package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeValidateCmd runs the validate command with the given config path
// and returns captured stdout and any error.
func executeValidateCmd(t *testing.T, configPath string) (string, error) {
	t.Helper()
	return executeCmd(t, "", "validate", "-c", configPath)
}

func TestRunValidate_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
title: Team Phonebook
storage:
  driver: sqlite
  path: /var/lib/contacts.db
log:
  level: info
  format: json
server:
  port: 9090
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	output, err := executeValidateCmd(t, configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Title:   Team Phonebook",
		"Storage: sqlite (/var/lib/contacts.db)",
		"Log:     level=info format=json",
		"Port:    9090",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_MongoHidesURI(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `
storage:
  driver: mongo
  mongo:
    uri: mongodb://user:secret@db:27017
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	output, err := executeValidateCmd(t, configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	if !strings.Contains(output, "Storage: mongo (contactbook.contacts)") {
		t.Errorf("output missing mongo location\nGot: %s", output)
	}
	if strings.Contains(output, "secret") {
		t.Errorf("output leaks the mongo URI\nGot: %s", output)
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
storage:
  driver: sqlite
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := executeValidateCmd(t, configPath)
	if err == nil {
		t.Fatal("validate command expected error for invalid config, got nil")
	}

	if !strings.Contains(err.Error(), "storage.path is required") {
		t.Errorf("error should mention 'storage.path is required', got: %v", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeValidateCmd(t, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %v", err)
	}
}

func TestRunValidate_NoConfigFlag(t *testing.T) {
	_, err := executeCmd(t, "", "validate")
	if err == nil {
		t.Fatal("validate command expected error without --config, got nil")
	}
	if !strings.Contains(err.Error(), "config file is required") {
		t.Errorf("error = %v", err)
	}
}

func TestVersion(t *testing.T) {
	output, err := executeCmd(t, "", "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.HasPrefix(output, "contactbook dev\n") {
		t.Errorf("output = %q", output)
	}
	if !strings.Contains(output, "commit: none") {
		t.Errorf("output missing commit line: %q", output)
	}
}
