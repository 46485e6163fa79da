package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/pngcipher/internal/config"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	if cmd.Use != "init" {
		t.Errorf("expected use 'init', got %q", cmd.Use)
	}

	flag := cmd.Flags().Lookup("output")
	if flag == nil {
		t.Fatal("expected output flag")
	}
	if flag.Shorthand != "o" {
		t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
	}
	if flag.DefValue != config.DefaultConfigFile {
		t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
	}

	force := cmd.Flags().Lookup("force")
	if force == nil {
		t.Fatal("expected force flag")
	}
	if force.Shorthand != "f" {
		t.Errorf("expected shorthand 'f', got %q", force.Shorthand)
	}
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()
		outputPath := filepath.Join(t.TempDir(), "nested", ".pngcipher")

		cmd := NewInitCmd()
		cmd.SetOut(&strings.Builder{})
		cmd.SetArgs([]string{"-o", outputPath})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cf, err := config.LoadConfigFile(outputPath)
		if err != nil {
			t.Fatalf("generated file does not load: %v", err)
		}
		if cf.Defaults.KeyBits != config.DefaultKeyBits {
			t.Errorf("defaults keyBits = %d, want %d", cf.Defaults.KeyBits, config.DefaultKeyBits)
		}
		for _, name := range []string{"quick", "private"} {
			if _, err := cf.GetProfile(name); err != nil {
				t.Errorf("profile %q: %v", name, err)
			}
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("permissions = %o, want 600", perm)
		}
	})

	t.Run("template profiles are valid", func(t *testing.T) {
		t.Parallel()
		outputPath := filepath.Join(t.TempDir(), ".pngcipher")

		cmd := NewInitCmd()
		cmd.SetOut(&strings.Builder{})
		cmd.SetArgs([]string{"-o", outputPath})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cf, err := config.LoadConfigFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		for name := range cf.Profiles {
			p, err := cf.GetProfile(name)
			if err != nil {
				t.Fatal(err)
			}
			cfg := config.NewConfig()
			cfg.ApplyProfile(p)
			if err := cfg.ValidateCipher(); err != nil {
				t.Errorf("profile %q is invalid: %v", name, err)
			}
		}
	})

	t.Run("fails if file exists without force", func(t *testing.T) {
		t.Parallel()
		outputPath := filepath.Join(t.TempDir(), ".pngcipher")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", outputPath})
		err := cmd.Execute()
		if err == nil {
			t.Fatal("expected error when file exists")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected 'already exists' error, got %v", err)
		}
	})

	t.Run("overwrites file with force flag", func(t *testing.T) {
		t.Parallel()
		outputPath := filepath.Join(t.TempDir(), ".pngcipher")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(&strings.Builder{})
		cmd.SetArgs([]string{"-o", outputPath, "-f"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "profiles:") {
			t.Error("expected file to be overwritten with the template")
		}
	})
}
