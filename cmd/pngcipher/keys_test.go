package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/pngcipher/internal/database"
	"github.com/nao1215/pngcipher/internal/keyfile"
)

func TestKeysLifecycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db := filepath.Join(dir, "db")

	stdout, _, err := runCmd(t, "--db-dir", db, "keys", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(stdout, "No keys stored") {
		t.Errorf("expected empty key store, got %q", stdout)
	}

	stdout, _, err = runCmd(t, "--db-dir", db, "keys", "generate", "--key-bits", "1024", "--label", "first")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	id := keyIDFrom(t, stdout)
	if len(id) != 64 {
		t.Errorf("expected a 64 hex digit id, got %q", id)
	}

	stdout, _, err = runCmd(t, "--db-dir", db, "keys", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(stdout, id[:16]) || !strings.Contains(stdout, "first") {
		t.Errorf("list does not show the key: %q", stdout)
	}

	stdout, _, err = runCmd(t, "--db-dir", db, "keys", "show", id[:12])
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{id, "Bits:    1024", "Block:   127 plaintext / 128 ciphertext bytes", keyfile.TypePKCS1Public} {
		if !strings.Contains(stdout, want) {
			t.Errorf("show output missing %q: %q", want, stdout)
		}
	}

	pemPath := filepath.Join(dir, "keys", "first.pem")
	if _, _, err := runCmd(t, "--db-dir", db, "keys", "export", id, "-o", pemPath); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	exported, err := keyfile.Load(pemPath)
	if err != nil {
		t.Fatalf("exported key does not load: %v", err)
	}
	if exported.Fingerprint() != id {
		t.Errorf("exported fingerprint = %s, want %s", exported.Fingerprint(), id)
	}

	stdout, _, err = runCmd(t, "--db-dir", db, "keys", "export", "--public", id)
	if err != nil {
		t.Fatalf("public export failed: %v", err)
	}
	if !strings.Contains(stdout, keyfile.TypePKCS1Public) || strings.Contains(stdout, keyfile.TypePKCS1Private) {
		t.Errorf("unexpected public export %q", stdout)
	}

	stdout, _, err = runCmd(t, "--db-dir", db, "keys", "delete", id[:8])
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(stdout, id) {
		t.Errorf("delete output %q does not name the key", stdout)
	}

	_, _, err = runCmd(t, "--db-dir", db, "keys", "show", id)
	if !errors.Is(err, database.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}

	stdout, _, err = runCmd(t, "--db-dir", db, "keys", "import", "--label", "restored", pemPath)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if keyIDFrom(t, stdout) != id {
		t.Errorf("imported id differs from exported key")
	}
}

func TestKeysGenerateKeyOut(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pemPath := filepath.Join(dir, "k.pem")

	stdout, _, err := runCmd(t, "--db-dir", filepath.Join(dir, "db"), "keys", "generate", "-k", "1024", "--key-out", pemPath)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	key, err := keyfile.Load(pemPath)
	if err != nil {
		t.Fatal(err)
	}
	if key.Bits() != 1024 {
		t.Errorf("bits = %d, want 1024", key.Bits())
	}
	if key.Fingerprint() != keyIDFrom(t, stdout) {
		t.Error("printed id does not match the written key")
	}
	info, err := os.Stat(pemPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestKeysHistory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db := filepath.Join(dir, "db")

	stdout, _, err := runCmd(t, "--db-dir", db, "keys", "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(stdout, "No operations recorded") {
		t.Errorf("expected empty journal, got %q", stdout)
	}

	input := writeTestPNG(t, dir, "photo.png")
	if _, _, err := runCmd(t, "--db-dir", db, "anonymize", input); err != nil {
		t.Fatal(err)
	}
	stdout, _, err = runCmd(t, "--db-dir", db, "encrypt", "-k", "64", input)
	if err != nil {
		t.Fatal(err)
	}
	id := keyIDFrom(t, stdout)

	all, _, err := runCmd(t, "--db-dir", db, "keys", "history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(all, "anonymize") || !strings.Contains(all, "encrypt") {
		t.Errorf("expected both runs, got %q", all)
	}

	byKey, _, err := runCmd(t, "--db-dir", db, "keys", "history", id)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(byKey, "anonymize") || !strings.Contains(byKey, "encrypt") {
		t.Errorf("expected only the encrypt run, got %q", byKey)
	}

	limited, _, err := runCmd(t, "--db-dir", db, "keys", "history", "-n", "1")
	if err != nil {
		t.Fatal(err)
	}
	// header plus one entry
	if n := len(strings.Split(strings.TrimSpace(limited), "\n")); n != 2 {
		t.Errorf("expected 2 lines with -n 1, got %d: %q", n, limited)
	}
}
