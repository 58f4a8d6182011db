package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile_missing(t *testing.T) {
	err := LoadEnvFile(filepath.Join(t.TempDir(), "nonexistent"))
	if err != nil {
		t.Fatalf("missing file should return nil: %v", err)
	}
}

func TestLoadEnvFile_setsPrefixedKeysOnly(t *testing.T) {
	os.Unsetenv("OPENTVGRAB_DICT_DIR")
	os.Unsetenv("SOME_OTHER_DAEMONS_VAR")
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	body := "OPENTVGRAB_DICT_DIR=/opt/dicts\n# comment\nSOME_OTHER_DAEMONS_VAR=quux\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("OPENTVGRAB_DICT_DIR"); got != "/opt/dicts" {
		t.Errorf("OPENTVGRAB_DICT_DIR = %q", got)
	}
	if got := os.Getenv("SOME_OTHER_DAEMONS_VAR"); got != "" {
		t.Errorf("SOME_OTHER_DAEMONS_VAR should be left untouched, got %q", got)
	}
}

func TestLoadEnvFile_neverOverridesExistingValue(t *testing.T) {
	os.Setenv("OPENTVGRAB_PROV_DIR", "/from/real/environment")
	defer os.Unsetenv("OPENTVGRAB_PROV_DIR")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("OPENTVGRAB_PROV_DIR=/from/dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("OPENTVGRAB_PROV_DIR"); got != "/from/real/environment" {
		t.Errorf("OPENTVGRAB_PROV_DIR = %q, want the pre-existing value preserved", got)
	}
}

func TestLoadEnvFile_unquote(t *testing.T) {
	os.Unsetenv("OPENTVGRAB_SVCMGR_ADDR")
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(`OPENTVGRAB_SVCMGR_ADDR="host:9999"`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("OPENTVGRAB_SVCMGR_ADDR"); got != "host:9999" {
		t.Errorf("OPENTVGRAB_SVCMGR_ADDR = %q", got)
	}
}
