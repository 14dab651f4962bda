package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSettingsAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recorder.toml")
	if err := os.WriteFile(path, []byte("[storage]\npath = \"/data\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.HTTP.Addr != defaultAddr {
		t.Fatalf("addr = %q, want default %q", s.HTTP.Addr, defaultAddr)
	}
	if s.Stream.InactiveTimeout() != defaultInactiveTimeout {
		t.Fatalf("inactive timeout = %v, want default %v", s.Stream.InactiveTimeout(), defaultInactiveTimeout)
	}
}

func TestLoadSettingsOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recorder.toml")
	content := "[http]\naddr = \":9999\"\n\n[storage]\npath = \"/data\"\n\n[stream]\ninactive_timeout = 30\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.HTTP.Addr != ":9999" {
		t.Fatalf("addr = %q, want :9999", s.HTTP.Addr)
	}
	if s.Stream.InactiveTimeout() != 30*time.Second {
		t.Fatalf("inactive timeout = %v, want 30s", s.Stream.InactiveTimeout())
	}
}
