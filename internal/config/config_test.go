package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `
[runtime]
threads = 4

[ingester]
addr = ":9000"

[transmitter]
addr = ":9001"

[[cache.list]]
name = "live"
copy = true

[[cache.map]]
name = "coalesced"
preallocate = 4096

[[cache.static]]
name = "bench"
file_path = "/srv/bench"
shards = 8
streams = 10
tracks = 2
segments = 100
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadParsesAllSections(t *testing.T) {
	s, err := Load(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}
	if s.Runtime.Threads != 4 {
		t.Fatalf("threads = %d, want 4", s.Runtime.Threads)
	}
	if s.Ingester.Addr != ":9000" || s.Transmitter.Addr != ":9001" {
		t.Fatalf("unexpected addrs: %+v %+v", s.Ingester, s.Transmitter)
	}
	if len(s.Cache.List) != 1 || s.Cache.List[0].Name != "live" || !s.Cache.List[0].Copy {
		t.Fatalf("unexpected list cache config: %+v", s.Cache.List)
	}
	if len(s.Cache.Map) != 1 || s.Cache.Map[0].Preallocate != 4096 {
		t.Fatalf("unexpected map cache config: %+v", s.Cache.Map)
	}
	if len(s.Cache.Static) != 1 || s.Cache.Static[0].Shards != 8 {
		t.Fatalf("unexpected static cache config: %+v", s.Cache.Static)
	}
}

func TestResolveByKindAndName(t *testing.T) {
	s, err := Load(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}

	r := s.Cache.Resolve("list:live")
	if r.Kind != KindList || r.List.Name != "live" {
		t.Fatalf("unexpected resolution: %+v", r)
	}

	r = s.Cache.Resolve("map:coalesced")
	if r.Kind != KindMap || r.Map.Preallocate != 4096 {
		t.Fatalf("unexpected resolution: %+v", r)
	}

	r = s.Cache.Resolve("static:bench")
	if r.Kind != KindStatic {
		t.Fatalf("unexpected resolution: %+v", r)
	}
}

func TestResolveUnknownNameOrMalformedSelector(t *testing.T) {
	s, err := Load(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}

	if r := s.Cache.Resolve("list:missing"); r.Kind != KindNotFound {
		t.Fatalf("expected not-found, got %+v", r)
	}
	if r := s.Cache.Resolve("no-colon-here"); r.Kind != KindNotFound {
		t.Fatalf("expected not-found for malformed selector, got %+v", r)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
