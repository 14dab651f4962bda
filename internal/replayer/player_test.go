package replayer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmafrelay/relaycache/internal/recorder"
)

func TestSaturatingDeltaClampsAtZero(t *testing.T) {
	if got := saturatingDelta(100, 150); got != 0 {
		t.Fatalf("got %d, want 0 for a clock that went backwards", got)
	}
	if got := saturatingDelta(150, 100); got != 50 {
		t.Fatalf("got %d, want 50", got)
	}
}

func TestPlayerReplaysInitAndSegmentsInOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "stream-1", "1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stream-1", "1", "0_init.m4s"), []byte("INIT"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stream-1", "1", "1_0.m4s"), []byte("SEG0"), 0o644); err != nil {
		t.Fatal(err)
	}

	storage := NewFileStorage(dir)
	player := NewPlayer(storage, http.DefaultClient)

	var gotPaths []string
	var gotBodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotPaths = append(gotPaths, r.URL.Path)
		gotBodies = append(gotBodies, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	seg := uint32(0)
	representation := recorder.RepresentationMetadata{
		Idx: 1,
		Init: &recorder.FileMetadata{
			FileName: "stream-1/1/0_init.m4s",
			Chunks:   []recorder.Chunk{{TimeOffsetMillis: 0, ByteOffset: 0, Size: 4}},
		},
		Segments: []recorder.FileMetadata{
			{
				FileName: "stream-1/1/1_0.m4s",
				Segment:  &seg,
				Chunks:   []recorder.Chunk{{TimeOffsetMillis: 0, ByteOffset: 0, Size: 4}},
			},
		},
	}

	sent, err := player.Play(server.URL, representation, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if sent != 8 {
		t.Fatalf("bytes sent = %d, want 8", sent)
	}

	if len(gotPaths) != 2 {
		t.Fatalf("expected 2 requests, got %d: %v", len(gotPaths), gotPaths)
	}
	if gotPaths[0] != "/1/init.m4s" || gotBodies[0] != "INIT" {
		t.Fatalf("unexpected init request: %s %q", gotPaths[0], gotBodies[0])
	}
	if gotPaths[1] != "/1/0.m4s" || gotBodies[1] != "SEG0" {
		t.Fatalf("unexpected segment request: %s %q", gotPaths[1], gotBodies[1])
	}
}

func TestPlayerRejectsEmptyRepresentation(t *testing.T) {
	storage := NewFileStorage(t.TempDir())
	player := NewPlayer(storage, http.DefaultClient)

	_, err := player.Play("http://example.invalid", recorder.RepresentationMetadata{Idx: 1}, 0, false)
	if err == nil {
		t.Fatal("expected error for a representation with no segments")
	}
}

func TestFileStorageReadMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "stream-1"), 0o755); err != nil {
		t.Fatal(err)
	}
	meta := `{"name":"stream-1","manifests":[],"representations":[{"idx":1,"segments":[]}]}`
	if err := os.WriteFile(filepath.Join(dir, "stream-1", "metadata.json"), []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}

	storage := NewFileStorage(dir)
	if err := storage.ReadMetadata("stream-1"); err != nil {
		t.Fatal(err)
	}

	got, ok := storage.GetMetadata("stream-1")
	if !ok {
		t.Fatal("expected metadata to be present after ReadMetadata")
	}
	if got.Name != "stream-1" || len(got.Representations) != 1 {
		t.Fatalf("unexpected metadata: %+v", got)
	}
}
