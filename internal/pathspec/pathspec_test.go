package pathspec

import "testing"

func u32(v uint32) *uint32 { return &v }

func TestParseValidThreeParts(t *testing.T) {
	p, err := Parse("/stream-1/1/00005.m4s")
	if err != nil {
		t.Fatal(err)
	}
	if p.StreamName != "stream-1" {
		t.Fatalf("stream name = %q", p.StreamName)
	}
	if p.QualityIdx == nil || *p.QualityIdx != 1 {
		t.Fatalf("quality idx = %v, want 1", p.QualityIdx)
	}
	if p.Segment == nil || *p.Segment != 5 {
		t.Fatalf("segment = %v, want 5", p.Segment)
	}
	if p.IsManifest || p.IsInit {
		t.Fatalf("unexpected flags: manifest=%v init=%v", p.IsManifest, p.IsInit)
	}
}

func TestParseValidWithoutLeadingSlash(t *testing.T) {
	p, err := Parse("stream-1/2/00004.m4s")
	if err != nil {
		t.Fatal(err)
	}
	if p.StreamName != "stream-1" || *p.QualityIdx != 2 || *p.Segment != 4 {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestParseValidTwoParts(t *testing.T) {
	p, err := Parse("/stream-1/index.mpd")
	if err != nil {
		t.Fatal(err)
	}
	if p.StreamName != "stream-1" || p.QualityIdx != nil || p.Segment != nil || !p.IsManifest || p.IsInit {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestParseInitSegment(t *testing.T) {
	p, err := Parse("/stream-1/1/init.m4s")
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsInit || p.Segment != nil || *p.QualityIdx != 1 {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestParseInvalidTooManyParts(t *testing.T) {
	if _, err := Parse("/stream1/1/00001.m4s/extra"); err == nil {
		t.Fatal("expected error for too many parts")
	}
}

func TestParseInvalidTooFewParts(t *testing.T) {
	if _, err := Parse("/stream-1"); err == nil {
		t.Fatal("expected error for too few parts")
	}
}

func TestParseInvalidExtension(t *testing.T) {
	if _, err := Parse("/stream-1/1/00001.mp4"); err == nil {
		t.Fatal("expected error for wrong extension")
	}
}

func TestFormatFilenameManifest(t *testing.T) {
	p := Params{StreamName: "s1", IsManifest: true}
	if got, want := p.FormatFilename(3), "s1/manifests/3_index.mpd"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatFilenameSegment(t *testing.T) {
	p := Params{StreamName: "s1", QualityIdx: u32(1), Segment: u32(5)}
	if got, want := p.FormatFilename(9), "s1/1/9_5.m4s"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatFilenameInit(t *testing.T) {
	p := Params{StreamName: "s1", QualityIdx: u32(1), IsInit: true}
	if got, want := p.FormatFilename(0), "s1/1/0_init.m4s"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
