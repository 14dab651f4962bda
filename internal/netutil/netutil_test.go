package netutil

import "testing"

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		":9000":          "0.0.0.0:9000",
		"127.0.0.1:9000": "127.0.0.1:9000",
		"example:9000":   "example:9000",
	}
	for in, want := range cases {
		if got := NormalizeAddr(in); got != want {
			t.Errorf("NormalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListenBindsEphemeralPort(t *testing.T) {
	l, err := Listen(":0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	if l.Addr() == nil {
		t.Fatal("expected a bound address")
	}
}
