package oerror

import "testing"

func TestNewFormatsArguments(t *testing.T) {
	if err := New("bad stance %d", 4); err.Error() != "bad stance 4" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if err := New("%s", "100%"); err.Error() != "100%" {
		t.Fatalf("a percent sign passed as an argument must be kept verbatim, got %q", err.Error())
	}
}
