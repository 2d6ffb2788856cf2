package digest

import (
	"errors"
	"testing"
)

func TestSHA1_KnownValue(t *testing.T) {
	got := SHA1([]byte("abc"))
	if got != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Errorf("Expected sha1 of abc, got %s", got)
	}
}

func TestSHA1_Deterministic(t *testing.T) {
	body := []byte("<html><body>poem</body></html>")
	if SHA1(body) != SHA1(append([]byte(nil), body...)) {
		t.Error("Expected identical bytes to hash identically")
	}

	if SHA1(body) == SHA1([]byte("<html></html>")) {
		t.Error("Expected different bytes to hash differently")
	}
}

func TestVerify(t *testing.T) {
	body := []byte("content")

	if err := Verify(body, SHA1(body)); err != nil {
		t.Errorf("Verify returned unexpected error: %v", err)
	}

	err := Verify(body, SHA1([]byte("other")))
	if !errors.Is(err, ErrHashMismatch) {
		t.Errorf("Expected ErrHashMismatch, got %v", err)
	}
}
