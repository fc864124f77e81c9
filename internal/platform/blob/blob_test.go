package blob

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanKey(t *testing.T) {
	valid := map[string]string{
		"certificates/o1/2024-07/h1.pdf": "certificates/o1/2024-07/h1.pdf",
		"a/./b.pdf":                      "a/b.pdf",
	}
	for in, want := range valid {
		got, err := CleanKey(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %q, got %q (%v)", in, want, got, err)
		}
	}
	for _, in := range []string{"", "/etc/passwd", "../secret", "a/../../b", `a\b`} {
		if _, err := CleanKey(in); err != ErrInvalidKey {
			t.Fatalf("%q: expected ErrInvalidKey, got %v", in, err)
		}
	}
}

func TestSealerRoundTrip(t *testing.T) {
	sealer, err := NewSealer("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sealed, err := sealer.Seal([]byte("certificate"))
	if err != nil {
		t.Fatalf("seal error: %v", err)
	}
	if bytes.Contains(sealed, []byte("certificate")) {
		t.Fatal("expected ciphertext to hide the plaintext")
	}
	plain, err := sealer.Open(sealed)
	if err != nil || string(plain) != "certificate" {
		t.Fatalf("expected round trip, got %q (%v)", plain, err)
	}

	if _, err := NewSealer("short"); err == nil {
		t.Fatal("expected key length error")
	}
}

func TestLocalStorePutAndServe(t *testing.T) {
	dir := t.TempDir()
	sealer, err := NewSealer("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store, err := NewLocalStore(dir, "/files/", sealer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := store.Put(context.Background(), "certificates/o1/2024-07/h1.pdf", []byte("%PDF-1.3"), "application/pdf")
	if err != nil {
		t.Fatalf("put error: %v", err)
	}
	if url != "/files/certificates/o1/2024-07/h1.pdf" {
		t.Fatalf("unexpected url %s", url)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "certificates", "o1", "2024-07", "h1.pdf"))
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if bytes.Equal(raw, []byte("%PDF-1.3")) {
		t.Fatal("expected sealed bytes on disk")
	}

	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "%PDF-1.3" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %s", rec.Header().Get("Content-Type"))
	}

	missing := httptest.NewRecorder()
	store.Handler().ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/files/nope.pdf", nil))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
}
