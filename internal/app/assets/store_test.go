package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), []string{"image/png", "image/jpeg"}, nil)
}

func TestUploadFetchRoundTrip(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Upload("project", Upload{Filename: "logo.png", Data: []byte("png-bytes")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	data, err := store.Fetch("project", path)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("fetched %q", data)
	}
}

func TestReplaceThenRemoveOldFile(t *testing.T) {
	store := newTestStore(t)

	oldPath, err := store.Upload("project", Upload{Filename: "a.png", Data: []byte("old")})
	if err != nil {
		t.Fatalf("upload old: %v", err)
	}
	newPath, err := store.Upload("project", Upload{Filename: "b.png", Data: []byte("new")})
	if err != nil {
		t.Fatalf("upload new: %v", err)
	}
	if err := store.Remove("project", oldPath); err != nil {
		t.Fatalf("remove old: %v", err)
	}

	if _, err := store.Fetch("project", oldPath); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old file should be gone, got %v", err)
	}

	sum, err := store.Checksum("project", newPath)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	expected := sha256.Sum256([]byte("new"))
	if sum != hex.EncodeToString(expected[:]) {
		t.Fatalf("checksum mismatch: %s", sum)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Remove("project", "never-stored.png"); err != nil {
		t.Fatalf("removing an absent file must be a no-op, got %v", err)
	}
}

func TestFetchMissingFile(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Fetch("user", "ghost.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifyChecksum(t *testing.T) {
	store := newTestStore(t)
	path, err := store.Upload("user", Upload{Filename: "pic.jpg", Data: []byte("content")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	sum, err := store.Checksum("user", path)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if err := store.VerifyChecksum("user", path, sum); err != nil {
		t.Fatalf("verify with matching sum: %v", err)
	}
	if err := store.VerifyChecksum("user", path, "deadbeef"); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestAllowMime(t *testing.T) {
	store := newTestStore(t)

	if err := store.AllowMime(Upload{ContentType: "image/png"}); err != nil {
		t.Fatalf("png should be allowed: %v", err)
	}

	err := store.AllowMime(Upload{ContentType: "application/x-dosexec"})
	var unsupported *UnsupportedMediaError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedMediaError, got %v", err)
	}
	if unsupported.Mime != "application/x-dosexec" {
		t.Fatalf("wrong mime reported: %s", unsupported.Mime)
	}
}
