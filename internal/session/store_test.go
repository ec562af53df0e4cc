package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return fs
}

func sampleSession() *Session {
	return &Session{
		User:      *testUser(),
		Tokens:    Tokens{AccessToken: "A1", RefreshToken: "R1"},
		ExpiresAt: time.Now().Add(24 * time.Hour).Truncate(time.Second),
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	fs := newTestStore(t)

	if err := fs.Save(sampleSession()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := fs.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected a session")
	}
	if got.User.Email != "admin@myhome.com" || got.Tokens.AccessToken != "A1" {
		t.Errorf("unexpected session: %+v", got)
	}
	if !got.ExpiresAt.Equal(sampleSession().ExpiresAt) {
		t.Errorf("expiry did not survive round trip: %v", got.ExpiresAt)
	}
}

func TestFileStore_LoadAbsent(t *testing.T) {
	fs := newTestStore(t)
	got, err := fs.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil session for absent file")
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	fs := newTestStore(t)
	if err := os.WriteFile(fs.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Load(); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestFileStore_LoadIncomplete(t *testing.T) {
	fs := newTestStore(t)
	// Valid JSON but missing tokens: must not restore a half-session.
	if err := os.WriteFile(fs.Path(), []byte(`{"user":{"id":"1"},"expiry":"2030-01-01T00:00:00Z"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Load(); err == nil {
		t.Error("expected error for incomplete record")
	}
}

func TestFileStore_SaveReplacesAtomically(t *testing.T) {
	fs := newTestStore(t)
	if err := fs.Save(sampleSession()); err != nil {
		t.Fatalf("save: %v", err)
	}

	next := sampleSession()
	next.Tokens.AccessToken = "A2"
	if err := fs.Save(next); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := fs.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Tokens.AccessToken != "A2" {
		t.Errorf("expected replaced record, got %q", got.Tokens.AccessToken)
	}
	if _, err := os.Stat(fs.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

func TestFileStore_ClearRemovesLegacyFiles(t *testing.T) {
	fs := newTestStore(t)
	dir := filepath.Dir(fs.Path())

	if err := fs.Save(sampleSession()); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, name := range legacyFileNames {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if err := fs.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(fs.Path()); !os.IsNotExist(err) {
		t.Error("primary record not removed")
	}
	for _, name := range legacyFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("legacy file %s not removed", name)
		}
	}
}

func TestFileStore_ClearIdempotent(t *testing.T) {
	fs := newTestStore(t)
	if err := fs.Clear(); err != nil {
		t.Errorf("clearing an absent record must be a no-op, got %v", err)
	}
	if err := fs.Clear(); err != nil {
		t.Errorf("second clear must also be a no-op, got %v", err)
	}
}

func TestTokenExpiry_OpaqueToken(t *testing.T) {
	if _, ok := tokenExpiry("not-a-jwt"); ok {
		t.Error("opaque token must not yield an expiry")
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleCaregiver, RoleDoctor, RoleSupervisor, RoleFacilityOwner} {
		if !r.Valid() {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if Role("janitor").Valid() {
		t.Error("unknown role must be invalid")
	}
}
