package integration

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/myhome/myhome/internal/api"
	"github.com/myhome/myhome/internal/notify"
	"github.com/myhome/myhome/internal/sandbox"
	"github.com/myhome/myhome/internal/session"
)

// newStack wires a complete client against an in-process sandbox backend:
// API client, file-backed session store, and the session manager.
func newStack(t *testing.T, sessionFile string, sandboxOpts sandbox.Options, managerOpts session.Options) (*api.Client, *session.Manager) {
	t.Helper()

	backend := sandbox.New(zerolog.Nop(), sandboxOpts)
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	return newClientFor(t, ts.URL, sessionFile, managerOpts)
}

func newClientFor(t *testing.T, baseURL, sessionFile string, managerOpts session.Options) (*api.Client, *session.Manager) {
	t.Helper()

	client, err := api.New(baseURL)
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	store, err := session.NewFileStore(sessionFile)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	manager := session.NewManager(client, store, notify.Nop{}, zerolog.Nop(), managerOpts)
	t.Cleanup(manager.Close)
	client.Bind(manager)
	return client, manager
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "session.json")

	backend := sandbox.New(zerolog.Nop(), sandbox.Options{})
	ts := httptest.NewServer(backend.Handler())
	defer ts.Close()

	client, manager := newClientFor(t, ts.URL, file, session.Options{})

	// Sign in and use an authenticated endpoint.
	user, err := manager.Login(ctx, "admin@myhome.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Role != session.RoleAdmin {
		t.Fatalf("role = %q, want admin", user.Role)
	}
	if !manager.Authenticated() {
		t.Fatal("expected authenticated state after login")
	}

	facilities, total, err := client.ListFacilities(ctx, api.ListParams{})
	if err != nil {
		t.Fatalf("list facilities: %v", err)
	}
	if total == 0 || len(facilities) == 0 {
		t.Fatal("expected seeded facility")
	}

	// The session must be on disk.
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("session file missing after login: %v", err)
	}

	// A fresh process restores and verifies the session from the same file.
	client2, manager2 := newClientFor(t, ts.URL, file, session.Options{})
	if !manager2.Load(ctx) {
		t.Fatal("expected session restore from disk")
	}
	restored := manager2.Current()
	if restored == nil || restored.Email != "admin@myhome.com" {
		t.Fatalf("restored user = %+v", restored)
	}

	// The restored client can work with protected resources.
	resident, err := client2.CreateResident(ctx, &api.Resident{
		FacilityID: facilities[0].ID,
		FirstName:  "Ada",
		LastName:   "Lovelace",
	})
	if err != nil {
		t.Fatalf("create resident: %v", err)
	}
	if resident.ID == "" {
		t.Fatal("created resident has no id")
	}

	// Logout clears memory and disk; a later restore finds nothing.
	manager2.Logout(ctx)
	if manager2.Authenticated() {
		t.Fatal("still authenticated after logout")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatalf("session file should be gone after logout, stat err = %v", err)
	}

	_, manager3 := newClientFor(t, ts.URL, file, session.Options{})
	if manager3.Load(ctx) {
		t.Fatal("restore after logout should fail")
	}
}

func TestExpiredAccessTokenIsRenewedTransparently(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "session.json")

	// Access tokens die after a second; the refresh grant stays valid.
	client, manager := newStack(t, file,
		sandbox.Options{AccessTTL: time.Second},
		session.Options{Lifetime: time.Hour, RefreshLeeway: time.Millisecond},
	)

	if _, err := manager.Login(ctx, "admin@myhome.com", "password123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	firstToken := manager.Token()

	time.Sleep(1200 * time.Millisecond)

	// The stale token triggers a 401; the client refreshes and replays
	// without surfacing an error.
	if _, _, err := client.ListFacilities(ctx, api.ListParams{}); err != nil {
		t.Fatalf("authed call after token expiry: %v", err)
	}
	if !manager.Authenticated() {
		t.Fatal("session should survive an access token renewal")
	}
	if manager.Token() == firstToken {
		t.Fatal("expected a new access token after renewal")
	}
}

func TestRestoreWithRevokedGrantEndsSession(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "session.json")

	backend := sandbox.New(zerolog.Nop(), sandbox.Options{})
	ts := httptest.NewServer(backend.Handler())
	defer ts.Close()

	_, manager := newClientFor(t, ts.URL, file, session.Options{})
	if _, err := manager.Login(ctx, "admin@myhome.com", "password123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	manager.Close()

	// Replace the backend with one that lost all auth state. The stored
	// access token no longer maps to a user and the refresh grant is
	// unknown, so verification fails and the rescue refresh fails too.
	ts.Close()
	backend2 := sandbox.New(zerolog.Nop(), sandbox.Options{})
	ts2 := httptest.NewServer(backend2.Handler())
	defer ts2.Close()

	_, manager2 := newClientFor(t, ts2.URL, file, session.Options{})
	if manager2.Load(ctx) {
		t.Fatal("restore must fail when the backend rejects the session")
	}
	if manager2.Authenticated() {
		t.Fatal("no authenticated state expected after failed restore")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatalf("stored session should be cleared after failed restore, stat err = %v", err)
	}
}

func TestRegisterThenWorkAsCaregiver(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backend := sandbox.New(zerolog.Nop(), sandbox.Options{})
	ts := httptest.NewServer(backend.Handler())
	defer ts.Close()

	adminClient, adminManager := newClientFor(t, ts.URL, filepath.Join(dir, "admin.json"), session.Options{})
	if _, err := adminManager.Login(ctx, "admin@myhome.com", "password123"); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	facilities, _, err := adminClient.ListFacilities(ctx, api.ListParams{})
	if err != nil || len(facilities) == 0 {
		t.Fatalf("list facilities: %v", err)
	}
	fid := facilities[0].ID

	// Register does not sign the new account in.
	userClient, userManager := newClientFor(t, ts.URL, filepath.Join(dir, "user.json"), session.Options{})
	if _, err := userManager.Register(ctx, session.RegisterData{
		Email:      "nurse@myhome.com",
		Password:   "secret12",
		Name:       "Nia Nurse",
		Role:       session.RoleCaregiver,
		FacilityID: &fid,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if userManager.Authenticated() {
		t.Fatal("register must not authenticate")
	}

	if _, err := userManager.Login(ctx, "nurse@myhome.com", "secret12"); err != nil {
		t.Fatalf("login as new account: %v", err)
	}

	// Facility scoping: residents created elsewhere are invisible.
	if _, err := adminClient.CreateResident(ctx, &api.Resident{
		FacilityID: "another-facility", FirstName: "Out", LastName: "OfScope",
	}); err != nil {
		t.Fatalf("create out-of-scope resident: %v", err)
	}
	residents, _, err := userClient.ListResidents(ctx, "", api.ListParams{})
	if err != nil {
		t.Fatalf("list residents as caregiver: %v", err)
	}
	for _, r := range residents {
		if r.FacilityID != fid {
			t.Errorf("caregiver saw resident of facility %q", r.FacilityID)
		}
	}
}
