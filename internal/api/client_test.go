package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/myhome/myhome/internal/session"
)

type staticTokens struct {
	mu    sync.Mutex
	token string
}

func (s *staticTokens) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *staticTokens) set(t string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = t
}

type fakeRefresher struct {
	mu     sync.Mutex
	calls  int
	err    error
	tokens *staticTokens
	next   string
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.tokens.set(f.next)
	return nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ok(data interface{}) []byte {
	b, _ := json.Marshal(map[string]interface{}{"success": true, "data": data})
	return b
}

func fail(status int, w http.ResponseWriter, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": msg})
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

func TestNew_ConfigErrors(t *testing.T) {
	cases := []string{
		"ftp://example.com",
		"not a url at all\x7f://",
		"http://",
	}
	for _, base := range cases {
		if _, err := New(base); !errors.Is(err, ErrConfig) {
			t.Errorf("New(%q): expected ErrConfig, got %v", base, err)
		}
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(base)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, _, err = c.Login(context.Background(), "a@b.c", "pw")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "admin@myhome.com" || body["password"] != "password123" {
			t.Errorf("unexpected credentials: %v", body)
		}
		w.Write(ok(map[string]interface{}{
			"user":   map[string]interface{}{"id": "1", "email": "admin@myhome.com", "role": "admin"},
			"tokens": map[string]string{"accessToken": "A1", "refreshToken": "R1"},
		}))
	}))

	user, tokens, err := c.Login(context.Background(), "admin@myhome.com", "password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "1" || user.Role != session.RoleAdmin {
		t.Errorf("unexpected user: %+v", user)
	}
	if tokens.AccessToken != "A1" || tokens.RefreshToken != "R1" {
		t.Errorf("unexpected tokens: %+v", tokens)
	}
}

func TestLogin_BackendMessageSurfacedVerbatim(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fail(http.StatusUnauthorized, w, "Incorrect email or password")
	}))

	_, _, err := c.Login(context.Background(), "a@b.c", "bad")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Incorrect email or password" {
		t.Errorf("expected backend message verbatim, got %q", apiErr.Message)
	}
}

func TestLogin_GenericFallbackMessage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false}`))
	}))

	_, _, err := c.Login(context.Background(), "a@b.c", "bad")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Login failed" {
		t.Errorf("expected generic fallback, got %q", apiErr.Message)
	}
}

func TestLogin_MalformedResponse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(ok(map[string]interface{}{"user": map[string]string{"id": "1"}}))
	}))

	if _, _, err := c.Login(context.Background(), "a@b.c", "pw"); err == nil {
		t.Error("expected error for response without tokens")
	}
}

func TestAuthedRequest_AttachesBearer(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write(ok(map[string]interface{}{"data": []interface{}{}, "total": 0}))
	}))
	tokens := &staticTokens{token: "A1"}
	c.tokens = tokens

	if _, _, err := c.ListFacilities(context.Background(), ListParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer A1" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestReactiveRefresh_SingleReplay(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer A2" {
			fail(http.StatusUnauthorized, w, "token expired")
			return
		}
		w.Write(ok(map[string]interface{}{"id": "f1", "name": "Sunrise House"}))
	}))
	tokens := &staticTokens{token: "A1"}
	refresher := &fakeRefresher{tokens: tokens, next: "A2"}
	c.tokens = tokens
	c.refresher = refresher

	f, err := c.GetFacility(context.Background(), "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Name != "Sunrise House" {
		t.Errorf("unexpected facility: %+v", f)
	}
	if refresher.callCount() != 1 {
		t.Errorf("expected exactly one refresh, got %d", refresher.callCount())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "Bearer A1" || seen[1] != "Bearer A2" {
		t.Errorf("expected original then single replay with new token, got %v", seen)
	}
}

func TestReactiveRefresh_ReplayRejectedIsFinal(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		fail(http.StatusUnauthorized, w, "nope")
	}))
	tokens := &staticTokens{token: "A1"}
	refresher := &fakeRefresher{tokens: tokens, next: "A2"}
	c.tokens = tokens
	c.refresher = refresher

	_, err := c.GetFacility(context.Background(), "f1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if refresher.callCount() != 1 {
		t.Errorf("expected exactly one refresh for the original request, got %d", refresher.callCount())
	}
	mu.Lock()
	defer mu.Unlock()
	if requests != 2 {
		t.Errorf("expected original plus one replay, got %d requests", requests)
	}
}

func TestReactiveRefresh_RefreshFailureEndsRequest(t *testing.T) {
	requests := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fail(http.StatusUnauthorized, w, "token revoked by administrator")
	}))
	tokens := &staticTokens{token: "A1"}
	refresher := &fakeRefresher{tokens: tokens, err: fmt.Errorf("refresh rejected")}
	c.tokens = tokens
	c.refresher = refresher

	_, err := c.GetFacility(context.Background(), "f1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if requests != 1 {
		t.Errorf("expected no replay after failed refresh, got %d requests", requests)
	}
	// The caller still sees what the backend said about the rejection, not
	// a synthesized message.
	if apiErr.Message != "token revoked by administrator" {
		t.Errorf("expected original backend message, got %q", apiErr.Message)
	}
}

func TestReactiveRefresh_RefreshFailureFallbackMessage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	tokens := &staticTokens{token: "A1"}
	refresher := &fakeRefresher{tokens: tokens, err: fmt.Errorf("refresh rejected")}
	c.tokens = tokens
	c.refresher = refresher

	_, err := c.GetFacility(context.Background(), "f1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "session expired" {
		t.Errorf("expected fallback message for a bodyless 401, got %q", apiErr.Message)
	}
}

func TestRefreshToken_Binding(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh-token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "R1" {
			t.Errorf("unexpected body: %v", body)
		}
		w.Write(ok(map[string]string{"accessToken": "A2"}))
	}))

	access, err := c.RefreshToken(context.Background(), "R1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if access != "A2" {
		t.Errorf("expected A2, got %q", access)
	}
}

func TestList_Pagination(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" || r.URL.Query().Get("offset") != "10" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write(ok(map[string]interface{}{
			"data":  []map[string]interface{}{{"id": "r1", "first_name": "Rose"}},
			"total": 42,
		}))
	}))
	c.tokens = &staticTokens{token: "A1"}

	residents, total, err := c.ListResidents(context.Background(), "", ListParams{Limit: 5, Offset: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 42 || len(residents) != 1 || residents[0].FirstName != "Rose" {
		t.Errorf("unexpected page: total=%d residents=%+v", total, residents)
	}
}
