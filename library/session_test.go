package library

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// authServer serves only the authorization endpoint, answering with
// the given status and body like the real backend does.
func authServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Users/authorized" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSessionStartsLoggedOutWithoutToken(t *testing.T) {
	store := tempStore(t)
	session := NewSession(store, NewClient("http://invalid", 0, store))

	if session.Authenticated() {
		t.Fatal("no token stored, should not be authenticated")
	}
	if session.Role() != RoleUnset {
		t.Fatalf("role should be unset, got %q", session.Role())
	}
}

func TestSessionSeedsFromStoredToken(t *testing.T) {
	srv := authServer(t, http.StatusOK, "member")
	store := tempStore(t)
	if err := store.SetToken("stored-token"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	session := NewSession(store, NewClient(srv.URL, 0, store))

	if !session.Authenticated() {
		t.Fatal("stored token should seed authenticated state")
	}
	waitFor(t, func() bool { return session.Role() == RoleMember })
}

func TestCheckAuthorizationSuccess(t *testing.T) {
	srv := authServer(t, http.StatusOK, "admin")
	store := tempStore(t)
	session := NewSession(store, NewClient(srv.URL, 0, store))

	if err := store.SetToken("tok"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := session.CheckAuthorization(); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !session.Authenticated() {
		t.Fatal("should be authenticated after successful check")
	}
	if session.Role() != RoleAdmin {
		t.Fatalf("want admin, got %q", session.Role())
	}
}

func TestCheckAuthorizationRejectedKeepsRoleAndToken(t *testing.T) {
	srv := authServer(t, http.StatusUnauthorized, "")
	store := tempStore(t)
	session := NewSession(store, NewClient(srv.URL, 0, store))

	// Establish a resolved role first, then have the backend reject.
	session.setRole(RoleMember)
	if err := store.SetToken("stale"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	if err := session.CheckAuthorization(); err == nil {
		t.Fatal("rejected check should return an error")
	}
	if session.Authenticated() {
		t.Fatal("rejected check should drop authenticated")
	}
	if session.Role() != RoleMember {
		t.Fatalf("role must stay untouched on failure, got %q", session.Role())
	}
	if _, ok := store.Token(); !ok {
		t.Fatal("credential must be kept so a later check can retry it")
	}
}

func TestCheckAuthorizationUnrecognizedRole(t *testing.T) {
	srv := authServer(t, http.StatusOK, "superuser")
	store := tempStore(t)
	session := NewSession(store, NewClient(srv.URL, 0, store))

	if err := store.SetToken("tok"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := session.CheckAuthorization(); err == nil {
		t.Fatal("unknown role body should be an error")
	}
	if session.Authenticated() {
		t.Fatal("unknown role must not authenticate")
	}
}

func TestCheckAuthorizationWithoutToken(t *testing.T) {
	store := tempStore(t)
	session := NewSession(store, NewClient("http://invalid", 0, store))
	session.SetAuthenticated(true)

	if err := session.CheckAuthorization(); err != nil {
		t.Fatalf("missing token is not an error: %v", err)
	}
	if session.Authenticated() {
		t.Fatal("missing token should drop authenticated")
	}
}

// A synchronous check issued while the construction-time background
// check is still in flight must wait for the verdict rather than
// report success against the unverified seeded state.
func TestCheckAuthorizationJoinsInFlightCheck(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	store := tempStore(t)
	if err := store.SetToken("stale"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	// The stored token seeds authenticated and starts a background
	// check, which is now parked inside the handler.
	session := NewSession(store, NewClient(srv.URL, 0, store))
	if !session.Authenticated() {
		t.Fatal("stored token should seed authenticated state")
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	if err := session.CheckAuthorization(); err == nil {
		t.Fatal("check must surface the backend's rejection")
	}
	if session.Authenticated() {
		t.Fatal("rejected token must not leave the session authenticated")
	}
	if _, ok := store.Token(); !ok {
		t.Fatal("credential must be kept for a later retry")
	}
}

func TestConcurrentChecksShareOneRoundTrip(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte("member"))
	}))
	t.Cleanup(srv.Close)

	store := tempStore(t)
	session := NewSession(store, NewClient(srv.URL, 0, store))
	if err := store.SetToken("tok"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errs <- session.CheckAuthorization() }()
	}

	// Let both callers pile onto the single round-trip, then answer.
	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("want one backend call, got %d", got)
	}
	if session.Role() != RoleMember {
		t.Fatalf("want member, got %q", session.Role())
	}
}

func TestLogoutIsSynchronousAndLocal(t *testing.T) {
	store := tempStore(t)
	session := NewSession(store, NewClient("http://invalid", 0, store))

	if err := store.SetToken("tok"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	session.setRole(RoleMember)
	session.SetAuthenticated(true)

	session.Logout()

	if session.Authenticated() {
		t.Fatal("should be logged out")
	}
	if session.Role() != RoleUnset {
		t.Fatalf("role should reset, got %q", session.Role())
	}
	if _, ok := store.Token(); ok {
		t.Fatal("logout must clear the stored token")
	}
}

func TestSubscribeReplaysLatest(t *testing.T) {
	store := tempStore(t)
	session := NewSession(store, NewClient("http://invalid", 0, store))
	session.SetAuthenticated(true)
	session.setRole(RoleGuest)

	var gotAuth []bool
	cancelAuth := session.SubscribeAuthenticated(func(v bool) { gotAuth = append(gotAuth, v) })
	defer cancelAuth()

	var gotRoles []Role
	cancelRole := session.SubscribeRole(func(r Role) { gotRoles = append(gotRoles, r) })
	defer cancelRole()

	// A late subscriber sees the current value immediately.
	if len(gotAuth) != 1 || gotAuth[0] != true {
		t.Fatalf("want immediate replay of true, got %v", gotAuth)
	}
	if len(gotRoles) != 1 || gotRoles[0] != RoleGuest {
		t.Fatalf("want immediate replay of guest, got %v", gotRoles)
	}

	session.setRole(RoleMember)
	session.SetAuthenticated(false)

	if len(gotAuth) != 2 || gotAuth[1] != false {
		t.Fatalf("want change delivered, got %v", gotAuth)
	}
	if len(gotRoles) != 2 || gotRoles[1] != RoleMember {
		t.Fatalf("want role change delivered, got %v", gotRoles)
	}
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	store := tempStore(t)
	session := NewSession(store, NewClient("http://invalid", 0, store))

	calls := 0
	cancel := session.SubscribeAuthenticated(func(bool) { calls++ })
	cancel()

	session.SetAuthenticated(true)
	if calls != 1 {
		t.Fatalf("want only the replay call, got %d", calls)
	}
}
