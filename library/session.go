package library

import (
	"log/slog"
	"sync"
)

// Session is the single source of truth for "is a user logged in" and
// "what role do they have". It is created once at process start and
// handed by reference to every screen; screens observe it through the
// two subscription channels rather than reading ambient globals.
//
// The role is meaningful only while authenticated. It is populated
// only by a completed authorization round-trip, never guessed from a
// cached value.
type Session struct {
	mu            sync.Mutex
	authenticated bool
	role          Role
	check         *authCheck

	nextSubID int
	authSubs  map[int]func(bool)
	roleSubs  map[int]func(Role)

	creds  *CredentialStore
	client *Client
}

// authCheck is one authorization round-trip shared by every caller
// that arrived while it was in flight. err is valid once done closes.
type authCheck struct {
	done chan struct{}
	err  error
}

// NewSession seeds the session from the persisted credential: the user
// counts as authenticated iff a token is stored. When a token exists
// the authorization check is started in the background to confirm it
// and resolve the role.
func NewSession(creds *CredentialStore, client *Client) *Session {
	s := &Session{
		authSubs: make(map[int]func(bool)),
		roleSubs: make(map[int]func(Role)),
		creds:    creds,
		client:   client,
	}
	_, present := creds.Token()
	s.authenticated = present
	if present {
		go func() {
			if err := s.CheckAuthorization(); err != nil {
				slog.Warn("authorization check failed", "err", err)
			}
		}()
	}
	return s
}

// Authenticated reports the current authentication state.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Role reports the current role; RoleUnset until an authorization
// check has completed.
func (s *Session) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// SubscribeAuthenticated registers fn on the authentication channel.
// fn runs immediately with the current value and again on every
// change. The returned cancel func unregisters it.
func (s *Session) SubscribeAuthenticated(fn func(bool)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.authSubs[id] = fn
	current := s.authenticated
	s.mu.Unlock()

	fn(current)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.authSubs, id)
	}
}

// SubscribeRole registers fn on the role channel with the same
// replay-latest semantics as SubscribeAuthenticated.
func (s *Session) SubscribeRole(fn func(Role)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.roleSubs[id] = fn
	current := s.role
	s.mu.Unlock()

	fn(current)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.roleSubs, id)
	}
}

// SetAuthenticated publishes a new authentication state. A successful
// login calls this with true; the role stays unresolved until the next
// authorization check completes, and gating stays closed meanwhile.
func (s *Session) SetAuthenticated(v bool) {
	s.mu.Lock()
	s.authenticated = v
	subs := make([]func(bool), 0, len(s.authSubs))
	for _, fn := range s.authSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}

func (s *Session) setRole(r Role) {
	s.mu.Lock()
	s.role = r
	subs := make([]func(Role), 0, len(s.roleSubs))
	for _, fn := range s.roleSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(r)
	}
}

// Logout clears the stored credential and drops to the logged-out
// state. It is synchronous and local; no network call is involved.
func (s *Session) Logout() {
	if err := s.creds.ClearToken(); err != nil {
		slog.Warn("clear token", "err", err)
	}
	s.setRole(RoleUnset)
	s.SetAuthenticated(false)
}

// CheckAuthorization confirms the stored credential with the backend
// and resolves the role. On success it publishes the role and flips
// authenticated to true. On any failure it flips authenticated to
// false and leaves the role untouched; the stored credential is kept
// (the backend may accept it again later).
//
// Only one round-trip runs at a time. A call while another check is
// in flight waits for that check and returns its outcome, so every
// caller sees a verified result.
func (s *Session) CheckAuthorization() error {
	s.mu.Lock()
	if c := s.check; c != nil {
		s.mu.Unlock()
		<-c.done
		return c.err
	}
	c := &authCheck{done: make(chan struct{})}
	s.check = c
	s.mu.Unlock()

	c.err = s.runCheck()

	s.mu.Lock()
	s.check = nil
	s.mu.Unlock()
	close(c.done)
	return c.err
}

func (s *Session) runCheck() error {
	if _, present := s.creds.Token(); !present {
		s.SetAuthenticated(false)
		return nil
	}
	role, err := s.client.Authorized()
	if err != nil {
		s.SetAuthenticated(false)
		return err
	}
	s.setRole(role)
	s.SetAuthenticated(true)
	return nil
}
