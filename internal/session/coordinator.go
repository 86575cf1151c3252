// Package session owns the client's authentication state. A single
// Coordinator per process holds the current State and is the only writer;
// everything else reads snapshots or subscribes to changes.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/isdelr/mantis-client/internal/apierror"
	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/services"
	"github.com/rs/zerolog/log"
)

// ArtifactClearer wipes locally persisted client state.
type ArtifactClearer interface {
	ClearAll() error
}

// Listener receives every new state snapshot.
type Listener func(State)

// Coordinator runs the session state machine.
//
// Bootstrap, Login and Register are not sequenced against each other: if
// they overlap, whichever finishes last decides the state.
type Coordinator struct {
	auth      services.AuthServiceProvider
	artifacts ArtifactClearer

	state atomic.Pointer[State]

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewCoordinator creates a Coordinator in the checking state.
func NewCoordinator(auth services.AuthServiceProvider, artifacts ArtifactClearer) *Coordinator {
	c := &Coordinator{
		auth:      auth,
		artifacts: artifacts,
		listeners: make(map[int]Listener),
	}
	initial := Initial()
	c.state.Store(&initial)
	return c
}

// State returns the current snapshot.
func (c *Coordinator) State() State {
	return *c.state.Load()
}

// Subscribe registers l for every future transition and returns a function
// that removes it. l runs synchronously on the goroutine that made the
// transition.
func (c *Coordinator) Subscribe(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// dispatch folds ev into the current state, swaps the snapshot and notifies
// listeners.
func (c *Coordinator) dispatch(ev Event) State {
	next := Reduce(c.State(), ev)
	c.state.Store(&next)

	c.mu.Lock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next
}

// Bootstrap reconciles local state with the server's session cookie. It
// never fails: any error leaves the session anonymous with no error shown.
func (c *Coordinator) Bootstrap(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Session check panicked")
			c.resetToAnonymous()
		}
	}()

	c.dispatch(LoadingStarted{})
	user, err := c.auth.CurrentUser(ctx)
	if err == nil && user == nil {
		err = apierror.NewMalformed(nil)
	}
	if err != nil {
		log.Debug().Err(err).Str("kind", apierror.KindOf(err).String()).Msg("No valid session")
		c.resetToAnonymous()
		return
	}
	log.Info().Str("username", user.Username).Msg("Session restored")
	c.dispatch(UserSet{User: user})
}

// resetToAnonymous wipes client storage and ends any pending check without
// surfacing an error. Exactly one transition is published.
func (c *Coordinator) resetToAnonymous() {
	c.clearArtifacts()
	if c.State().User != nil {
		c.dispatch(LoggedOut{})
		return
	}
	c.dispatch(LoadingFinished{})
}

// Login authenticates with the server. On failure the message is recorded
// in the session and the same error is returned to the caller.
func (c *Coordinator) Login(ctx context.Context, username, password string) (*services.LoginResponse, error) {
	if username == "" || password == "" {
		err := apierror.NewValidation("Username and password are required")
		c.dispatch(ErrorSet{Message: err.Message})
		return nil, err
	}

	c.dispatch(LoadingStarted{})
	resp, err := c.authenticate(ctx, username, password)
	if err != nil {
		c.fail("Login failed", err)
		return nil, err
	}
	log.Info().Str("username", resp.User.Username).Msg("Logged in")
	c.dispatch(UserSet{User: resp.User})
	return resp, nil
}

// Register creates the account and then logs in with the same credentials,
// since registration alone does not open a session. If the login step
// fails the account still exists; the login error is what gets reported.
// Input is forwarded as is; form validation belongs to the caller.
func (c *Coordinator) Register(ctx context.Context, input models.RegisterInput) (*services.LoginResponse, error) {
	c.dispatch(LoadingStarted{})
	if _, err := c.auth.Register(ctx, input); err != nil {
		c.fail("Registration failed", err)
		return nil, err
	}

	resp, err := c.authenticate(ctx, input.Username, input.Password)
	if err != nil {
		c.fail("Login after registration failed", fmt.Errorf("account %q created: %w", input.Username, err))
		return nil, err
	}
	log.Info().Str("username", resp.User.Username).Msg("Registered and logged in")
	c.dispatch(UserSet{User: resp.User})
	return resp, nil
}

// Logout ends the session. The server call is best effort; local state is
// cleared whatever happens to it.
func (c *Coordinator) Logout(ctx context.Context) {
	defer func() {
		c.clearArtifacts()
		c.dispatch(LoggedOut{})
	}()

	if err := c.auth.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("Server logout failed, clearing local session anyway")
	}
}

// ClearError removes the session error message.
func (c *Coordinator) ClearError() {
	c.dispatch(ErrorCleared{})
}

// authenticate calls the login endpoint and insists on a user in the reply.
func (c *Coordinator) authenticate(ctx context.Context, username, password string) (*services.LoginResponse, error) {
	resp, err := c.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.User == nil {
		return nil, apierror.NewMalformed(nil)
	}
	return resp, nil
}

func (c *Coordinator) fail(msg string, err error) {
	log.Warn().Err(err).Str("kind", apierror.KindOf(err).String()).Msg(msg)
	c.dispatch(ErrorSet{Message: apierror.Message(err)})
}

func (c *Coordinator) clearArtifacts() {
	if c.artifacts == nil {
		return
	}
	if err := c.artifacts.ClearAll(); err != nil {
		log.Warn().Err(err).Msg("Failed to clear client storage")
	}
}
