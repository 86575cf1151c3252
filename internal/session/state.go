package session

import "github.com/isdelr/mantis-client/internal/models"

// Status is the coarse authentication state derived from a State.
type Status int

const (
	// StatusChecking means a bootstrap, login or register call is pending and
	// User must not be treated as authoritative.
	StatusChecking Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// State is an immutable snapshot of the session. Err is empty when no error
// is set.
type State struct {
	User    *models.User
	Loading bool
	Err     string
}

// Initial is the state a coordinator starts in.
func Initial() State {
	return State{Loading: true}
}

// Status derives the authentication state.
func (s State) Status() Status {
	switch {
	case s.Loading:
		return StatusChecking
	case s.User != nil:
		return StatusAuthenticated
	default:
		return StatusAnonymous
	}
}

// HasError reports whether an error message is set.
func (s State) HasError() bool {
	return s.Err != ""
}

// Event is a session transition. The set of events is closed.
type Event interface {
	isEvent()
}

// LoadingStarted marks a pending check, login or register.
type LoadingStarted struct{}

// LoadingFinished ends a pending operation without changing the user.
type LoadingFinished struct{}

// UserSet records an authenticated user and clears any error.
type UserSet struct {
	User *models.User
}

// ErrorSet records a failure message.
type ErrorSet struct {
	Message string
}

// ErrorCleared removes the error message.
type ErrorCleared struct{}

// LoggedOut drops the user and clears any error.
type LoggedOut struct{}

func (LoadingStarted) isEvent()  {}
func (LoadingFinished) isEvent() {}
func (UserSet) isEvent()         {}
func (ErrorSet) isEvent()        {}
func (ErrorCleared) isEvent()    {}
func (LoggedOut) isEvent()       {}

// Reduce applies ev to s and returns the next state. It has no side effects.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case LoadingStarted:
		s.Loading = true
	case LoadingFinished:
		s.Loading = false
	case UserSet:
		s.User = cloneUser(e.User)
		s.Loading = false
		s.Err = ""
	case ErrorSet:
		s.Err = e.Message
		s.Loading = false
	case ErrorCleared:
		s.Err = ""
	case LoggedOut:
		s.User = nil
		s.Loading = false
		s.Err = ""
	}
	return s
}

// cloneUser keeps snapshots independent from the caller's copy.
func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
