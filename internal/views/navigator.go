package views

import (
	"sync"

	"github.com/isdelr/mantis-client/internal/session"
	"github.com/rs/zerolog/log"
)

// maxRedirects bounds a redirect chain such as / -> /dashboard -> /login.
const maxRedirects = 4

// SessionSource is the read side of the session coordinator.
type SessionSource interface {
	State() session.State
	Subscribe(l session.Listener) (unsubscribe func())
}

// Navigator tracks the current route and re-applies its guard whenever the
// session changes. It is the only place redirects happen.
type Navigator struct {
	source SessionSource

	mu        sync.Mutex
	current   string
	decision  Decision
	redirects []string

	unsubscribe func()
}

// NewNavigator opens start and follows session transitions until Close.
func NewNavigator(source SessionSource, start string) *Navigator {
	n := &Navigator{source: source}
	n.Navigate(start)
	n.unsubscribe = source.Subscribe(n.onChange)
	return n
}

// Navigate moves to path and returns the guard decision after following
// redirects.
func (n *Navigator) Navigate(path string) Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = normalize(path)
	return n.resolveLocked(n.source.State())
}

// Current returns the route the navigator is on.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Decision returns the guard decision for the current route.
func (n *Navigator) Decision() Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.decision
}

// Redirects returns every redirect target taken so far, oldest first.
func (n *Navigator) Redirects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.redirects...)
}

// Close stops following the session.
func (n *Navigator) Close() {
	if n.unsubscribe != nil {
		n.unsubscribe()
	}
}

func (n *Navigator) onChange(s session.State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolveLocked(s)
}

func (n *Navigator) resolveLocked(s session.State) Decision {
	d := Resolve(n.current, s)
	for i := 0; d.Outcome == Redirect && i < maxRedirects; i++ {
		log.Debug().Str("from", n.current).Str("to", d.Target).Msg("Redirect")
		n.redirects = append(n.redirects, d.Target)
		n.current = d.Target
		d = Resolve(n.current, s)
	}
	n.decision = d
	return d
}
