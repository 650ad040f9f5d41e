package auth

import (
	"context"
	"log"
	"sync"
)

// UserIdentity identifies the signed-in user as reported by the
// identity provider.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session holds the credentials for the current signed-in user. It is
// kept in memory only and replaced wholesale on every auth change.
type Session struct {
	AccessToken string       `json:"access_token"`
	User        UserIdentity `json:"user"`
}

// SessionSource is the external identity provider: it resolves the
// existing session once and notifies on later auth changes (sign-in,
// token refresh, sign-out). The returned function unsubscribes.
type SessionSource interface {
	CurrentSession(ctx context.Context) (*Session, error)
	OnAuthChange(fn func(*Session)) (unsubscribe func())
}

// Provider owns the current session for the lifetime of the app. It
// resolves the initial session asynchronously; until that finishes,
// Loading reports true and consumers must not derive roles or render
// session-dependent state.
type Provider struct {
	source SessionSource

	mu          sync.RWMutex
	session     *Session
	loading     bool
	subscribers []func(*Session)
	unsubscribe func()
	closed      bool
}

// NewProvider creates a provider in the loading state. Start must be
// called before the provider reports a session.
func NewProvider(source SessionSource) *Provider {
	return &Provider{
		source:  source,
		loading: true,
	}
}

// Start resolves the initial session and subscribes to auth changes.
// It blocks until the initial resolution completes; callers wanting
// the async behaviour run it in a goroutine and watch Loading.
func (p *Provider) Start(ctx context.Context) {
	session, err := p.source.CurrentSession(ctx)
	if err != nil {
		// No session is a valid initial state; the user signs in later.
		log.Printf("Session resolution failed: %v", err)
		session = nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.session = session
	p.loading = false
	p.unsubscribe = p.source.OnAuthChange(p.setSession)
	subs := append([]func(*Session){}, p.subscribers...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}

// Session returns the current session, or nil when signed out or still
// loading.
func (p *Provider) Session() *Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// Loading reports whether the initial session is still being resolved.
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Subscribe registers a listener invoked on every session change.
func (p *Provider) Subscribe(fn func(*Session)) {
	p.mu.Lock()
	p.subscribers = append(p.subscribers, fn)
	p.mu.Unlock()
}

// Close detaches the provider from the auth-change stream. Updates
// arriving after Close are dropped; skipping this leaks stale updates
// into torn-down consumers.
func (p *Provider) Close() {
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.closed = true
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (p *Provider) setSession(session *Session) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.session = session
	subs := append([]func(*Session){}, p.subscribers...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}
