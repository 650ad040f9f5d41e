package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-test identity provider with a manual change feed.
type fakeSource struct {
	initial      *Session
	listener     func(*Session)
	unsubscribed bool
}

func (f *fakeSource) CurrentSession(ctx context.Context) (*Session, error) {
	return f.initial, nil
}

func (f *fakeSource) OnAuthChange(fn func(*Session)) func() {
	f.listener = fn
	return func() { f.unsubscribed = true }
}

func (f *fakeSource) emit(session *Session) {
	if f.listener != nil {
		f.listener(session)
	}
}

func TestProvider(t *testing.T) {
	t.Run("Should report loading until initial resolution", func(t *testing.T) {
		source := &fakeSource{initial: &Session{AccessToken: "tok"}}
		provider := NewProvider(source)

		assert.True(t, provider.Loading())
		assert.Nil(t, provider.Session())

		provider.Start(context.Background())

		assert.False(t, provider.Loading())
		require.NotNil(t, provider.Session())
		assert.Equal(t, "tok", provider.Session().AccessToken)
	})

	t.Run("Should track auth changes after start", func(t *testing.T) {
		source := &fakeSource{}
		provider := NewProvider(source)
		provider.Start(context.Background())

		assert.Nil(t, provider.Session())

		source.emit(&Session{AccessToken: "fresh"})
		require.NotNil(t, provider.Session())
		assert.Equal(t, "fresh", provider.Session().AccessToken)

		source.emit(nil) // sign-out
		assert.Nil(t, provider.Session())
	})

	t.Run("Should notify subscribers on every change", func(t *testing.T) {
		source := &fakeSource{}
		provider := NewProvider(source)

		var seen []*Session
		provider.Subscribe(func(s *Session) { seen = append(seen, s) })
		provider.Start(context.Background())

		source.emit(&Session{AccessToken: "a"})
		source.emit(&Session{AccessToken: "b"})

		require.Len(t, seen, 3) // initial nil + two changes
		assert.Equal(t, "a", seen[1].AccessToken)
		assert.Equal(t, "b", seen[2].AccessToken)
	})

	t.Run("Close unsubscribes and drops late updates", func(t *testing.T) {
		source := &fakeSource{initial: &Session{AccessToken: "tok"}}
		provider := NewProvider(source)
		provider.Start(context.Background())

		provider.Close()
		assert.True(t, source.unsubscribed, "provider must detach from the change stream")

		// A straggler event from a badly behaved source must not land.
		source.emit(&Session{AccessToken: "stale"})
		require.NotNil(t, provider.Session())
		assert.Equal(t, "tok", provider.Session().AccessToken)
	})
}
