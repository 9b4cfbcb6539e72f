package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/snapask/internal/domain"
)

func TestLocalSendReturnsHandlerReply(t *testing.T) {
	bus := NewLocal(HandlerFunc(func(_ context.Context, req domain.Request) domain.Response {
		return domain.OK(string(req.Action) + ":" + req.WindowID)
	}))

	resp, err := bus.Send(context.Background(), domain.Request{Action: domain.ActionCaptureVisibleTab, WindowID: "w1"})
	require.NoError(t, err)

	var got string
	require.NoError(t, resp.Decode(&got))
	assert.Equal(t, "CAPTURE_VISIBLE_TAB:w1", got)
}

func TestLocalSendHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	handlerCtx := make(chan context.Context, 1)
	bus := NewLocal(HandlerFunc(func(ctx context.Context, _ domain.Request) domain.Response {
		handlerCtx <- ctx
		<-release
		return domain.OK(nil)
	}))
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := bus.Send(ctx, domain.Request{Action: domain.ActionAnalyzeImage})
		done <- err
	}()

	hctx := <-handlerCtx
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Send did not return after cancellation")
	}
	assert.Error(t, hctx.Err(), "handler must observe the cancellation")
}

func TestLocalSendRejectsDoneContext(t *testing.T) {
	called := false
	bus := NewLocal(HandlerFunc(func(context.Context, domain.Request) domain.Response {
		called = true
		return domain.OK(nil)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bus.Send(ctx, domain.Request{Action: domain.ActionOpenOptions})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSettingsFeedDeliversInitialAndChanges(t *testing.T) {
	store := &fakeStore{settings: domain.Settings{APIKey: "sk"}.Normalize()}
	ctx, cancel := context.WithCancel(context.Background())

	views := make(chan domain.SettingsView, 4)
	done := make(chan error, 1)
	go func() {
		done <- SettingsFeed{Store: store}.WatchSettings(ctx, func(v domain.SettingsView) { views <- v })
	}()

	first := <-views
	assert.True(t, first.HasKey)
	assert.True(t, first.IsEnabled)

	require.Eventually(t, store.subscribed, time.Second, 5*time.Millisecond)
	store.publish(domain.Settings{IsEnabled: domain.Bool(false)}.Normalize())
	second := <-views
	assert.False(t, second.IsEnabled)
	assert.False(t, second.HasKey)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, store.subscribed(), "subscription must be released")
}

type fakeStore struct {
	mu       sync.Mutex
	settings domain.Settings
	fn       func(domain.Settings)
}

func (f *fakeStore) Load(context.Context) (domain.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings, nil
}

func (f *fakeStore) Save(context.Context, domain.Settings) error { return nil }

func (f *fakeStore) Subscribe(fn func(domain.Settings)) func() {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.fn = nil
		f.mu.Unlock()
	}
}

func (f *fakeStore) subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fn != nil
}

func (f *fakeStore) publish(s domain.Settings) {
	f.mu.Lock()
	f.settings = s
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}
