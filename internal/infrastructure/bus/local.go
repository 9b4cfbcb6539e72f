// Package bus connects the panel to a privileged process living in the same
// binary.
package bus

import (
	"context"

	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/ports"
)

// Handler answers one request. background.Service satisfies it.
type Handler interface {
	Handle(context.Context, domain.Request) domain.Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(context.Context, domain.Request) domain.Response

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, req domain.Request) domain.Response {
	return f(ctx, req)
}

// Local is an in-process ports.Messenger. Every Send runs the handler on its
// own goroutine and waits for its single reply.
type Local struct {
	handler Handler
}

// NewLocal returns a messenger delivering to h.
func NewLocal(h Handler) *Local {
	return &Local{handler: h}
}

// Send implements ports.Messenger. When ctx ends first the handler keeps its
// cancelled context and its reply is dropped.
func (l *Local) Send(ctx context.Context, req domain.Request) (domain.Response, error) {
	if err := ctx.Err(); err != nil {
		return domain.Response{}, err
	}
	reply := make(chan domain.Response, 1)
	go func() {
		reply <- l.handler.Handle(ctx, req)
	}()

	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return domain.Response{}, ctx.Err()
	}
}

// SettingsFeed delivers settings snapshots from a local store.
type SettingsFeed struct {
	Store ports.SettingsStore
}

// WatchSettings implements ports.SettingsWatcher. It reports the current view
// immediately, then every change, until ctx is done.
func (f SettingsFeed) WatchSettings(ctx context.Context, fn func(domain.SettingsView)) error {
	settings, err := f.Store.Load(ctx)
	if err != nil {
		return err
	}
	fn(settings.View())

	unsubscribe := f.Store.Subscribe(func(s domain.Settings) {
		fn(s.View())
	})
	defer unsubscribe()

	<-ctx.Done()
	return nil
}

var (
	_ ports.Messenger       = (*Local)(nil)
	_ ports.SettingsWatcher = SettingsFeed{}
)
