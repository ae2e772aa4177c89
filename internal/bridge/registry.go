package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// AddAdapter registers a and announces it to the gateway.
func (s *Session) AddAdapter(ctx context.Context, a *addon.Adapter) error {
	if a == nil {
		return errors.New("bridge: adapter is required")
	}

	s.mu.Lock()
	if _, exists := s.adapters[a.ID()]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: adapter %s", ErrDuplicate, a.ID())
	}
	s.adapters[a.ID()] = a
	s.mu.Unlock()

	return s.send(ctx, protocol.MsgAdapterAdded, &protocol.AdapterAdded{
		AdapterID:   a.ID(),
		Name:        a.Name(),
		PackageName: a.PackageName(),
	})
}

// AddNotifier registers n and announces it to the gateway.
func (s *Session) AddNotifier(ctx context.Context, n *addon.Notifier) error {
	if n == nil {
		return errors.New("bridge: notifier is required")
	}

	s.mu.Lock()
	if _, exists := s.notifiers[n.ID()]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: notifier %s", ErrDuplicate, n.ID())
	}
	s.notifiers[n.ID()] = n
	s.mu.Unlock()

	return s.send(ctx, protocol.MsgNotifierAdded, &protocol.NotifierAdded{
		NotifierID:  n.ID(),
		Name:        n.Name(),
		PackageName: n.PackageName(),
	})
}

// AddAPIHandler registers h under its package name and announces it.
func (s *Session) AddAPIHandler(ctx context.Context, h addon.APIHandler) error {
	if h == nil {
		return errors.New("bridge: api handler is required")
	}
	pkg := h.PackageName()

	s.mu.Lock()
	if _, exists := s.apiHandlers[pkg]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: api handler %s", ErrDuplicate, pkg)
	}
	s.apiHandlers[pkg] = h
	s.mu.Unlock()

	return s.send(ctx, protocol.MsgAPIHandlerAdded, &protocol.APIHandlerAdded{PackageName: pkg})
}

// Adapter returns the adapter registered under id.
func (s *Session) Adapter(id string) (*addon.Adapter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.adapters[id]
	return a, ok
}

// Adapters returns the registered adapters ordered by id.
func (s *Session) Adapters() []*addon.Adapter {
	s.mu.RLock()
	out := make([]*addon.Adapter, 0, len(s.adapters))
	for _, a := range s.adapters {
		out = append(out, a)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Notifier returns the notifier registered under id.
func (s *Session) Notifier(id string) (*addon.Notifier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifiers[id]
	return n, ok
}

// Notifiers returns the registered notifiers ordered by id.
func (s *Session) Notifiers() []*addon.Notifier {
	s.mu.RLock()
	out := make([]*addon.Notifier, 0, len(s.notifiers))
	for _, n := range s.notifiers {
		out = append(out, n)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// APIHandler returns the API handler registered for packageName.
func (s *Session) APIHandler(packageName string) (addon.APIHandler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.apiHandlers[packageName]
	return h, ok
}

func (s *Session) removeAdapter(id string) {
	s.mu.Lock()
	delete(s.adapters, id)
	s.mu.Unlock()
}

func (s *Session) removeNotifier(id string) {
	s.mu.Lock()
	delete(s.notifiers, id)
	s.mu.Unlock()
}

func (s *Session) removeAPIHandler(packageName string) {
	s.mu.Lock()
	delete(s.apiHandlers, packageName)
	s.mu.Unlock()
}
