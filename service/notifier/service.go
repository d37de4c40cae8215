package notifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/viant/inputgate/service/messaging"
	"github.com/viant/inputgate/service/messaging/memory"
)

// Observer receives approval lifecycle events in subscription order.
type Observer interface {
	OnEvent(ctx context.Context, event *Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event *Event)

func (f ObserverFunc) OnEvent(ctx context.Context, event *Event) { f(ctx, event) }

// Service fans approval lifecycle events out to subscribed observers and,
// when a queue is configured, publishes them for asynchronous consumers. A
// misbehaving observer never disrupts delivery to the remaining ones.
type Service struct {
	mu        sync.RWMutex
	observers []Observer
	queue     messaging.Queue[Event]
	logger    *slog.Logger
}

// Option customizes the notifier service.
type Option func(*Service)

// WithQueue publishes every event to the supplied queue in addition to the
// synchronous observer fan-out.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(s *Service) { s.queue = queue }
}

// WithMemoryQueue publishes events to a freshly created in-memory queue.
func WithMemoryQueue(config memory.Config) Option {
	return func(s *Service) { s.queue = memory.NewQueue[Event](config) }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a notifier service.
func New(options ...Option) *Service {
	ret := &Service{logger: slog.Default()}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Subscribe appends an observer, observers are invoked in subscription order.
func (s *Service) Subscribe(observer Observer) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Queue exposes the configured event queue, nil when none was set.
func (s *Service) Queue() messaging.Queue[Event] {
	return s.queue
}

// Notify delivers the event to all observers and publishes it to the queue
// when one is configured. Observer panics are recovered and logged so that a
// single faulty subscriber cannot starve the rest.
func (s *Service) Notify(ctx context.Context, event *Event) {
	if event == nil {
		return
	}
	s.mu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.RUnlock()
	for _, observer := range observers {
		s.dispatch(ctx, observer, event)
	}
	if s.queue != nil {
		if err := s.queue.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish approval event", "type", event.Type, "approval", event.ApprovalID, "error", err)
		}
	}
}

func (s *Service) dispatch(ctx context.Context, observer Observer, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("approval event observer panicked", "type", event.Type, "approval", event.ApprovalID, "panic", r)
		}
	}()
	observer.OnEvent(ctx, event)
}
