package memory

import (
	"sync"

	"github.com/viant/inputgate/auth"
)

// Service is an in-memory auth.Service implementation used by tests and by
// embedders that do not bridge to a real security realm.
type Service struct {
	mu           sync.RWMutex
	security     bool
	capabilities map[string]map[auth.Capability]bool
	groups       map[string][]string
	strategy     auth.Strategy
}

// Option customizes the in-memory service.
type Option func(*Service)

// WithSecurityDisabled turns security off, every check passes.
func WithSecurityDisabled() Option {
	return func(s *Service) { s.security = false }
}

// WithStrategy overrides the default case-insensitive comparison policy.
func WithStrategy(strategy auth.Strategy) Option {
	return func(s *Service) { s.strategy = strategy }
}

// New creates an in-memory authorization service with security enabled.
func New(options ...Option) *Service {
	ret := &Service{
		security:     true,
		capabilities: make(map[string]map[auth.Capability]bool),
		groups:       make(map[string][]string),
		strategy:     auth.DefaultStrategy(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Grant gives the principal the supplied capabilities.
func (s *Service) Grant(principal string, capabilities ...auth.Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	granted, ok := s.capabilities[principal]
	if !ok {
		granted = make(map[auth.Capability]bool)
		s.capabilities[principal] = granted
	}
	for _, capability := range capabilities {
		granted[capability] = true
	}
}

// Join adds the principal to the supplied groups.
func (s *Service) Join(principal string, groups ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[principal] = append(s.groups[principal], groups...)
}

func (s *Service) UseSecurity() bool { return s.security }

func (s *Service) HasCapability(principal string, capability auth.Capability) bool {
	if !s.security || principal == auth.System {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capabilities[principal][capability]
}

func (s *Service) GroupsOf(principal string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.groups[principal]...)
}

func (s *Service) Strategy() auth.Strategy { return s.strategy }

var _ auth.Service = (*Service)(nil)
