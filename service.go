package inputgate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/viant/inputgate/approval"
	amemory "github.com/viant/inputgate/approval/memory"
	"github.com/viant/inputgate/auth"
	"github.com/viant/inputgate/model/prompt"
	"github.com/viant/inputgate/model/run"
	"github.com/viant/inputgate/service/dao"
	rfs "github.com/viant/inputgate/service/dao/run/fs"
	rmemory "github.com/viant/inputgate/service/dao/run/memory"
	"github.com/viant/inputgate/service/notifier"
	"github.com/viant/x"
)

// Service is the high-level façade over the approval gate. It owns one
// registry per execution, lazily opened over the persisted run record, and
// exposes the create, inspect, proceed and abort operations.
type Service struct {
	config      *Config
	engine      approval.Engine
	authorizer  auth.Service
	recordDAO   dao.Service[string, run.Record]
	notifier    *notifier.Service
	coordinator *approval.Coordinator
	types       *prompt.Types
	converter   *prompt.Converter
	logger      *slog.Logger

	mu         sync.Mutex
	registries map[string]*approval.Registry
}

// New creates a service, defaults cover embedded use: an in-memory engine,
// in-memory run records and security disabled.
func New(options ...Option) *Service {
	ret := &Service{registries: make(map[string]*approval.Registry)}
	ret.init(options)
	return ret
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	prompt.AllowUnsafeIDs = s.config.AllowUnsafeIDs
	coordinatorOptions := []approval.CoordinatorOption{
		approval.WithNotifier(s.notifier),
		approval.WithCoordinatorLogger(s.logger),
	}
	if tracker, ok := s.engine.(approval.Tracker); ok {
		coordinatorOptions = append(coordinatorOptions, approval.WithTracker(tracker))
	}
	s.coordinator = approval.NewCoordinator(coordinatorOptions...)
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.logger == nil {
		s.logger = s.config.Logger()
	}
	if s.engine == nil {
		s.engine = amemory.New()
	}
	if s.authorizer == nil {
		s.authorizer = auth.Disabled
	}
	if s.recordDAO == nil {
		if s.config.StoreBaseURL != "" {
			store, err := rfs.New(s.config.StoreBaseURL)
			if err != nil {
				s.logger.Warn("failed to open run record store, falling back to memory", "baseURL", s.config.StoreBaseURL, "error", err)
			} else {
				s.recordDAO = store
			}
		}
		if s.recordDAO == nil {
			s.recordDAO = rmemory.New()
		}
	}
	if s.notifier == nil {
		s.notifier = notifier.New(notifier.WithLogger(s.logger))
	}
	if s.types == nil {
		s.types = prompt.NewTypes()
	}
	if s.converter == nil {
		s.converter = prompt.NewConverter(s.types)
	}
}

// RegisterTypes registers parameter data types with the converter registry.
func (s *Service) RegisterTypes(types ...*x.Type) {
	for i := range types {
		s.types.Register(types[i])
	}
}

// Notifier exposes the lifecycle event service for subscription.
func (s *Service) Notifier() *notifier.Service { return s.notifier }

// Registry returns the approval registry of a run, opening it over the
// persisted record when the run is seen for the first time.
func (s *Service) Registry(ctx context.Context, runID string) (*approval.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if registry, ok := s.registries[runID]; ok {
		return registry, nil
	}
	registryOptions := []approval.RegistryOption{
		approval.WithLoadTimeout(s.config.ReconcileTimeout.Duration()),
		approval.WithLogger(s.logger),
	}
	record, err := s.recordDAO.Load(ctx, runID)
	var registry *approval.Registry
	switch {
	case err == nil:
		registry = approval.OpenRegistry(record, s.recordDAO, s.engine, registryOptions...)
	case errors.Is(err, dao.ErrNotFound):
		registry = approval.NewRegistry(run.New(runID), s.recordDAO, s.engine, registryOptions...)
	default:
		return nil, err
	}
	s.registries[runID] = registry
	return registry, nil
}

// Suspend creates a pending approval for a suspended computation, registers
// it durably and announces it. The continuation is resumed once a decision
// settles the approval.
func (s *Service) Suspend(ctx context.Context, runID string, pr *prompt.Prompt, continuation approval.Continuation, checkpoint approval.Checkpoint) (*approval.Pending, error) {
	registry, err := s.Registry(ctx, runID)
	if err != nil {
		return nil, err
	}
	pending := approval.NewPending(runID, pr, continuation, checkpoint,
		approval.WithAuthorizer(s.authorizer),
		approval.WithConverter(s.converter),
		approval.WithCoordinator(s.coordinator),
	)
	if err := registry.Add(ctx, pending); err != nil {
		return nil, err
	}
	s.coordinator.Created(ctx, pending)
	s.logger.Info("approval pending", "run", runID, "approval", pending.ID(), "message", pending.Prompt().Message)
	return pending, nil
}

// Pendings lists the live pending approvals of a run in creation order.
func (s *Service) Pendings(ctx context.Context, runID string) ([]*approval.Pending, error) {
	registry, err := s.Registry(ctx, runID)
	if err != nil {
		return nil, err
	}
	return registry.List(ctx), nil
}

// Pending resolves one pending approval by identifier.
func (s *Service) Pending(ctx context.Context, runID, approvalID string) (*approval.Pending, error) {
	registry, err := s.Registry(ctx, runID)
	if err != nil {
		return nil, err
	}
	return registry.Get(ctx, approvalID)
}

// IsWaiting reports whether the run has any approval awaiting a decision.
func (s *Service) IsWaiting(ctx context.Context, runID string) bool {
	registry, err := s.Registry(ctx, runID)
	if err != nil {
		s.logger.Warn("failed to open approval registry", "run", runID, "error", err)
		return false
	}
	return registry.IsWaiting(ctx)
}

// Proceed settles one approval positively with the submitted values on
// behalf of the principal attached to ctx.
func (s *Service) Proceed(ctx context.Context, runID, approvalID string, values map[string]interface{}) (interface{}, error) {
	pending, err := s.Pending(ctx, runID, approvalID)
	if err != nil {
		return nil, err
	}
	return pending.Proceed(ctx, values)
}

// Abort settles one approval negatively on behalf of the principal attached
// to ctx.
func (s *Service) Abort(ctx context.Context, runID, approvalID string) error {
	pending, err := s.Pending(ctx, runID, approvalID)
	if err != nil {
		return err
	}
	return pending.Abort(ctx)
}

// Interrupt aborts every pending approval of a run on behalf of the system,
// used when the run itself is being stopped. The aborts are scheduled
// asynchronously, an approval decided concurrently by a user wins the race.
func (s *Service) Interrupt(ctx context.Context, runID string) error {
	registry, err := s.Registry(ctx, runID)
	if err != nil {
		return err
	}
	// listing may reconcile and block, keep it off the caller's thread
	go func() {
		for _, pending := range registry.List(context.Background()) {
			s.coordinator.Interrupt(pending)
		}
	}()
	return nil
}
