package inputgate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/inputgate/approval"
	amemory "github.com/viant/inputgate/approval/memory"
	"github.com/viant/inputgate/auth"
	authmem "github.com/viant/inputgate/auth/memory"
	"github.com/viant/inputgate/model/prompt"
	"github.com/viant/inputgate/model/run"
	rmemory "github.com/viant/inputgate/service/dao/run/memory"
	"github.com/viant/inputgate/service/notifier"
)

type recordedResume struct {
	mu        sync.Mutex
	successes []interface{}
	failures  []error
}

func (r *recordedResume) ResumeSuccess(_ context.Context, value interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, value)
	return nil
}

func (r *recordedResume) ResumeFailure(_ context.Context, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, cause)
	return nil
}

type noopCheckpoint struct{}

func (noopCheckpoint) RecordDecision(context.Context, *run.Decision) error { return nil }
func (noopCheckpoint) EndPause(context.Context) error                      { return nil }

func TestService_SuspendProceed(t *testing.T) {
	ctx := context.Background()
	service := New()

	var events []string
	service.Notifier().Subscribe(notifier.ObserverFunc(func(_ context.Context, event *notifier.Event) {
		events = append(events, event.Type)
	}))

	aPrompt, err := prompt.New("Deploy to production?", prompt.WithParameters(
		prompt.NewDefinition("choice", "string"),
	))
	assert.NoError(t, err)

	resume := &recordedResume{}
	pending, err := service.Suspend(ctx, "run-1", aPrompt, resume, noopCheckpoint{})
	assert.NoError(t, err)
	assert.True(t, service.IsWaiting(ctx, "run-1"))

	listed, err := service.Pendings(ctx, "run-1")
	assert.NoError(t, err)
	assert.Len(t, listed, 1)

	actual, err := service.Proceed(auth.WithPrincipal(ctx, "alice"), "run-1", pending.ID(), map[string]interface{}{"choice": "blue"})
	assert.NoError(t, err)
	assert.Equal(t, "blue", actual)

	assert.False(t, service.IsWaiting(ctx, "run-1"))
	assert.Equal(t, []interface{}{"blue"}, resume.successes)
	assert.Equal(t, []string{notifier.EventCreated, notifier.EventProceeded}, events)
}

func TestService_Abort(t *testing.T) {
	ctx := context.Background()
	service := New()

	aPrompt, err := prompt.New("Deploy to production?")
	assert.NoError(t, err)
	resume := &recordedResume{}
	pending, err := service.Suspend(ctx, "run-1", aPrompt, resume, noopCheckpoint{})
	assert.NoError(t, err)

	err = service.Abort(auth.WithPrincipal(ctx, "bob"), "run-1", pending.ID())
	assert.NoError(t, err)
	assert.False(t, service.IsWaiting(ctx, "run-1"))
	assert.Len(t, resume.failures, 1)
	var rejection *approval.Rejection
	assert.ErrorAs(t, resume.failures[0], &rejection)
	assert.Equal(t, "bob", rejection.User)
}

func TestService_Authorization(t *testing.T) {
	ctx := context.Background()
	authorizer := authmem.New()
	authorizer.Grant("alice", auth.CapabilityBuild)
	service := New(WithAuthorizer(authorizer))

	aPrompt, err := prompt.New("Deploy to production?", prompt.WithSubmitter("alice"))
	assert.NoError(t, err)
	pending, err := service.Suspend(ctx, "run-1", aPrompt, &recordedResume{}, noopCheckpoint{})
	assert.NoError(t, err)

	_, err = service.Proceed(auth.WithPrincipal(ctx, "mallory"), "run-1", pending.ID(), nil)
	assert.ErrorIs(t, err, approval.ErrNotAuthorized)

	_, err = service.Proceed(auth.WithPrincipal(ctx, "alice"), "run-1", pending.ID(), nil)
	assert.NoError(t, err)
}

func TestService_Recovery(t *testing.T) {
	ctx := context.Background()
	// engine and record store survive the simulated restart
	engine := amemory.New()
	store := rmemory.New()

	before := New(WithEngine(engine), WithRecordDAO(store))
	aPrompt, err := prompt.New("Deploy to production?")
	assert.NoError(t, err)
	resume := &recordedResume{}
	pending, err := before.Suspend(ctx, "run-1", aPrompt, resume, noopCheckpoint{})
	assert.NoError(t, err)

	// a new service over the same durable state reattaches the approval
	after := New(WithEngine(engine), WithRecordDAO(store))
	assert.True(t, after.IsWaiting(ctx, "run-1"))

	recovered, err := after.Pending(ctx, "run-1", pending.ID())
	assert.NoError(t, err)
	assert.Same(t, pending, recovered)

	_, err = after.Proceed(ctx, "run-1", pending.ID(), nil)
	assert.NoError(t, err)
	assert.False(t, after.IsWaiting(ctx, "run-1"))
	assert.Len(t, resume.successes, 1)

	persisted, err := store.Load(ctx, "run-1")
	assert.NoError(t, err)
	assert.Empty(t, persisted.PendingIDs)
	assert.Len(t, persisted.Decisions, 1)
}

func TestService_Interrupt(t *testing.T) {
	ctx := context.Background()
	service := New()

	aPrompt, err := prompt.New("Deploy to production?")
	assert.NoError(t, err)
	resume := &recordedResume{}
	_, err = service.Suspend(ctx, "run-1", aPrompt, resume, noopCheckpoint{})
	assert.NoError(t, err)

	assert.NoError(t, service.Interrupt(ctx, "run-1"))

	deadline := time.Now().Add(time.Second)
	for service.IsWaiting(ctx, "run-1") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.False(t, service.IsWaiting(ctx, "run-1"))
}
