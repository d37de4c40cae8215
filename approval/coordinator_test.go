package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/inputgate/auth"
	"github.com/viant/inputgate/model/prompt"
	"github.com/viant/inputgate/model/run"
	rmemory "github.com/viant/inputgate/service/dao/run/memory"
	"github.com/viant/inputgate/service/notifier"
)

func TestCoordinator_Settle(t *testing.T) {
	ctx := context.Background()
	events := notifier.New()
	var seen []string
	events.Subscribe(notifier.ObserverFunc(func(_ context.Context, event *notifier.Event) {
		seen = append(seen, event.Type)
	}))
	coordinator := NewCoordinator(WithNotifier(events))

	store := rmemory.New()
	registry := NewRegistry(run.New("run-1"), store, &stubEngine{})

	aPrompt, err := prompt.New("release?", prompt.WithParameters(prompt.NewDefinition("choice", "string")))
	assert.NoError(t, err)
	continuation := &stubContinuation{}
	checkpoint := &stubCheckpoint{}
	pending := NewPending("run-1", aPrompt, continuation, checkpoint, WithCoordinator(coordinator))
	assert.NoError(t, registry.Add(ctx, pending))
	coordinator.Created(ctx, pending)

	actual, err := pending.Proceed(auth.WithPrincipal(ctx, "alice"), map[string]interface{}{"choice": "blue"})
	assert.NoError(t, err)
	assert.Equal(t, "blue", actual)

	// the decision reached the checkpoint and the durable record
	assert.Len(t, checkpoint.decisions, 1)
	assert.Equal(t, "alice", checkpoint.decisions[0].Approver)
	persisted, err := store.Load(ctx, "run-1")
	assert.NoError(t, err)
	assert.Empty(t, persisted.PendingIDs)
	assert.Len(t, persisted.Decisions, 1)

	// the computation resumed with the unwrapped value
	successes, failures := continuation.resumed()
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, failures)
	assert.Equal(t, "blue", continuation.successes[0])

	assert.Equal(t, []string{notifier.EventCreated, notifier.EventProceeded}, seen)
}

func TestCoordinator_Interrupt(t *testing.T) {
	ctx := context.Background()
	coordinator := NewCoordinator()

	store := rmemory.New()
	registry := NewRegistry(run.New("run-1"), store, &stubEngine{})

	aPrompt, err := prompt.New("release?")
	assert.NoError(t, err)
	continuation := &stubContinuation{}
	pending := NewPending("run-1", aPrompt, continuation, &stubCheckpoint{}, WithCoordinator(coordinator))
	assert.NoError(t, registry.Add(ctx, pending))

	coordinator.Interrupt(pending)
	// interrupting twice tolerates the conflict of the first abort winning
	coordinator.Interrupt(pending)

	deadline := time.Now().Add(time.Second)
	for !pending.IsSettled() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, pending.IsSettled())
	assert.Equal(t, StateAborted, pending.Outcome().State)
	// system-initiated rejection carries no user
	assert.Equal(t, "", pending.Outcome().Cause.User)

	deadline = time.Now().Add(time.Second)
	for {
		if _, failures := continuation.resumed(); failures == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	_, failures := continuation.resumed()
	assert.Equal(t, 1, failures)
}
