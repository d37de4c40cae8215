package approval

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/inputgate/auth"
	authmem "github.com/viant/inputgate/auth/memory"
	"github.com/viant/inputgate/model/prompt"
	"github.com/viant/inputgate/model/run"
)

type stubContinuation struct {
	mu        sync.Mutex
	successes []interface{}
	failures  []error
}

func (s *stubContinuation) ResumeSuccess(_ context.Context, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes = append(s.successes, value)
	return nil
}

func (s *stubContinuation) ResumeFailure(_ context.Context, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, cause)
	return nil
}

func (s *stubContinuation) resumed() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.successes), len(s.failures)
}

type stubCheckpoint struct {
	mu         sync.Mutex
	decisions  []*run.Decision
	endedPause int
}

func (s *stubCheckpoint) RecordDecision(_ context.Context, decision *run.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, decision)
	return nil
}

func (s *stubCheckpoint) EndPause(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endedPause++
	return nil
}

func newTestPending(t *testing.T, message string, options []prompt.Option, pendingOptions ...PendingOption) (*Pending, *stubContinuation, *stubCheckpoint) {
	aPrompt, err := prompt.New(message, options...)
	assert.NoError(t, err)
	continuation := &stubContinuation{}
	checkpoint := &stubCheckpoint{}
	pending := NewPending("run-1", aPrompt, continuation, checkpoint, pendingOptions...)
	return pending, continuation, checkpoint
}

func TestPending_Proceed_ResumeValue(t *testing.T) {
	testCases := []struct {
		name       string
		parameters []*prompt.Definition
		submitted  map[string]interface{}
		expect     interface{}
	}{
		{
			name:   "no parameters resumes nil",
			expect: nil,
		},
		{
			name:       "single parameter unwraps",
			parameters: []*prompt.Definition{prompt.NewDefinition("choice", "string")},
			submitted:  map[string]interface{}{"choice": "blue"},
			expect:     "blue",
		},
		{
			name: "several parameters stay a map",
			parameters: []*prompt.Definition{
				prompt.NewDefinition("choice", "string"),
				prompt.NewDefinition("force", "bool"),
			},
			submitted: map[string]interface{}{"choice": "blue", "force": "true"},
			expect:    map[string]interface{}{"choice": "blue", "force": true},
		},
		{
			name:       "default fills unsubmitted parameter",
			parameters: []*prompt.Definition{{Name: "choice", DataType: "string", Default: "yes"}},
			expect:     "yes",
		},
	}
	for _, testCase := range testCases {
		pending, continuation, checkpoint := newTestPending(t, "release?", []prompt.Option{prompt.WithParameters(testCase.parameters...)})
		actual, err := pending.Proceed(context.Background(), testCase.submitted)
		if !assert.NoError(t, err, testCase.name) {
			continue
		}
		assert.Equal(t, testCase.expect, actual, testCase.name)
		assert.True(t, pending.IsSettled(), testCase.name)
		successes, failures := continuation.resumed()
		assert.Equal(t, 1, successes, testCase.name)
		assert.Equal(t, 0, failures, testCase.name)
		assert.Len(t, checkpoint.decisions, 1, testCase.name)
		assert.Equal(t, 1, checkpoint.endedPause, testCase.name)
	}
}

func TestPending_Proceed_SubmitterParameter(t *testing.T) {
	pending, _, _ := newTestPending(t, "release?", []prompt.Option{prompt.WithSubmitterParameter("approver")})
	ctx := auth.WithPrincipal(context.Background(), "alice")
	actual, err := pending.Proceed(ctx, nil)
	assert.NoError(t, err)
	// the injected identity is the only entry, so it unwraps to its bare value
	assert.Equal(t, "alice", actual)
	outcome := pending.Outcome()
	assert.Equal(t, "alice", outcome.Approver)
	assert.Equal(t, map[string]interface{}{"approver": "alice"}, outcome.Values)
}

func TestPending_Proceed_UnknownParameter(t *testing.T) {
	pending, continuation, _ := newTestPending(t, "release?", nil)
	_, err := pending.Proceed(context.Background(), map[string]interface{}{"bogus": 1})
	assert.ErrorIs(t, err, ErrUnknownParameter)
	assert.False(t, pending.IsSettled())
	successes, failures := continuation.resumed()
	assert.Equal(t, 0, successes+failures)
}

func TestPending_ProceedValue(t *testing.T) {
	// legacy values settle as supplied, regardless of the declared parameters
	pending, continuation, _ := newTestPending(t, "release?", []prompt.Option{
		prompt.WithParameters(prompt.NewDefinition("choice", "string")),
	})
	actual, err := pending.ProceedValue(context.Background(), "blue")
	assert.NoError(t, err)
	assert.Equal(t, "blue", actual)
	assert.Equal(t, map[string]interface{}{"parameter": "blue"}, pending.Outcome().Values)
	successes, _ := continuation.resumed()
	assert.Equal(t, 1, successes)

	asMap, _, _ := newTestPending(t, "release?", nil)
	actual, err = asMap.ProceedValue(context.Background(), map[string]interface{}{"a": 1, "b": 2})
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, actual)

	asNil, _, _ := newTestPending(t, "release?", nil)
	actual, err = asNil.ProceedValue(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, actual)
}

func TestPending_Abort(t *testing.T) {
	pending, continuation, _ := newTestPending(t, "release?", nil)
	ctx := auth.WithPrincipal(context.Background(), "bob")
	err := pending.Abort(ctx)
	assert.NoError(t, err)

	outcome := pending.Outcome()
	assert.Equal(t, StateAborted, outcome.State)
	assert.Equal(t, "bob", outcome.Cause.User)
	assert.EqualError(t, outcome.Cause, "rejected by bob")

	successes, failures := continuation.resumed()
	assert.Equal(t, 0, successes)
	assert.Equal(t, 1, failures)
	var rejection *Rejection
	assert.ErrorAs(t, continuation.failures[0], &rejection)
}

func TestPending_Conflict(t *testing.T) {
	pending, continuation, _ := newTestPending(t, "release?", nil)
	_, err := pending.Proceed(context.Background(), nil)
	assert.NoError(t, err)

	_, err = pending.Proceed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrConflict)
	err = pending.Abort(context.Background())
	assert.ErrorIs(t, err, ErrConflict)

	successes, failures := continuation.resumed()
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, failures)
}

func TestPending_Authorization(t *testing.T) {
	authorizer := authmem.New()
	authorizer.Grant("builder", auth.CapabilityBuild)
	authorizer.Grant("operator", auth.CapabilityCancel)
	authorizer.Grant("admin", auth.CapabilityAdminister)
	authorizer.Join("carol", "release-managers")

	testCases := []struct {
		name      string
		submitter string
		principal string
		proceed   bool
		cancel    bool
	}{
		{
			name:      "no allow-list needs build capability",
			principal: "builder",
			proceed:   true,
			cancel:    false,
		},
		{
			name:      "no allow-list without build capability",
			principal: "mallory",
			proceed:   false,
			cancel:    false,
		},
		{
			name:      "allow-listed user",
			submitter: "alice",
			principal: "alice",
			proceed:   true,
			cancel:    true,
		},
		{
			name:      "allow-list is case insensitive",
			submitter: "Alice",
			principal: "alice",
			proceed:   true,
			cancel:    true,
		},
		{
			name:      "outside the allow-list",
			submitter: "alice",
			principal: "mallory",
			proceed:   false,
			cancel:    false,
		},
		{
			name:      "group membership matches",
			submitter: "release-managers",
			principal: "carol",
			proceed:   true,
			cancel:    true,
		},
		{
			name:      "administer overrides the allow-list",
			submitter: "alice",
			principal: "admin",
			proceed:   true,
			cancel:    true,
		},
		{
			name:      "cancel capability without settle rights",
			submitter: "alice",
			principal: "operator",
			proceed:   false,
			cancel:    true,
		},
		{
			name:      "system identity",
			submitter: "alice",
			principal: auth.System,
			proceed:   true,
			cancel:    true,
		},
	}
	for _, testCase := range testCases {
		var options []prompt.Option
		if testCase.submitter != "" {
			options = append(options, prompt.WithSubmitter(testCase.submitter))
		}
		pending, _, _ := newTestPending(t, "release?", options, WithAuthorizer(authorizer))
		ctx := auth.WithPrincipal(context.Background(), testCase.principal)

		assert.Equal(t, testCase.proceed, pending.CanSettle(ctx), testCase.name)

		_, err := pending.Proceed(ctx, nil)
		if testCase.proceed {
			assert.NoError(t, err, testCase.name)
			continue
		}
		assert.ErrorIs(t, err, ErrNotAuthorized, testCase.name)

		// aborting is allowed for cancelers even when settling is not
		err = pending.Abort(ctx)
		if testCase.cancel {
			assert.NoError(t, err, testCase.name)
		} else {
			assert.ErrorIs(t, err, ErrNotAuthorized, testCase.name)
		}
	}
}

func TestPending_DisplayName(t *testing.T) {
	pending, _, _ := newTestPending(t, "short", nil)
	assert.Equal(t, "short", pending.DisplayName())

	long, _, _ := newTestPending(t, "a very long approval message that keeps going well past the cut", nil)
	assert.Len(t, long.DisplayName(), 35)
	assert.Equal(t, "...", long.DisplayName()[32:])

	// truncation happens on rune boundaries, never mid-sequence
	multibyte, _, _ := newTestPending(t, strings.Repeat("é", 40), nil)
	assert.Equal(t, strings.Repeat("é", 32)+"...", multibyte.DisplayName())
}

func TestPending_ConcurrentDecisions(t *testing.T) {
	pending, continuation, checkpoint := newTestPending(t, "release?", nil)

	const decided = 32
	errs := make(chan error, decided)
	var wg sync.WaitGroup
	for i := 0; i < decided; i++ {
		wg.Add(1)
		abort := i%2 == 0
		go func() {
			defer wg.Done()
			if abort {
				errs <- pending.Abort(context.Background())
			} else {
				_, err := pending.Proceed(context.Background(), nil)
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	var won, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			won++
		default:
			assert.ErrorIs(t, err, ErrConflict)
			conflicted++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, decided-1, conflicted)

	successes, failures := continuation.resumed()
	assert.Equal(t, 1, successes+failures)
	assert.Len(t, checkpoint.decisions, 1)
}
