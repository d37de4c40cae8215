// Package inputgate provides a durable human-approval gate for suspended
// computations.
//
// A run pauses at a checkpoint and registers a pending approval describing
// what it is waiting for; an operator later proceeds or aborts it, exactly
// once, and the suspended computation resumes with the decision. The gate is
// built from pluggable layers:
//
//   - model/prompt – the immutable request description and its parameters
//   - approval     – pending approvals, the per-run registry and settlement
//   - auth         – who may settle or cancel a given approval
//   - service/dao  – durable run records (memory or file system)
//
// Inputgate is designed to be embedded in host applications. End-users
// typically interact via the high-level Service façade exposed by the root
// package:
//
//	srv := inputgate.New()
//	pr, _ := prompt.New("Deploy to production?")
//	pending, _ := srv.Suspend(ctx, runID, pr, continuation, checkpoint)
//	_, _ = srv.Proceed(ctx, runID, pending.ID(), nil)
//
// For more details see the README and individual sub-packages.
package inputgate
