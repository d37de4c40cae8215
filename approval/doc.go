// Package approval implements the durable human-approval gate: pending
// approvals awaiting a decision, the per-execution registry that persists
// their identifiers and reattaches them to live handles after a restart, and
// the coordinator that applies the side effects of a settlement exactly
// once.
package approval
