// Package auth defines the authorization collaborator interface consumed by
// the approval gate: capability checks, group membership and the deployment's
// name comparison policy. The gate never implements authentication itself, it
// only asks "does principal X hold capability Y".
package auth
