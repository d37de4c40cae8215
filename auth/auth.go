package auth

// Capability identifies a single permission the authorization collaborator can
// grant to a principal.
type Capability string

const (
	// CapabilityBuild is the baseline capability required to settle an
	// approval that declares no submitter allow-list.
	CapabilityBuild Capability = "job.build"

	// CapabilityCancel allows aborting a pending approval regardless of the
	// submitter allow-list.
	CapabilityCancel Capability = "job.cancel"

	// CapabilityAdminister is the system-wide override, it trumps any
	// submitter allow-list.
	CapabilityAdminister Capability = "administer"
)

// Anonymous is the identity reported when no principal is attached to the
// calling context.
const Anonymous = "anonymous"

// System is the elevated identity used for engine-initiated cleanup such as
// aborting approvals when the surrounding execution is interrupted.
const System = "SYSTEM"

// Service is the authorization collaborator consumed by the approval gate.
// Implementations typically adapt the host application's security realm.
type Service interface {
	// UseSecurity reports whether security is enabled at all, when it
	// returns false every check passes.
	UseSecurity() bool

	// HasCapability reports whether the principal holds the capability.
	HasCapability(principal string, capability Capability) bool

	// GroupsOf returns the group memberships of the principal.
	GroupsOf(principal string) []string

	// Strategy returns the deployment's name comparison policy.
	Strategy() Strategy
}

// Disabled is a Service with security switched off, every principal passes
// every check. It is the default when no authorization collaborator is
// configured.
var Disabled Service = disabled{}

type disabled struct{}

func (disabled) UseSecurity() bool                     { return false }
func (disabled) HasCapability(string, Capability) bool { return true }
func (disabled) GroupsOf(string) []string              { return nil }
func (disabled) Strategy() Strategy                    { return DefaultStrategy() }
