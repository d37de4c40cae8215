// Package prompt models the immutable description of a human-approval
// checkpoint: the message shown to the approver, the URL-safe identifier, the
// submitter policy and the declared input parameters with their typed value
// conversion.
package prompt
