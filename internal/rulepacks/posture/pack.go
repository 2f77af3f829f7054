// Package posture provides the default issue rule pack for a posture audit.
// The engine registers every rule returned by New into a DefaultRuleRegistry
// and evaluates them once against the assembled report.
//
// Adding a rule:
//  1. Implement it in internal/rules/ following the Rule interface.
//  2. Append it to the slice returned by New().
package posture

import "github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"

// New returns the posture rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.S3PublicBucketRule{},            // HIGH:   ACL grants AllUsers / AuthenticatedUsers
		rules.IAMRoleOverlyPermissiveRule{},   // HIGH:   wildcard Allow statement
		rules.CloudTrailLoggingDisabledRule{}, // HIGH:   trail not logging
		rules.S3EncryptionMissingRule{},       // MEDIUM: no default SSE
		rules.ResourceScanFailedRule{},        // INFO:   per-resource error entry
	}
}
