package rules

import (
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// ResourceScanFailedRule surfaces every per-resource error entry as an INFO
// issue so audit gaps are visible in table output next to real problems.
// Policies left unevaluated on a permissive role count as a gap too.
type ResourceScanFailedRule struct{}

func (r ResourceScanFailedRule) ID() string   { return "RESOURCE_SCAN_FAILED" }
func (r ResourceScanFailedRule) Name() string { return "Resource Could Not Be Audited" }

func (r ResourceScanFailedRule) Evaluate(ctx RuleContext) []models.Issue {
	if ctx.Report == nil {
		return nil
	}
	var issues []models.Issue
	add := func(id string, rt models.ResourceType, region string, e *models.ResourceError) {
		issues = append(issues, models.Issue{
			ID:             fmt.Sprintf("%s-%s", r.ID(), id),
			RuleID:         r.ID(),
			ResourceID:     id,
			ResourceType:   rt,
			Region:         regionOrGlobal(region),
			AccountID:      ctx.AccountID,
			Severity:       models.SeverityInfo,
			Explanation:    fmt.Sprintf("Audit incomplete (%s): %s", e.Kind, e.Message),
			Recommendation: "Grant the audit principal read access to this resource and re-run the audit.",
		})
	}
	for _, b := range ctx.Report.BucketFindings {
		if b.Failed() {
			add(b.BucketName, models.ResourceS3Bucket, b.Region, b.Error)
		}
	}
	for _, role := range ctx.Report.RoleFindings {
		switch {
		case role.Failed():
			add(role.RoleName, models.ResourceIAMRole, "", role.Error)
		case len(role.UnevaluatedPolicies) > 0:
			add(role.RoleName, models.ResourceIAMRole, "", &models.ResourceError{
				Kind:    models.ErrIncompleteFacts,
				Message: fmt.Sprintf("policies not evaluated: %s", strings.Join(role.UnevaluatedPolicies, ", ")),
			})
		}
	}
	for _, t := range ctx.Report.TrailFindings {
		if t.Failed() {
			add(t.TrailName, models.ResourceCloudTrail, t.Region, t.Error)
		}
	}
	return issues
}
