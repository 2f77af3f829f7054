package rules

import (
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// IAMRoleOverlyPermissiveRule flags roles with an attached policy that allows
// every action or every resource.
type IAMRoleOverlyPermissiveRule struct{}

func (r IAMRoleOverlyPermissiveRule) ID() string   { return "IAM_ROLE_OVERLY_PERMISSIVE" }
func (r IAMRoleOverlyPermissiveRule) Name() string { return "IAM Role With Wildcard Allow" }

func (r IAMRoleOverlyPermissiveRule) Evaluate(ctx RuleContext) []models.Issue {
	if ctx.Report == nil {
		return nil
	}
	var issues []models.Issue
	for _, role := range ctx.Report.RoleFindings {
		if role.Failed() || !role.IsOverlyPermissive {
			continue
		}
		explanation := "Role has an Allow statement with a wildcard Action or Resource."
		if len(role.PermissivePolicies) > 0 {
			explanation = fmt.Sprintf("Role has a wildcard Allow statement in: %s.", strings.Join(role.PermissivePolicies, ", "))
		}
		if len(role.UnevaluatedPolicies) > 0 {
			explanation += fmt.Sprintf(" Not evaluated: %s.", strings.Join(role.UnevaluatedPolicies, ", "))
		}
		issues = append(issues, models.Issue{
			ID:             fmt.Sprintf("%s-%s", r.ID(), role.RoleName),
			RuleID:         r.ID(),
			ResourceID:     role.RoleName,
			ResourceType:   models.ResourceIAMRole,
			Region:         "global",
			AccountID:      ctx.AccountID,
			Severity:       models.SeverityHigh,
			Explanation:    explanation,
			Recommendation: "Scope the policy to the specific actions and resource ARNs the role needs.",
		})
	}
	return issues
}
