package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// CloudTrailLoggingDisabledRule flags trails that are not currently logging.
// A stopped trail leaves API activity unrecorded, which also covers trails
// whose status could not be determined.
type CloudTrailLoggingDisabledRule struct{}

func (r CloudTrailLoggingDisabledRule) ID() string { return "CLOUDTRAIL_LOGGING_DISABLED" }
func (r CloudTrailLoggingDisabledRule) Name() string {
	return "CloudTrail Trail Not Logging"
}

// Evaluate returns one HIGH issue per trail finding with IsLogging == false.
func (r CloudTrailLoggingDisabledRule) Evaluate(ctx RuleContext) []models.Issue {
	if ctx.Report == nil {
		return nil
	}
	var issues []models.Issue
	for _, t := range ctx.Report.TrailFindings {
		if t.Failed() || t.IsLogging {
			continue
		}
		issues = append(issues, models.Issue{
			ID:             fmt.Sprintf("%s-%s", r.ID(), t.TrailName),
			RuleID:         r.ID(),
			ResourceID:     t.TrailName,
			ResourceType:   models.ResourceCloudTrail,
			Region:         regionOrGlobal(t.Region),
			AccountID:      ctx.AccountID,
			Severity:       models.SeverityHigh,
			Explanation:    "CloudTrail trail is not logging. API activity is not being recorded.",
			Recommendation: "Start logging on the trail (StartLogging) and alert on StopLogging events.",
		})
	}
	return issues
}
