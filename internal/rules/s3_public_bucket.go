package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// S3PublicBucketRule flags buckets whose ACL grants access to everyone or to
// any authenticated AWS principal.
type S3PublicBucketRule struct{}

func (r S3PublicBucketRule) ID() string   { return "S3_PUBLIC_BUCKET" }
func (r S3PublicBucketRule) Name() string { return "S3 Bucket With Public ACL Grant" }

// Evaluate returns one HIGH issue per bucket finding with IsPublic == true.
// Failed entries are skipped; ResourceScanFailedRule reports them.
func (r S3PublicBucketRule) Evaluate(ctx RuleContext) []models.Issue {
	if ctx.Report == nil {
		return nil
	}
	var issues []models.Issue
	for _, b := range ctx.Report.BucketFindings {
		if b.Failed() || !b.IsPublic {
			continue
		}
		issues = append(issues, models.Issue{
			ID:             fmt.Sprintf("%s-%s", r.ID(), b.BucketName),
			RuleID:         r.ID(),
			ResourceID:     b.BucketName,
			ResourceType:   models.ResourceS3Bucket,
			Region:         regionOrGlobal(b.Region),
			AccountID:      ctx.AccountID,
			Severity:       models.SeverityHigh,
			Explanation:    "Bucket ACL grants access to the AllUsers or AuthenticatedUsers group.",
			Recommendation: "Remove the public group grants from the bucket ACL and enable S3 Block Public Access.",
		})
	}
	return issues
}

// regionOrGlobal returns "global" for resources collected without a region.
func regionOrGlobal(region string) string {
	if region == "" {
		return "global"
	}
	return region
}
