package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// S3EncryptionMissingRule flags buckets that have no default server-side
// encryption configuration. Objects uploaded without explicit SSE settings
// are stored unencrypted.
type S3EncryptionMissingRule struct{}

func (r S3EncryptionMissingRule) ID() string {
	return "S3_ENCRYPTION_MISSING"
}
func (r S3EncryptionMissingRule) Name() string {
	return "S3 Bucket Without Default Encryption"
}

// Evaluate returns one MEDIUM issue per bucket finding with IsEncrypted == false.
func (r S3EncryptionMissingRule) Evaluate(ctx RuleContext) []models.Issue {
	if ctx.Report == nil {
		return nil
	}
	var issues []models.Issue
	for _, b := range ctx.Report.BucketFindings {
		if b.Failed() || b.IsEncrypted {
			continue
		}
		issues = append(issues, models.Issue{
			ID:             fmt.Sprintf("%s-%s", r.ID(), b.BucketName),
			RuleID:         r.ID(),
			ResourceID:     b.BucketName,
			ResourceType:   models.ResourceS3Bucket,
			Region:         regionOrGlobal(b.Region),
			AccountID:      ctx.AccountID,
			Severity:       models.SeverityMedium,
			Explanation:    fmt.Sprintf("Bucket %q has no default server-side encryption configuration.", b.BucketName),
			Recommendation: "Enable default encryption (SSE-S3 or SSE-KMS) so new objects are encrypted at rest.",
		})
	}
	return issues
}
