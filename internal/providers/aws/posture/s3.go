package awsposture

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// BucketDirectory enumerates S3 buckets and fetches their ACL and default
// encryption configuration. Per-bucket calls are routed to the bucket's own
// region to avoid cross-region redirects; an empty region falls back to the
// client's home region.
type BucketDirectory struct {
	client s3APIClient
}

// ListBuckets returns every bucket owned by the account. Region is taken
// from the listing when S3 reports it and is left empty otherwise; callers
// resolve it per bucket with BucketRegion.
func (d *BucketDirectory) ListBuckets(ctx context.Context) ([]models.BucketRef, error) {
	paginator := s3svc.NewListBucketsPaginator(d.client, &s3svc.ListBucketsInput{})
	var refs []models.BucketRef
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrap("s3:ListBuckets", err)
		}
		for _, b := range page.Buckets {
			refs = append(refs, models.BucketRef{
				Name:   aws.ToString(b.Name),
				Region: aws.ToString(b.BucketRegion),
			})
		}
	}
	return refs, nil
}

// BucketRegion resolves a bucket's region through GetBucketLocation.
func (d *BucketDirectory) BucketRegion(ctx context.Context, ref models.BucketRef) (string, error) {
	out, err := d.client.GetBucketLocation(ctx, &s3svc.GetBucketLocationInput{Bucket: aws.String(ref.Name)})
	if err != nil {
		return "", wrap(fmt.Sprintf("s3:GetBucketLocation %s", ref.Name), err)
	}
	return normalizeLocation(out.LocationConstraint), nil
}

// normalizeLocation maps legacy location constraints onto region names.
// An empty constraint means us-east-1; "EU" is the pre-2013 alias of eu-west-1.
func normalizeLocation(c s3types.BucketLocationConstraint) string {
	switch c {
	case "":
		return "us-east-1"
	case s3types.BucketLocationConstraintEu:
		return "eu-west-1"
	}
	return string(c)
}

// GetACL returns the grantees of the bucket ACL.
func (d *BucketDirectory) GetACL(ctx context.Context, ref models.BucketRef) ([]models.Grantee, error) {
	out, err := d.client.GetBucketAcl(ctx, &s3svc.GetBucketAclInput{
		Bucket: aws.String(ref.Name),
	}, s3Region(ref.Region))
	if err != nil {
		return nil, wrap(fmt.Sprintf("s3:GetBucketAcl %s", ref.Name), err)
	}

	grantees := make([]models.Grantee, 0, len(out.Grants))
	for _, g := range out.Grants {
		if g.Grantee == nil {
			continue
		}
		id := aws.ToString(g.Grantee.ID)
		if id == "" {
			id = aws.ToString(g.Grantee.EmailAddress)
		}
		grantees = append(grantees, models.Grantee{
			Type:       string(g.Grantee.Type),
			ID:         id,
			URI:        aws.ToString(g.Grantee.URI),
			Permission: string(g.Permission),
		})
	}
	return grantees, nil
}

// GetEncryption returns the default encryption rules of the bucket.
// ServerSideEncryptionConfigurationNotFoundError is the "not configured"
// answer and yields (nil, nil); every other failure is an error.
func (d *BucketDirectory) GetEncryption(ctx context.Context, ref models.BucketRef) ([]models.EncryptionRule, error) {
	out, err := d.client.GetBucketEncryption(ctx, &s3svc.GetBucketEncryptionInput{
		Bucket: aws.String(ref.Name),
	}, s3Region(ref.Region))
	if err != nil {
		if isErrorCode(err, "ServerSideEncryptionConfigurationNotFoundError") {
			return nil, nil
		}
		return nil, wrap(fmt.Sprintf("s3:GetBucketEncryption %s", ref.Name), err)
	}
	if out.ServerSideEncryptionConfiguration == nil {
		return nil, nil
	}

	var rules []models.EncryptionRule
	for _, r := range out.ServerSideEncryptionConfiguration.Rules {
		sse := r.ApplyServerSideEncryptionByDefault
		if sse == nil {
			continue
		}
		rules = append(rules, models.EncryptionRule{
			Algorithm: string(sse.SSEAlgorithm),
			KMSKeyID:  aws.ToString(sse.KMSMasterKeyID),
		})
	}
	return rules, nil
}

func s3Region(region string) func(*s3svc.Options) {
	return func(o *s3svc.Options) {
		if region != "" {
			o.Region = region
		}
	}
}
