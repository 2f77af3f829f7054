package awsposture

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// TrailDirectory enumerates CloudTrail trails across the audited regions and
// fetches their logging status from each trail's home region.
type TrailDirectory struct {
	client  cloudTrailAPIClient
	regions []string
}

// DescribeTrails returns the account's own trails (shadow copies excluded),
// deduplicated by ARN and ordered by region then name. A failure in any
// region fails the whole enumeration, since silently skipping a region
// would hide its trails.
func (d *TrailDirectory) DescribeTrails(ctx context.Context) ([]models.TrailRef, error) {
	seen := make(map[string]bool)
	var refs []models.TrailRef
	for _, region := range d.regions {
		out, err := d.client.DescribeTrails(ctx, &cloudtrailsvc.DescribeTrailsInput{
			IncludeShadowTrails: aws.Bool(false),
		}, trailRegion(region))
		if err != nil {
			return nil, wrap(fmt.Sprintf("cloudtrail:DescribeTrails %s", region), err)
		}
		for _, t := range out.TrailList {
			ref := models.TrailRef{
				Name:       aws.ToString(t.Name),
				ARN:        aws.ToString(t.TrailARN),
				HomeRegion: aws.ToString(t.HomeRegion),
			}
			if ref.HomeRegion == "" {
				ref.HomeRegion = region
			}
			key := ref.ARN
			if key == "" {
				key = ref.HomeRegion + "/" + ref.Name
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, ref)
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].HomeRegion != refs[j].HomeRegion {
			return refs[i].HomeRegion < refs[j].HomeRegion
		}
		return refs[i].Name < refs[j].Name
	})
	return refs, nil
}

// GetStatus returns the trail's logging flag, or nil when the response does
// not carry one.
func (d *TrailDirectory) GetStatus(ctx context.Context, ref models.TrailRef) (*bool, error) {
	name := ref.ARN
	if name == "" {
		name = ref.Name
	}
	out, err := d.client.GetTrailStatus(ctx, &cloudtrailsvc.GetTrailStatusInput{
		Name: aws.String(name),
	}, trailRegion(ref.HomeRegion))
	if err != nil {
		return nil, wrap(fmt.Sprintf("cloudtrail:GetTrailStatus %s", ref.Name), err)
	}
	return out.IsLogging, nil
}

func trailRegion(region string) func(*cloudtrailsvc.Options) {
	return func(o *cloudtrailsvc.Options) {
		if region != "" {
			o.Region = region
		}
	}
}
