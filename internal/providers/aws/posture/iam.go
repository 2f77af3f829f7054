package awsposture

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// IdentityDirectory enumerates IAM roles and their policies. IAM is a global
// service, so every call goes to the client's home region.
type IdentityDirectory struct {
	client iamAPIClient
}

// ListRoles returns every role in the account. The ListRoles paginator
// handles accounts with many roles.
func (d *IdentityDirectory) ListRoles(ctx context.Context) ([]models.RoleRef, error) {
	paginator := iamsvc.NewListRolesPaginator(d.client, &iamsvc.ListRolesInput{})
	var roles []models.RoleRef
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrap("iam:ListRoles", err)
		}
		for _, r := range page.Roles {
			roles = append(roles, models.RoleRef{
				Name: aws.ToString(r.RoleName),
				ARN:  aws.ToString(r.Arn),
			})
		}
	}
	return roles, nil
}

// ListAttachedPolicies returns the managed policies attached to the role
// followed by its inline policies. Documents are not fetched here.
func (d *IdentityDirectory) ListAttachedPolicies(ctx context.Context, role models.RoleRef) ([]models.PolicyRef, error) {
	var refs []models.PolicyRef

	attached := iamsvc.NewListAttachedRolePoliciesPaginator(d.client, &iamsvc.ListAttachedRolePoliciesInput{
		RoleName: aws.String(role.Name),
	})
	for attached.HasMorePages() {
		page, err := attached.NextPage(ctx)
		if err != nil {
			return nil, wrap(fmt.Sprintf("iam:ListAttachedRolePolicies %s", role.Name), err)
		}
		for _, p := range page.AttachedPolicies {
			refs = append(refs, models.PolicyRef{
				Name: aws.ToString(p.PolicyName),
				ARN:  aws.ToString(p.PolicyArn),
				Kind: models.PolicyManaged,
			})
		}
	}

	inline := iamsvc.NewListRolePoliciesPaginator(d.client, &iamsvc.ListRolePoliciesInput{
		RoleName: aws.String(role.Name),
	})
	for inline.HasMorePages() {
		page, err := inline.NextPage(ctx)
		if err != nil {
			return nil, wrap(fmt.Sprintf("iam:ListRolePolicies %s", role.Name), err)
		}
		for _, name := range page.PolicyNames {
			refs = append(refs, models.PolicyRef{Name: name, Kind: models.PolicyInline})
		}
	}
	return refs, nil
}

// GetPolicyDocument returns the decoded JSON document of ref. Managed
// policies resolve through their default version; inline policies are read
// from the role directly.
func (d *IdentityDirectory) GetPolicyDocument(ctx context.Context, role models.RoleRef, ref models.PolicyRef) ([]byte, error) {
	var encoded string
	switch ref.Kind {
	case models.PolicyInline:
		out, err := d.client.GetRolePolicy(ctx, &iamsvc.GetRolePolicyInput{
			RoleName:   aws.String(role.Name),
			PolicyName: aws.String(ref.Name),
		})
		if err != nil {
			return nil, wrap(fmt.Sprintf("iam:GetRolePolicy %s/%s", role.Name, ref.Name), err)
		}
		encoded = aws.ToString(out.PolicyDocument)
	default:
		pol, err := d.client.GetPolicy(ctx, &iamsvc.GetPolicyInput{PolicyArn: aws.String(ref.ARN)})
		if err != nil {
			return nil, wrap(fmt.Sprintf("iam:GetPolicy %s", ref.ARN), err)
		}
		if pol.Policy == nil || pol.Policy.DefaultVersionId == nil {
			return nil, &models.FetchError{
				Kind: models.ErrIncompleteFacts,
				Op:   fmt.Sprintf("iam:GetPolicy %s", ref.ARN),
				Err:  fmt.Errorf("policy has no default version"),
			}
		}
		ver, err := d.client.GetPolicyVersion(ctx, &iamsvc.GetPolicyVersionInput{
			PolicyArn: aws.String(ref.ARN),
			VersionId: pol.Policy.DefaultVersionId,
		})
		if err != nil {
			return nil, wrap(fmt.Sprintf("iam:GetPolicyVersion %s", ref.ARN), err)
		}
		if ver.PolicyVersion != nil {
			encoded = aws.ToString(ver.PolicyVersion.Document)
		}
	}

	if encoded == "" {
		return nil, &models.FetchError{
			Kind: models.ErrIncompleteFacts,
			Op:   fmt.Sprintf("policy document %s", ref.Name),
			Err:  fmt.Errorf("empty document"),
		}
	}
	// IAM returns policy documents URL-encoded (RFC 3986).
	doc, err := url.QueryUnescape(encoded)
	if err != nil {
		return nil, &models.FetchError{
			Kind: models.ErrMalformed,
			Op:   fmt.Sprintf("decode policy document %s", ref.Name),
			Err:  err,
		}
	}
	return []byte(doc), nil
}
