package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// Well-known S3 group grantee URIs that make a bucket readable by anyone.
const (
	AllUsersURI           = "http://acs.amazonaws.com/groups/global/AllUsers"
	AuthenticatedUsersURI = "http://acs.amazonaws.com/groups/global/AuthenticatedUsers"
)

var (
	// ErrACLUnavailable is returned when a BucketFact carries no ACL data.
	// A missing ACL must never be read as "not public".
	ErrACLUnavailable = errors.New("bucket ACL was not retrieved")

	// ErrPolicyDocumentUnavailable is returned when an attached policy has
	// no document. A missing document must never be read as "not permissive".
	ErrPolicyDocumentUnavailable = errors.New("policy document was not retrieved")
)

// EvaluateBucketExposure derives a BucketFinding from raw bucket facts.
//
// IsPublic is true iff any grantee denotes the AllUsers or AuthenticatedUsers
// group. IsEncrypted is true iff the default encryption configuration has at
// least one rule.
func EvaluateBucketExposure(fact models.BucketFact) (models.BucketFinding, error) {
	finding := models.BucketFinding{BucketName: fact.Name, Region: fact.Region}
	if !fact.ACLRetrieved {
		return finding, fmt.Errorf("bucket %q: %w", fact.Name, ErrACLUnavailable)
	}
	for _, g := range fact.Grantees {
		if IsPublicGrantee(g) {
			finding.IsPublic = true
			break
		}
	}
	finding.IsEncrypted = len(fact.Encryption) > 0
	return finding, nil
}

// IsPublicGrantee reports whether g is one of the global "all users" groups.
// The identifier is compared case-insensitively and may be either the full
// group URI or the bare group name.
func IsPublicGrantee(g models.Grantee) bool {
	id := g.URI
	if id == "" {
		id = g.ID
	}
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return false
	}
	for _, group := range []string{"allusers", "authenticatedusers"} {
		if id == group || strings.HasSuffix(id, "/"+group) {
			return true
		}
	}
	return false
}

// EvaluateRolePermissiveness derives a RoleFinding from raw role facts.
//
// A role is overly permissive when any attached policy has an Allow statement
// with a wildcard Action or Resource. A role with no policies is not
// permissive. Every policy is evaluated even after one fails: a permissive
// verdict stands with the unusable policies listed in UnevaluatedPolicies.
// Without such a verdict, the first unusable policy is returned as an error
// wrapping ErrPolicyDocumentUnavailable or ErrMalformedPolicy, and the
// finding carries only RoleName and UnevaluatedPolicies.
func EvaluateRolePermissiveness(fact models.RoleFact, mode WildcardMode) (models.RoleFinding, error) {
	finding := models.RoleFinding{RoleName: fact.RoleName}
	var firstErr error
	for _, p := range fact.Policies {
		err := fmt.Errorf("role %q policy %q: %w", fact.RoleName, p.Name, ErrPolicyDocumentUnavailable)
		var doc *PolicyDocument
		if p.Document != nil {
			doc, err = ParsePolicyDocument(p.Document)
			if err != nil {
				err = fmt.Errorf("role %q policy %q: %w", fact.RoleName, p.Name, err)
			}
		}
		if err != nil {
			finding.UnevaluatedPolicies = append(finding.UnevaluatedPolicies, p.Name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if doc.AllowsWildcard(mode) {
			finding.IsOverlyPermissive = true
			finding.PermissivePolicies = append(finding.PermissivePolicies, p.Name)
		}
	}
	if firstErr != nil && !finding.IsOverlyPermissive {
		finding.PermissivePolicies = nil
		return finding, firstErr
	}
	return finding, nil
}

// EvaluateTrailLogging maps the trail status onto a TrailFinding. An unknown
// status resolves to not logging.
func EvaluateTrailLogging(fact models.TrailFact) models.TrailFinding {
	return models.TrailFinding{
		TrailName: fact.TrailName,
		Region:    fact.HomeRegion,
		IsLogging: fact.IsLogging != nil && *fact.IsLogging,
	}
}
