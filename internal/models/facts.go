package models

// ResourceClass names one of the three audited resource classes.
type ResourceClass string

const (
	ClassBuckets ResourceClass = "buckets"
	ClassRoles   ResourceClass = "roles"
	ClassTrails  ResourceClass = "trails"
)

// Grantee is a single principal that appears in a bucket ACL grant.
// Type mirrors the S3 grantee type (CanonicalUser, Group, AmazonCustomerByEmail);
// well-known groups are identified by URI.
type Grantee struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	URI        string `json:"uri,omitempty"`
	Permission string `json:"permission,omitempty"`
}

// EncryptionRule is one server-side encryption rule of a bucket's default
// encryption configuration.
type EncryptionRule struct {
	Algorithm string `json:"algorithm"`
	KMSKeyID  string `json:"kms_key_id,omitempty"`
}

// BucketFact is the raw configuration collected for one bucket.
//
// ACLRetrieved distinguishes "ACL fetched and has no public grantee" from
// "ACL never fetched"; the exposure rule refuses to evaluate the latter.
// An empty Encryption slice means the bucket reported no default encryption
// configuration, which is a valid negative result rather than an error.
type BucketFact struct {
	Name         string
	Region       string
	Grantees     []Grantee
	ACLRetrieved bool
	Encryption   []EncryptionRule
}

// PolicyKind separates managed policies attached to a role from inline ones.
type PolicyKind string

const (
	PolicyManaged PolicyKind = "managed"
	PolicyInline  PolicyKind = "inline"
)

// PolicyRef is one policy attached to a role. Document holds the decoded JSON
// policy document; nil means it was never retrieved.
type PolicyRef struct {
	Name     string
	ARN      string
	Kind     PolicyKind
	Document []byte
}

// RoleFact is the raw configuration collected for one IAM role.
type RoleFact struct {
	RoleName string
	ARN      string
	Policies []PolicyRef
}

// TrailFact is the raw logging status of one audit trail. IsLogging is nil
// when the status response did not carry the field.
type TrailFact struct {
	TrailName  string
	ARN        string
	HomeRegion string
	IsLogging  *bool
}

// BucketRef, RoleRef and TrailRef are the identities produced by enumeration
// and handed back to the directory services to fetch facts.
type BucketRef struct {
	Name   string
	Region string
}

type RoleRef struct {
	Name string
	ARN  string
}

type TrailRef struct {
	Name       string
	ARN        string
	HomeRegion string
}
