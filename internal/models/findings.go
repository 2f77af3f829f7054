package models

import "encoding/json"

// BucketFinding is the evaluated posture of one bucket. When Error is set the
// boolean fields carry no meaning and are omitted from JSON output.
type BucketFinding struct {
	BucketName  string         `json:"bucket_name"`
	Region      string         `json:"region,omitempty"`
	IsPublic    bool           `json:"is_public"`
	IsEncrypted bool           `json:"is_encrypted"`
	Error       *ResourceError `json:"error,omitempty"`
}

// Failed reports whether the entry records a fetch or evaluation failure.
func (f BucketFinding) Failed() bool { return f.Error != nil }

func (f BucketFinding) MarshalJSON() ([]byte, error) {
	if f.Error != nil {
		return json.Marshal(struct {
			BucketName string         `json:"bucket_name"`
			Region     string         `json:"region,omitempty"`
			Error      *ResourceError `json:"error"`
		}{f.BucketName, f.Region, f.Error})
	}
	type plain BucketFinding
	return json.Marshal(plain(f))
}

// RoleFinding is the evaluated permissiveness of one role.
// PermissivePolicies names the attached policies that triggered the verdict.
// UnevaluatedPolicies names policies whose document could not be read or
// parsed; it is only set alongside a permissive verdict, which they cannot
// overturn.
type RoleFinding struct {
	RoleName            string         `json:"role_name"`
	IsOverlyPermissive  bool           `json:"is_overly_permissive"`
	PermissivePolicies  []string       `json:"permissive_policies,omitempty"`
	UnevaluatedPolicies []string       `json:"unevaluated_policies,omitempty"`
	Error               *ResourceError `json:"error,omitempty"`
}

func (f RoleFinding) Failed() bool { return f.Error != nil }

func (f RoleFinding) MarshalJSON() ([]byte, error) {
	if f.Error != nil {
		return json.Marshal(struct {
			RoleName string         `json:"role_name"`
			Error    *ResourceError `json:"error"`
		}{f.RoleName, f.Error})
	}
	type plain RoleFinding
	return json.Marshal(plain(f))
}

// TrailFinding is the logging status of one trail.
type TrailFinding struct {
	TrailName string         `json:"trail_name"`
	Region    string         `json:"region,omitempty"`
	IsLogging bool           `json:"is_logging"`
	Error     *ResourceError `json:"error,omitempty"`
}

func (f TrailFinding) Failed() bool { return f.Error != nil }

func (f TrailFinding) MarshalJSON() ([]byte, error) {
	if f.Error != nil {
		return json.Marshal(struct {
			TrailName string         `json:"trail_name"`
			Region    string         `json:"region,omitempty"`
			Error     *ResourceError `json:"error"`
		}{f.TrailName, f.Region, f.Error})
	}
	type plain TrailFinding
	return json.Marshal(plain(f))
}
