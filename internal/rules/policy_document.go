package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPolicy wraps every policy document decoding failure.
var ErrMalformedPolicy = errors.New("malformed policy document")

// WildcardMode selects how broadly Action entries are treated as wildcards.
type WildcardMode string

const (
	// WildcardExact treats only a standalone "*" as a wildcard.
	WildcardExact WildcardMode = "exact"
	// WildcardService additionally treats "<service>:*" actions as wildcards.
	WildcardService WildcardMode = "service"
)

// ParseWildcardMode validates s. An empty string selects WildcardExact.
func ParseWildcardMode(s string) (WildcardMode, error) {
	switch WildcardMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", WildcardExact:
		return WildcardExact, nil
	case WildcardService:
		return WildcardService, nil
	}
	return "", fmt.Errorf("unknown wildcard mode %q; valid values: exact, service", s)
}

// StringList decodes an IAM field that may be a single string or an array.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Statement is the subset of an IAM policy statement the scanner inspects.
type Statement struct {
	Sid      string     `json:"Sid,omitempty"`
	Effect   string     `json:"Effect"`
	Action   StringList `json:"Action,omitempty"`
	Resource StringList `json:"Resource,omitempty"`
}

// Statements decodes the Statement field, which IAM allows to be a single
// object or an array of objects.
type Statements []Statement

func (s *Statements) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one Statement
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = Statements{one}
		return nil
	}
	var many []Statement
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// PolicyDocument is a decoded IAM policy document.
type PolicyDocument struct {
	Version   string     `json:"Version,omitempty"`
	Statement Statements `json:"Statement"`
}

// ParsePolicyDocument decodes a JSON policy document. A document without
// statements is rejected; IAM never stores one. Errors wrap ErrMalformedPolicy.
func ParsePolicyDocument(raw []byte) (*PolicyDocument, error) {
	var doc PolicyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
	}
	if len(doc.Statement) == 0 {
		return nil, fmt.Errorf("%w: no Statement", ErrMalformedPolicy)
	}
	return &doc, nil
}

// AllowsWildcard reports whether any statement of the document is permissive.
func (d *PolicyDocument) AllowsWildcard(mode WildcardMode) bool {
	for _, st := range d.Statement {
		if st.IsPermissive(mode) {
			return true
		}
	}
	return false
}

// IsPermissive reports whether st is an Allow statement whose Action or
// Resource contains a wildcard.
func (st Statement) IsPermissive(mode WildcardMode) bool {
	if strings.TrimSpace(st.Effect) != "Allow" {
		return false
	}
	for _, a := range st.Action {
		if isWildcardAction(a, mode) {
			return true
		}
	}
	for _, r := range st.Resource {
		if strings.TrimSpace(r) == "*" {
			return true
		}
	}
	return false
}

func isWildcardAction(action string, mode WildcardMode) bool {
	action = strings.TrimSpace(action)
	if action == "*" {
		return true
	}
	if mode != WildcardService {
		return false
	}
	service, rest, ok := strings.Cut(action, ":")
	return ok && service != "" && rest == "*"
}
