package internal

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// AWSSession holds one set of temporary STS credentials. Expiry is always
// judged against current UTC time.
type AWSSession struct {
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key"`
	SessionToken    string    `json:"session_token"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable.
func (s *AWSSession) Expired() bool {
	return !s.ExpiresAt.After(time.Now().UTC())
}

// Remaining returns the time left before expiry, never negative.
func (s *AWSSession) Remaining() time.Duration {
	d := time.Until(s.ExpiresAt)
	if d < 0 {
		return 0
	}
	return d
}

// ChainedRole is a second-hop role assumed with the credentials obtained
// from the SAML exchange. AccountID may be empty; it is filled in from
// the profile's discovered account on the first successful login.
type ChainedRole struct {
	AccountID  string `json:"account_id,omitempty"`
	RoleName   string `json:"role_name"`
	ExternalID string `json:"external_id,omitempty"`
}

// ARN renders the role ARN, or an error if the account id is still unknown.
func (c *ChainedRole) ARN() (string, error) {
	if c.AccountID == "" {
		return "", fmt.Errorf("chained role %s has no account id yet", c.RoleName)
	}
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", c.AccountID, c.RoleName), nil
}

// Profile binds a name to an IdP SSO URL plus metadata discovered on login.
// Unknown JSON fields are ignored on decode so older and newer builds can
// share one store.
type Profile struct {
	Name         string       `json:"name"`
	SSOURL       string       `json:"sso_url"`
	AWSAccountID string       `json:"aws_account_id,omitempty"`
	AWSRole      string       `json:"aws_role,omitempty"`
	AccountAlias string       `json:"aws_account_alias,omitempty"`
	ChainedRole  *ChainedRole `json:"chained_role,omitempty"`
}

// AccountLabel returns the friendliest available description of the AWS
// account behind this profile.
func (p *Profile) AccountLabel() string {
	if p.AccountAlias != "" {
		return p.AccountAlias
	}
	if p.AWSAccountID != "" {
		return p.AWSAccountID
	}
	return "<unknown>"
}

// RoleOffer is one (role, principal) pair from a SAML assertion. Offers are
// transient; they are never persisted.
type RoleOffer struct {
	RoleARN      string
	PrincipalARN string
}

func (r RoleOffer) String() string {
	return r.RoleARN
}

var roleARNPattern = regexp.MustCompile(`^arn:aws:iam::([0-9]{12}):role/([\w+=,.@/-]+)$`)

// ParseRoleARN splits a role ARN into account id and role name.
func ParseRoleARN(arn string) (accountID, roleName string, err error) {
	m := roleARNPattern.FindStringSubmatch(arn)
	if m == nil {
		return "", "", fmt.Errorf("not a valid IAM role ARN: %q", arn)
	}
	return m[1], m[2], nil
}

// ParseChainedRole builds a ChainedRole from either a full role ARN or a
// bare role name. A bare name leaves AccountID empty until first login.
func ParseChainedRole(spec, externalID string) (*ChainedRole, error) {
	if strings.HasPrefix(spec, "arn:") {
		account, role, err := ParseRoleARN(spec)
		if err != nil {
			return nil, err
		}
		return &ChainedRole{AccountID: account, RoleName: role, ExternalID: externalID}, nil
	}
	if spec == "" {
		return nil, fmt.Errorf("chained role name must not be empty")
	}
	return &ChainedRole{RoleName: spec, ExternalID: externalID}, nil
}
