package internal

import (
	"errors"
	"fmt"
	"strings"
)

// UpstreamDetail captures what the IdP told us at the moment a request
// failed. Message is the error text extracted from the response body, if
// the body carried one; it is resolved eagerly so callers never need the
// raw response.
type UpstreamDetail struct {
	StatusCode int
	Message    string
}

func (d UpstreamDetail) describe() string {
	if d.Message != "" {
		return fmt.Sprintf(" (HTTP %d: %s)", d.StatusCode, d.Message)
	}
	if d.StatusCode != 0 {
		return fmt.Sprintf(" (HTTP %d)", d.StatusCode)
	}
	return ""
}

// AuthError means the IdP rejected the email/password pair. The stored
// login identity must be discarded so the operator is re-prompted.
type AuthError struct {
	Detail UpstreamDetail
}

func (e *AuthError) Error() string {
	return "identity provider authentication failed, check your email and password" + e.Detail.describe()
}

// MFARequiredError means a one-time code is needed but none could be
// supplied (unattended run, or the operator cancelled the prompt).
type MFARequiredError struct {
	Detail UpstreamDetail
}

func (e *MFARequiredError) Error() string {
	return "multi-factor authentication is required on your identity provider account"
}

// MFAError means a supplied one-time code was rejected.
type MFAError struct {
	Detail UpstreamDetail
}

func (e *MFAError) Error() string {
	return "multi-factor authentication failed, check your code and try again" + e.Detail.describe()
}

// ServerError is an upstream 5xx. Not retried.
type ServerError struct {
	Detail UpstreamDetail
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("identity provider returned HTTP %d server error%s",
		e.Detail.StatusCode, detailMessageSuffix(e.Detail))
}

// UnexpectedResponseError covers any status we did not anticipate, which
// usually means the IdP changed its auth workflow.
type UnexpectedResponseError struct {
	Detail UpstreamDetail
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("identity provider returned unexpected HTTP %d response%s",
		e.Detail.StatusCode, detailMessageSuffix(e.Detail))
}

func detailMessageSuffix(d UpstreamDetail) string {
	if d.Message == "" {
		return ""
	}
	return ": " + d.Message
}

// ErrMissingAssertion means the SSO landing page did not embed a SAML
// response. The configured SSO URL is probably wrong or stale.
var ErrMissingAssertion = errors.New("no SAML assertion found in the SSO response; verify the profile's SSO URL")

// ErrNotAuthenticated flags a programming error: an assertion was requested
// before a successful login.
var ErrNotAuthenticated = errors.New("assertion requested before login")

// MalformedAssertionError means the assertion document did not have the
// shape we expect. Fatal, never retried.
type MalformedAssertionError struct {
	Reason string
}

func (e *MalformedAssertionError) Error() string {
	return "malformed SAML assertion: " + e.Reason
}

// MultipleRoleOffersError is raised when an assertion offers more than one
// role. Picking one silently would be guessing, so the offers are surfaced
// instead.
type MultipleRoleOffersError struct {
	Offers []RoleOffer
}

func (e *MultipleRoleOffersError) Error() string {
	arns := make([]string, len(e.Offers))
	for i, o := range e.Offers {
		arns[i] = o.RoleARN
	}
	return fmt.Sprintf("assertion offers %d roles but only single-role assertions are supported: %s",
		len(e.Offers), strings.Join(arns, ", "))
}

// ExchangeError wraps an STS rejection, either of the SAML exchange or of
// a chained role assumption.
type ExchangeError struct {
	Op  string // "AssumeRoleWithSAML" or "AssumeRole"
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("AWS rejected %s: %v", e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}
