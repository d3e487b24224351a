package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// loginSession is the slice of IdPSession the broker needs; tests
// substitute a fake.
type loginSession interface {
	Login(otp OTPProvider) error
	Assertion(targetURL string) ([]byte, error)
	AuthenticatedAt() time.Time
}

// Broker composes the IdP client, assertion parsing, the STS gateway and
// the store into the ensure-session pipeline. IdP login is the slowest and
// most failure-prone step, so one Broker performs it at most once per
// process and reuses the authenticated session for every profile it
// touches.
type Broker struct {
	Store   *Store
	Gateway STSGateway

	// OTP supplies an MFA code when the IdP asks for one. Nil means the
	// run is unattended and MFA surfaces as an error.
	OTP OTPProvider

	// PromptLogin sources the IdP identity when none is stored. Nil means
	// a missing identity is fatal.
	PromptLogin func() (email, password string, err error)

	idp        loginSession
	idpEmail   string
	newSession func(email, password string) loginSession
}

func NewBroker(store *Store, gateway STSGateway) *Broker {
	return &Broker{
		Store:   store,
		Gateway: gateway,
		newSession: func(email, password string) loginSession {
			return NewIdPSession(email, password)
		},
	}
}

// EnsureSession returns a valid session for the named profile, from cache
// when possible, otherwise by running the full login pipeline and caching
// the result.
func (b *Broker) EnsureSession(ctx context.Context, profileName string) (*AWSSession, error) {
	profile, err := b.Store.Profile(profileName)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %q not found; add it first", profileName)
	}

	sess, err := b.Store.Session(profileName)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}
	return b.mint(ctx, profile)
}

// Rotate discards any cached session for the profile and mints a fresh
// one.
func (b *Broker) Rotate(ctx context.Context, profileName string) (*AWSSession, error) {
	profile, err := b.Store.Profile(profileName)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %q not found", profileName)
	}
	if err := b.Store.DeleteSession(profileName); err != nil {
		return nil, err
	}
	return b.mint(ctx, profile)
}

// RotateAll rotates every stored profile in name order. The IdP login runs
// once up front; per-profile failures stop the batch.
func (b *Broker) RotateAll(ctx context.Context) (map[string]*AWSSession, error) {
	profiles, err := b.Store.Profiles()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	rotated := make(map[string]*AWSSession, len(names))
	for _, name := range names {
		sess, err := b.Rotate(ctx, name)
		if err != nil {
			return rotated, fmt.Errorf("rotating %s: %w", name, err)
		}
		rotated[name] = sess
	}
	return rotated, nil
}

// mint drives login, assertion fetch, role exchange, optional chaining,
// metadata reconciliation and caching.
func (b *Broker) mint(ctx context.Context, profile *Profile) (*AWSSession, error) {
	idp, err := b.login()
	if err != nil {
		return nil, err
	}

	assertion, err := idp.Assertion(profile.SSOURL)
	if err != nil {
		return nil, err
	}

	offers, err := ExtractRoles(assertion)
	if err != nil {
		return nil, err
	}
	if len(offers) > 1 {
		return nil, &MultipleRoleOffersError{Offers: offers}
	}
	offer := offers[0]

	duration := DefaultSessionDuration
	if requested, ok, err := ExtractDuration(assertion); err != nil {
		return nil, err
	} else if ok {
		duration = requested
	}

	sess, err := b.Gateway.ExchangeAssertion(ctx, offer, assertion, duration)
	if err != nil {
		return nil, err
	}

	accountID, roleName, err := ParseRoleARN(offer.RoleARN)
	if err != nil {
		return nil, &MalformedAssertionError{Reason: err.Error()}
	}

	// Alias lookup is best-effort display metadata for the federated
	// account, so it uses the pre-chain session.
	alias := b.Gateway.AccountAlias(ctx, sess)

	final := sess
	if profile.ChainedRole != nil {
		final, err = b.chain(ctx, profile, sess, accountID)
		if err != nil {
			return nil, err
		}
	}

	if err := b.reconcile(profile, accountID, roleName, alias); err != nil {
		return nil, err
	}
	if err := b.Store.PutSession(profile.Name, final); err != nil {
		return nil, err
	}
	return final, nil
}

func (b *Broker) chain(ctx context.Context, profile *Profile, base *AWSSession, discoveredAccount string) (*AWSSession, error) {
	role := profile.ChainedRole
	if role.AccountID == "" {
		role.AccountID = discoveredAccount
	}
	arn, err := role.ARN()
	if err != nil {
		return nil, err
	}
	sessionName := ChainedSessionName(b.idpEmail, time.Now())
	return b.Gateway.AssumeChained(ctx, base, arn, sessionName, role.ExternalID)
}

// reconcile persists discovered account id, role name and alias when they
// drift from what the profile recorded.
func (b *Broker) reconcile(profile *Profile, accountID, roleName, alias string) error {
	changed := false
	if profile.AWSAccountID != accountID {
		profile.AWSAccountID = accountID
		changed = true
	}
	if profile.AWSRole != roleName {
		profile.AWSRole = roleName
		changed = true
	}
	if alias != "" && profile.AccountAlias != alias {
		profile.AccountAlias = alias
		changed = true
	}
	if !changed {
		return nil
	}
	return b.Store.PutProfile(profile)
}

// login returns the process-wide authenticated IdP session, creating it on
// first use. A credential rejection clears the stored identity so the
// operator is prompted afresh next time.
func (b *Broker) login() (loginSession, error) {
	if b.idp != nil {
		return b.idp, nil
	}

	email, password, err := b.Store.Login()
	if err != nil {
		return nil, err
	}
	if email == "" || password == "" {
		if b.PromptLogin == nil {
			return nil, fmt.Errorf("no identity provider login stored; run fedctl interactively first")
		}
		email, password, err = b.PromptLogin()
		if err != nil {
			return nil, err
		}
		if err := b.Store.SetLogin(email, password); err != nil {
			return nil, err
		}
	}

	idp := b.newSession(email, password)
	if err := idp.Login(b.OTP); err != nil {
		var auth *AuthError
		if errors.As(err, &auth) {
			// Stored identity is wrong; discard it.
			if clearErr := b.Store.ClearLogin(); clearErr != nil {
				return nil, errors.Join(err, clearErr)
			}
		}
		return nil, err
	}

	if err := b.Store.SetAuthTime(idp.AuthenticatedAt()); err != nil {
		return nil, err
	}

	b.idp = idp
	b.idpEmail = email
	return b.idp, nil
}
