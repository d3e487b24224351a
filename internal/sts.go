package internal

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultSessionDuration is requested from STS when the assertion does not
// carry its own SessionDuration. It must be within the role's
// MaxSessionDuration, which cannot be validated in advance.
const DefaultSessionDuration int32 = 3600

// STSGateway exchanges SAML assertions and chains role assumptions. The
// Broker depends on this interface so tests can substitute a fake.
type STSGateway interface {
	ExchangeAssertion(ctx context.Context, offer RoleOffer, assertion []byte, durationSeconds int32) (*AWSSession, error)
	AssumeChained(ctx context.Context, base *AWSSession, roleARN, sessionName, externalID string) (*AWSSession, error)
	AccountAlias(ctx context.Context, base *AWSSession) string
}

// Gateway is the real STSGateway backed by the AWS SDK.
type Gateway struct {
	region string
}

func NewGateway(region string) *Gateway {
	if region == "" {
		region = "us-east-1"
	}
	return &Gateway{region: region}
}

// ExchangeAssertion calls AssumeRoleWithSAML for the given offer. The call
// is unsigned, so no local AWS configuration is required.
func (g *Gateway) ExchangeAssertion(ctx context.Context, offer RoleOffer, assertion []byte, durationSeconds int32) (*AWSSession, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(g.region),
		config.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	svc := sts.NewFromConfig(cfg)
	out, err := svc.AssumeRoleWithSAML(ctx, &sts.AssumeRoleWithSAMLInput{
		RoleArn:         &offer.RoleARN,
		PrincipalArn:    &offer.PrincipalARN,
		SAMLAssertion:   aws.String(base64.StdEncoding.EncodeToString(assertion)),
		DurationSeconds: &durationSeconds,
	})
	if err != nil {
		return nil, &ExchangeError{Op: "AssumeRoleWithSAML", Err: err}
	}

	return &AWSSession{
		AccessKeyID:     *out.Credentials.AccessKeyId,
		SecretAccessKey: *out.Credentials.SecretAccessKey,
		SessionToken:    *out.Credentials.SessionToken,
		ExpiresAt:       out.Credentials.Expiration.UTC(),
	}, nil
}

// AssumeChained performs an ordinary AssumeRole using the credentials from
// a prior exchange. The returned session supersedes the base one.
func (g *Gateway) AssumeChained(ctx context.Context, base *AWSSession, roleARN, sessionName, externalID string) (*AWSSession, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(g.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			base.AccessKeyID,
			base.SecretAccessKey,
			base.SessionToken,
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	input := &sts.AssumeRoleInput{
		RoleArn:         &roleARN,
		RoleSessionName: &sessionName,
	}
	if externalID != "" {
		input.ExternalId = &externalID
	}

	svc := sts.NewFromConfig(cfg)
	out, err := svc.AssumeRole(ctx, input)
	if err != nil {
		return nil, &ExchangeError{Op: "AssumeRole", Err: err}
	}

	return &AWSSession{
		AccessKeyID:     *out.Credentials.AccessKeyId,
		SecretAccessKey: *out.Credentials.SecretAccessKey,
		SessionToken:    *out.Credentials.SessionToken,
		ExpiresAt:       out.Credentials.Expiration.UTC(),
	}, nil
}

// AccountAlias looks up the account alias visible to the session. Aliases
// are display-only, so failures are swallowed and reported as absence.
func (g *Gateway) AccountAlias(ctx context.Context, base *AWSSession) string {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(g.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			base.AccessKeyID,
			base.SecretAccessKey,
			base.SessionToken,
		)),
	)
	if err != nil {
		return ""
	}

	svc := iam.NewFromConfig(cfg)
	out, err := svc.ListAccountAliases(ctx, &iam.ListAccountAliasesInput{})
	if err != nil || len(out.AccountAliases) == 0 {
		return ""
	}
	return out.AccountAliases[0]
}

// ChainedSessionName derives an RoleSessionName that is stable enough to
// attribute in CloudTrail yet unique per invocation.
func ChainedSessionName(email string, now time.Time) string {
	operator := email
	if i := strings.IndexByte(operator, '@'); i > 0 {
		operator = operator[:i]
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, operator)
	if clean == "" {
		clean = "fedctl"
	}
	return fmt.Sprintf("%s-%d", clean, now.UTC().Unix())
}
