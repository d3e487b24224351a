package internal

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultIdPBaseURL = "https://console.jumpcloud.com"
	xsrfPath          = "/userconsole/xsrf"
	authPath          = "/userconsole/auth"

	// mfaRequiredMarker appears in the redirect target when the account
	// needs a one-time code.
	mfaRequiredMarker = "error=4014"

	// IdPTimeout bounds every IdP call so an unresponsive endpoint cannot
	// hang the CLI.
	IdPTimeout = 5 * time.Second
)

// OTPProvider supplies a one-time MFA code on demand. A nil provider means
// the process is unattended and MFA cannot be satisfied.
type OTPProvider func() (string, error)

// IdPSession drives the browser-less login handshake against the identity
// provider and fetches SAML assertions for SSO applications. One instance
// owns one HTTP session (cookies plus anti-forgery token) and should be
// reused for every assertion fetch within a process.
type IdPSession struct {
	email    string
	password string
	baseURL  string
	http     *http.Client
	// authHTTP shares the cookie jar with http but never follows
	// redirects. The auth endpoint signals MFA through a redirect that
	// must be inspected, not followed; every other request (xsrf, SSO
	// landing page) follows redirects normally.
	authHTTP *http.Client

	xsrfToken string
	loggedIn  bool
	authedAt  time.Time
}

// NewIdPSession prepares an anonymous session. No network traffic happens
// until Login.
func NewIdPSession(email, password string) *IdPSession {
	jar, _ := cookiejar.New(nil)
	return &IdPSession{
		email:    email,
		password: password,
		baseURL:  defaultIdPBaseURL,
		http: &http.Client{
			Timeout: IdPTimeout,
			Jar:     jar,
		},
		authHTTP: &http.Client{
			Timeout: IdPTimeout,
			Jar:     jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// LoggedIn reports whether a login has succeeded on this session.
func (s *IdPSession) LoggedIn() bool {
	return s.loggedIn
}

// AuthenticatedAt returns the instant the login succeeded.
func (s *IdPSession) AuthenticatedAt() time.Time {
	return s.authedAt
}

// Login authenticates against the IdP. When the account requires MFA and
// otp is non-nil, the code is requested once and the credentials are
// re-submitted with it attached. Returns AuthError, MFARequiredError,
// MFAError, ServerError or UnexpectedResponseError.
func (s *IdPSession) Login(otp OTPProvider) error {
	err := s.authenticate("")
	var mfaReq *MFARequiredError
	if !errors.As(err, &mfaReq) {
		return err
	}
	if otp == nil {
		return err
	}
	code, otpErr := otp()
	if otpErr != nil || code == "" {
		return err
	}
	return s.authenticate(code)
}

func (s *IdPSession) authenticate(otp string) error {
	if s.loggedIn {
		return fmt.Errorf("session is already authenticated")
	}

	token, err := s.fetchXSRFToken()
	if err != nil {
		return err
	}

	payload := map[string]string{"email": s.email, "password": s.password}
	if otp != "" {
		payload["otp"] = otp
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, s.baseURL+authPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Xsrftoken", token)

	resp, err := s.authHTTP.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	detail := upstreamDetail(resp)
	switch {
	case resp.StatusCode == http.StatusOK:
		s.loggedIn = true
		s.authedAt = time.Now().UTC()
		return nil
	case otp == "" && resp.StatusCode == http.StatusFound &&
		strings.Contains(resp.Header.Get("Location"), mfaRequiredMarker):
		return &MFARequiredError{Detail: detail}
	case resp.StatusCode == http.StatusUnauthorized:
		if otp != "" && strings.Contains(detail.Message, "multifactor") {
			return &MFAError{Detail: detail}
		}
		return &AuthError{Detail: detail}
	case resp.StatusCode >= 500:
		return &ServerError{Detail: detail}
	default:
		return &UnexpectedResponseError{Detail: detail}
	}
}

// fetchXSRFToken retrieves the anti-forgery token, at most once per
// session instance.
func (s *IdPSession) fetchXSRFToken() (string, error) {
	if s.xsrfToken != "" {
		return s.xsrfToken, nil
	}

	resp, err := s.http.Get(s.baseURL + xsrfPath)
	if err != nil {
		return "", fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &UnexpectedResponseError{Detail: upstreamDetail(resp)}
	}

	var tokenResp struct {
		XSRF string `json:"xsrf"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil || tokenResp.XSRF == "" {
		return "", &UnexpectedResponseError{Detail: UpstreamDetail{StatusCode: resp.StatusCode, Message: "anti-forgery token missing from response"}}
	}

	s.xsrfToken = tokenResp.XSRF
	return s.xsrfToken, nil
}

// Assertion fetches the SSO landing page for the given application URL and
// returns the decoded SAML assertion embedded in it. The session must be
// logged in.
func (s *IdPSession) Assertion(targetURL string) ([]byte, error) {
	if !s.loggedIn {
		return nil, ErrNotAuthenticated
	}

	resp, err := s.http.Get(targetURL)
	if err != nil {
		return nil, fmt.Errorf("SSO endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UnexpectedResponseError{Detail: upstreamDetail(resp)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing SSO response: %w", err)
	}

	encoded, ok := doc.Find(`input[name="SAMLResponse"]`).First().Attr("value")
	if !ok || encoded == "" {
		return nil, ErrMissingAssertion
	}

	assertion, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding SAML assertion: %w", err)
	}
	return assertion, nil
}

// upstreamDetail drains the response and extracts the IdP's error text, if
// the body is a JSON object with an "error" field. Decided at the moment
// of failure so errors never hold a live response.
func upstreamDetail(resp *http.Response) UpstreamDetail {
	detail := UpstreamDetail{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return detail
	}
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
		detail.Message = parsed.Error
	}
	return detail
}
