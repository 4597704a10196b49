package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/tidewave-cli/tidewave/constant"
	"github.com/tidewave-cli/tidewave/log"
	"github.com/tidewave-cli/tidewave/network"
	"github.com/tidewave-cli/tidewave/open"
)

// Authorizer is an interactive device-authorization strategy. Each device type
// has its own handshake; the Session state machine only consumes the completed
// credential result, never the prompts themselves.
type Authorizer interface {
	// Kind returns the device type the strategy authorizes as.
	Kind() Kind

	// Authorize performs the handshake and returns a populated session.
	Authorize(ctx context.Context) (*Session, error)
}

// NewAuthorizer returns the authorization strategy for a device kind.
// Password-based kinds require credentials; token-based kinds ignore them.
func NewAuthorizer(kind Kind, username, password string) Authorizer {
	switch kind {
	case KindDesktop, KindMobile:
		return &PasswordAuthorizer{DeviceKind: kind, Username: username, Password: password}
	case KindTV:
		return &DeviceAuthorizer{}
	default:
		return &WebAuthorizer{}
	}
}

// PasswordAuthorizer performs the legacy username/password grant used by the
// desktop and mobile clients. The resulting session carries a non-expiring
// server session id.
type PasswordAuthorizer struct {
	DeviceKind Kind
	Username   string
	Password   string
}

func (a *PasswordAuthorizer) Kind() Kind {
	return a.DeviceKind
}

func (a *PasswordAuthorizer) Authorize(ctx context.Context) (*Session, error) {
	token := constant.ClientTokenDesktop
	if a.DeviceKind == KindMobile {
		token = constant.ClientTokenMobile
	}

	form := url.Values{}
	form.Set("username", a.Username)
	form.Set("password", a.Password)
	form.Set("token", token)
	form.Set("clientUniqueKey", randomHex(16))
	form.Set("clientVersion", constant.ClientVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginBase+"username", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := network.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		UserID      int64  `json:"userId"`
		SessionID   string `json:"sessionId"`
		CountryCode string `json:"countryCode"`
		Status      int    `json:"status"`
		SubStatus   int    `json:"subStatus"`
		UserMessage string `json:"userMessage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}

	if payload.SessionID == "" {
		if payload.SubStatus == 1002 {
			return nil, ErrAuthorizationDenied
		}
		return nil, &AuthError{Status: payload.Status, SubStatus: payload.SubStatus, Message: payload.UserMessage}
	}

	return &Session{
		Kind:        a.DeviceKind,
		Username:    a.Username,
		UserID:      payload.UserID,
		CountryCode: payload.CountryCode,
		SessionID:   payload.SessionID,
	}, nil
}

// DeviceAuthorizer performs the TV device-code flow: it requests a user code,
// directs the user at the verification page, and polls the token endpoint at
// the advertised interval until the remote reports success or failure.
type DeviceAuthorizer struct{}

func (a *DeviceAuthorizer) Kind() Kind {
	return KindTV
}

func (a *DeviceAuthorizer) Authorize(ctx context.Context) (*Session, error) {
	form := url.Values{}
	form.Set("client_id", constant.ClientIDTV)
	form.Set("scope", constant.AuthScopes)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authBase+"device_authorization", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := network.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("device authorization request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrAuthorizationDenied
	}

	var device struct {
		DeviceCode      string  `json:"deviceCode"`
		UserCode        string  `json:"userCode"`
		VerificationURI string  `json:"verificationUri"`
		ExpiresIn       int     `json:"expiresIn"`
		Interval        float64 `json:"interval"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&device); err != nil {
		return nil, fmt.Errorf("decode device authorization response: %w", err)
	}

	verification := fmt.Sprintf("https://%s/%s", device.VerificationURI, device.UserCode)
	fmt.Printf("Visit %s and approve the login request.\n", verification)

	var openBrowser bool
	_ = survey.AskOne(&survey.Confirm{Message: "Open the verification page in your browser?", Default: true}, &openBrowser)
	if openBrowser {
		if err := open.Start(verification); err != nil {
			log.Debugf("open browser: %v", err)
		}
	}

	grant, err := a.poll(ctx, device.DeviceCode, device.ExpiresIn, device.Interval)
	if err != nil {
		return nil, err
	}

	return sessionFromGrant(ctx, KindTV, grant)
}

// poll repeatedly exchanges the device code until the user approves, the code
// expires, or the context is cancelled.
func (a *DeviceAuthorizer) poll(ctx context.Context, deviceCode string, expiresIn int, interval float64) (*tokenGrant, error) {
	if interval <= 0 {
		interval = 2
	}
	deadline := time.Now().Add(time.Duration(expiresIn) * time.Second)
	ticker := time.NewTicker(time.Duration(interval * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			return nil, ErrAuthorizationDenied
		}

		form := url.Values{}
		form.Set("client_id", constant.ClientIDTV)
		form.Set("device_code", deviceCode)
		form.Set("grant_type", "urn:ietf:params:oauth:grant-type:device_code")
		form.Set("scope", constant.AuthScopes)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, authBase+"token", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(constant.ClientIDTV, constant.ClientSecretTV)

		resp, err := network.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("token poll: %w", err)
		}

		var payload struct {
			tokenGrant
			Error string `json:"error"`
		}
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode token response: %w", err)
		}

		switch {
		case payload.AccessToken != "":
			return &payload.tokenGrant, nil
		case payload.Error == "authorization_pending":
			continue
		case payload.Error == "expired_token", payload.Error == "access_denied":
			return nil, ErrAuthorizationDenied
		default:
			return nil, &AuthError{Status: resp.StatusCode, Message: payload.Error}
		}
	}
}

// WebAuthorizer performs the browser redirect-capture flow with PKCE. The user
// logs in through their browser and pastes the final redirect URL back into
// the terminal.
type WebAuthorizer struct{}

func (a *WebAuthorizer) Kind() Kind {
	return KindWeb
}

const webRedirectURI = "https://listen.tidal.com/login/auth"

func (a *WebAuthorizer) Authorize(ctx context.Context) (*Session, error) {
	verifier := randomURLSafe(32)
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	v := url.Values{}
	v.Set("response_type", "code")
	v.Set("client_id", constant.ClientIDWeb)
	v.Set("redirect_uri", webRedirectURI)
	v.Set("scope", constant.AuthScopes)
	v.Set("code_challenge", challenge)
	v.Set("code_challenge_method", "S256")

	authorizeURL := "https://login.tidal.com/authorize?" + v.Encode()
	fmt.Printf("Log in at %s\n", authorizeURL)
	if err := open.Start(authorizeURL); err != nil {
		log.Debugf("open browser: %v", err)
	}

	var redirected string
	prompt := &survey.Input{Message: "Paste the URL you were redirected to after logging in:"}
	if err := survey.AskOne(prompt, &redirected, survey.WithValidator(survey.Required)); err != nil {
		return nil, err
	}

	parsed, err := url.Parse(strings.TrimSpace(redirected))
	if err != nil {
		return nil, fmt.Errorf("parse redirect URL: %w", err)
	}
	code := parsed.Query().Get("code")
	if code == "" {
		return nil, ErrAuthorizationDenied
	}

	grant, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return nil, err
	}

	return sessionFromGrant(ctx, KindWeb, grant)
}

func (a *WebAuthorizer) exchange(ctx context.Context, code, verifier string) (*tokenGrant, error) {
	form := url.Values{}
	form.Set("client_id", constant.ClientIDWeb)
	form.Set("code", code)
	form.Set("code_verifier", verifier)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", webRedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authBase+"token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := network.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrAuthorizationDenied
	}

	var grant tokenGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &grant, nil
}

// sessionFromGrant resolves the identity behind a fresh OAuth grant and
// assembles the session.
func sessionFromGrant(ctx context.Context, kind Kind, grant *tokenGrant) (*Session, error) {
	expires := time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	s := &Session{
		Kind:         kind,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		Expires:      &expires,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"sessions", nil)
	if err != nil {
		return nil, err
	}
	for k, v := range s.AuthHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &AuthError{Status: resp.StatusCode, Message: "could not resolve the authorized identity"}
	}

	var identity struct {
		UserID      int64  `json:"userId"`
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}

	s.UserID = identity.UserID
	s.CountryCode = identity.CountryCode
	s.Username = fetchUsername(ctx, s)
	return s, nil
}

// fetchUsername resolves the profile name behind a session, best-effort.
func fetchUsername(ctx context.Context, s *Session) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%susers/%d", apiBase, s.UserID), nil)
	if err != nil {
		return ""
	}
	for k, v := range s.AuthHeaders() {
		req.Header.Set(k, v)
	}
	q := req.URL.Query()
	q.Set("countryCode", s.CountryCode)
	req.URL.RawQuery = q.Encode()

	resp, err := network.Client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	var profile struct {
		Username string `json:"username"`
	}
	if json.NewDecoder(resp.Body).Decode(&profile) != nil {
		return ""
	}
	return profile.Username
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func randomURLSafe(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
