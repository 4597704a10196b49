// Package session implements the authenticated identity model for the streaming service.
//
// A Session represents one device-type identity: either a legacy session backed
// by a non-expiring server-issued session id, or an OAuth session backed by an
// access/refresh token pair with an expiry instant. Sessions are owned by the
// Store that persisted them; other components only borrow references.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidewave-cli/tidewave/constant"
	"github.com/tidewave-cli/tidewave/log"
	"github.com/tidewave-cli/tidewave/network"
)

// Kind discriminates the device type a session was authorized as. The remote
// enforces the token/Authorization/User-Agent triplet per device type.
type Kind string

const (
	KindDesktop Kind = "desktop"
	KindMobile  Kind = "mobile"
	KindTV      Kind = "tv"
	KindWeb     Kind = "web"
)

// Kinds returns all supported device kinds.
func Kinds() []Kind {
	return []Kind{KindDesktop, KindMobile, KindTV, KindWeb}
}

// Service endpoints, declared as variables so in-package tests can redirect
// them at an httptest server.
var (
	apiBase   = constant.APIBase
	authBase  = constant.AuthBase
	loginBase = constant.LoginBase
)

// Session is one authenticated identity. Exactly one of SessionID (legacy) or
// AccessToken (OAuth) is populated.
type Session struct {
	Kind        Kind   `json:"kind"`
	Username    string `json:"username"`
	UserID      int64  `json:"user_id"`
	CountryCode string `json:"country_code"`

	// Legacy credential material.
	SessionID string `json:"session_id,omitempty"`

	// OAuth credential material.
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	Expires      *time.Time `json:"expires,omitempty"`
}

// Legacy reports whether the session carries a non-expiring server session id.
func (s *Session) Legacy() bool {
	return s.SessionID != ""
}

// Refreshable reports whether the session can be renewed without user interaction.
func (s *Session) Refreshable() bool {
	return s.RefreshToken != ""
}

// Expired reports whether an OAuth session's access token is past its expiry instant.
// Legacy sessions never expire locally.
func (s *Session) Expired() bool {
	return s.Expires != nil && time.Now().After(*s.Expires)
}

// AuthHeaders returns the exact header set the remote requires for this device type.
func (s *Session) AuthHeaders() map[string]string {
	switch s.Kind {
	case KindDesktop:
		return map[string]string{
			"X-Tidal-SessionId": s.SessionID,
			"X-Tidal-Token":     constant.ClientTokenDesktop,
			"User-Agent":        constant.UserAgentDesktop,
		}
	case KindMobile:
		return map[string]string{
			"X-Tidal-SessionId": s.SessionID,
			"X-Tidal-Token":     constant.ClientTokenMobile,
			"User-Agent":        constant.UserAgentMobile,
		}
	case KindTV:
		return map[string]string{
			"Authorization": "Bearer " + s.AccessToken,
			"User-Agent":    constant.UserAgentTV,
		}
	default:
		return map[string]string{
			"Authorization": "Bearer " + s.AccessToken,
			"User-Agent":    constant.UserAgentWeb,
		}
	}
}

// Valid reports whether the session can currently issue authenticated requests.
// OAuth sessions check the local expiry first, then confirm with a lightweight
// probe; legacy sessions go straight to the probe. An unauthorized probe
// response yields false, never an error.
func (s *Session) Valid(ctx context.Context) bool {
	if !s.Legacy() && s.Expired() {
		return false
	}
	return s.probe(ctx)
}

// probe issues the cheapest authenticated request the service offers.
func (s *Session) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"sessions", nil)
	if err != nil {
		return false
	}
	for k, v := range s.AuthHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		log.Debugf("session probe failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Refresh exchanges the refresh token for a new access token and expiry,
// rotating the refresh token when the remote issues one. It returns false on
// any non-success response, leaving the session unchanged so callers can fall
// back to other sessions.
func (s *Session) Refresh(ctx context.Context) bool {
	if !s.Refreshable() {
		return false
	}

	form := url.Values{}
	form.Set("client_id", s.clientID())
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.RefreshToken)
	form.Set("scope", constant.AuthScopes)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authBase+"token", strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.Kind == KindTV {
		req.SetBasicAuth(constant.ClientIDTV, constant.ClientSecretTV)
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		log.Debugf("session refresh failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("refresh rejected for %s session of %s: HTTP %d", s.Kind, s.Username, resp.StatusCode)
		return false
	}

	var grant tokenGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return false
	}
	if grant.AccessToken == "" {
		return false
	}

	s.AccessToken = grant.AccessToken
	if grant.RefreshToken != "" {
		s.RefreshToken = grant.RefreshToken
	}
	expires := time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	s.Expires = &expires
	return true
}

func (s *Session) clientID() string {
	if s.Kind == KindTV {
		return constant.ClientIDTV
	}
	return constant.ClientIDWeb
}

// tokenGrant is the OAuth token endpoint response envelope.
type tokenGrant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}
