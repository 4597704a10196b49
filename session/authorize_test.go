package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewAuthorizer(t *testing.T) {
	Convey("NewAuthorizer", t, func() {
		Convey("Picks the strategy matching the device kind", func() {
			So(NewAuthorizer(KindDesktop, "u", "p").Kind(), ShouldEqual, KindDesktop)
			So(NewAuthorizer(KindMobile, "u", "p").Kind(), ShouldEqual, KindMobile)
			So(NewAuthorizer(KindTV, "", "").Kind(), ShouldEqual, KindTV)
			So(NewAuthorizer(KindWeb, "", "").Kind(), ShouldEqual, KindWeb)
		})
	})
}

func TestPasswordAuthorizer(t *testing.T) {
	Convey("PasswordAuthorizer", t, func() {
		restore := restoreEndpoints()
		defer restore()

		Convey("A successful login yields a legacy session", func() {
			var path, username, token, uniqueKey string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				username = r.FormValue("username")
				token = r.FormValue("token")
				uniqueKey = r.FormValue("clientUniqueKey")

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"userId": 42, "sessionId": "sid-1", "countryCode": "NO"}`))
			}))
			defer server.Close()
			loginBase = server.URL + "/"

			a := &PasswordAuthorizer{DeviceKind: KindDesktop, Username: "me@example.com", Password: "secret"}
			s, err := a.Authorize(context.Background())
			So(err, ShouldBeNil)
			So(path, ShouldEqual, "/username")
			So(username, ShouldEqual, "me@example.com")
			So(token, ShouldNotBeEmpty)
			So(uniqueKey, ShouldHaveLength, 32)
			So(s.Kind, ShouldEqual, KindDesktop)
			So(s.Legacy(), ShouldBeTrue)
			So(s.SessionID, ShouldEqual, "sid-1")
			So(s.UserID, ShouldEqual, 42)
			So(s.CountryCode, ShouldEqual, "NO")
		})

		Convey("Wrong credentials map to the denial sentinel", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"status": 401, "subStatus": 1002, "userMessage": "Bad credentials"}`))
			}))
			defer server.Close()
			loginBase = server.URL + "/"

			a := &PasswordAuthorizer{DeviceKind: KindMobile, Username: "me", Password: "wrong"}
			_, err := a.Authorize(context.Background())
			So(errors.Is(err, ErrAuthorizationDenied), ShouldBeTrue)
		})

		Convey("Other refusals surface the structured error", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"status": 403, "subStatus": 3005, "userMessage": "Captcha required"}`))
			}))
			defer server.Close()
			loginBase = server.URL + "/"

			a := &PasswordAuthorizer{DeviceKind: KindDesktop, Username: "me", Password: "pw"}
			_, err := a.Authorize(context.Background())

			var authErr *AuthError
			So(errors.As(err, &authErr), ShouldBeTrue)
			So(authErr.SubStatus, ShouldEqual, 3005)
		})
	})
}

func TestSessionFromGrant(t *testing.T) {
	Convey("sessionFromGrant", t, func() {
		restore := restoreEndpoints()
		defer restore()

		var authorization string
		mux := http.NewServeMux()
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			authorization = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"userId": 7, "countryCode": "DE"}`))
		})
		mux.HandleFunc("/users/7", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"username": "listener"}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()
		apiBase = server.URL + "/"

		Convey("Resolves the identity behind the grant", func() {
			grant := &tokenGrant{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600}

			s, err := sessionFromGrant(context.Background(), KindTV, grant)
			So(err, ShouldBeNil)
			So(authorization, ShouldEqual, "Bearer at")
			So(s.Kind, ShouldEqual, KindTV)
			So(s.UserID, ShouldEqual, 7)
			So(s.CountryCode, ShouldEqual, "DE")
			So(s.Username, ShouldEqual, "listener")
			So(s.Refreshable(), ShouldBeTrue)
			So(s.Expired(), ShouldBeFalse)
		})
	})
}
