package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tidewave-cli/tidewave/filesystem"
)

const storePath = "/config/sessions.json"

func TestStoreLifecycle(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		Convey("Loading a missing store bootstraps and persists an empty one", func() {
			store, err := Load(storePath)
			So(err, ShouldBeNil)
			So(store.Len(), ShouldEqual, 0)

			exists, _ := filesystem.API().Exists(storePath)
			So(exists, ShouldBeTrue)
		})

		Convey("An undecodable store file is corrupt, not empty", func() {
			So(filesystem.API().WriteFile(storePath, []byte("{nonsense"), 0600), ShouldBeNil)

			_, err := Load(storePath)
			So(errors.Is(err, ErrCorruptStore), ShouldBeTrue)
		})

		Convey("A version mismatch is corrupt, not silently migrated", func() {
			So(filesystem.API().WriteFile(storePath, []byte(`{"version": 99, "sessions": {}}`), 0600), ShouldBeNil)

			_, err := Load(storePath)
			So(errors.Is(err, ErrCorruptStore), ShouldBeTrue)
		})

		Convey("Added sessions survive a reload", func() {
			store, err := Load(storePath)
			So(err, ShouldBeNil)
			So(store.Add("personal", &Session{Kind: KindDesktop, Username: "me", SessionID: "sid"}), ShouldBeNil)

			reloaded, err := Load(storePath)
			So(err, ShouldBeNil)
			So(reloaded.Len(), ShouldEqual, 1)

			s, err := reloaded.Peek("personal")
			So(err, ShouldBeNil)
			So(s.Username, ShouldEqual, "me")
			So(s.Kind, ShouldEqual, KindDesktop)
		})
	})
}

func TestStoreMutations(t *testing.T) {
	Convey("Given a store with sessions", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		store, err := Load(storePath)
		So(err, ShouldBeNil)

		So(store.Add("first", &Session{Kind: KindDesktop, SessionID: "a"}), ShouldBeNil)
		So(store.Add("second", &Session{Kind: KindTV, AccessToken: "b"}), ShouldBeNil)

		Convey("The first added session became the default", func() {
			So(store.Default(), ShouldEqual, "first")
		})

		Convey("Adding a duplicate name is refused", func() {
			err := store.Add("first", &Session{})
			var dup *DuplicateNameError
			So(errors.As(err, &dup), ShouldBeTrue)
			So(store.Len(), ShouldEqual, 2)
		})

		Convey("Names are sorted", func() {
			So(store.Names(), ShouldResemble, []string{"first", "second"})
		})

		Convey("Removing the default clears it", func() {
			So(store.Remove("first"), ShouldBeNil)
			So(store.Default(), ShouldEqual, "")
			So(store.Len(), ShouldEqual, 1)
		})

		Convey("Removing an unknown name is reported", func() {
			err := store.Remove("nobody")
			var nf *NotFoundError
			So(errors.As(err, &nf), ShouldBeTrue)
		})

		Convey("Peek never touches the network", func() {
			s, err := store.Peek("second")
			So(err, ShouldBeNil)
			So(s.AccessToken, ShouldEqual, "b")
		})
	})
}

func TestStoreGet(t *testing.T) {
	Convey("Given a store and a fake service", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		oldAPI, oldAuth := apiBase, authBase
		defer func() { apiBase, authBase = oldAPI, oldAuth }()

		mux := http.NewServeMux()
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "Bearer fresh" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		})
		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token": "fresh", "expires_in": 3600}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()
		apiBase = server.URL + "/"
		authBase = server.URL + "/"

		store, err := Load(storePath)
		So(err, ShouldBeNil)

		Convey("Get on an unknown name is reported", func() {
			_, err := store.Get(context.Background(), "nobody")
			var nf *NotFoundError
			So(errors.As(err, &nf), ShouldBeTrue)
		})

		Convey("Get refreshes a stale OAuth session exactly once and persists it", func() {
			So(store.Add("tv", &Session{Kind: KindTV, AccessToken: "stale", RefreshToken: "rt"}), ShouldBeNil)

			s, err := store.Get(context.Background(), "tv")
			So(err, ShouldBeNil)
			So(s.AccessToken, ShouldEqual, "fresh")

			reloaded, err := Load(storePath)
			So(err, ShouldBeNil)
			persisted, err := reloaded.Peek("tv")
			So(err, ShouldBeNil)
			So(persisted.AccessToken, ShouldEqual, "fresh")
		})

		Convey("Get names the session when it cannot be made usable", func() {
			So(store.Add("dead", &Session{Kind: KindDesktop, SessionID: "revoked"}), ShouldBeNil)

			_, err := store.Get(context.Background(), "dead")
			var invalid *InvalidSessionError
			So(errors.As(err, &invalid), ShouldBeTrue)
		})

		Convey("An empty name selects the default", func() {
			So(store.Add("tv", &Session{Kind: KindTV, AccessToken: "fresh", RefreshToken: "rt"}), ShouldBeNil)

			s, err := store.Get(context.Background(), "")
			So(err, ShouldBeNil)
			So(s.AccessToken, ShouldEqual, "fresh")
		})
	})
}

func TestStoreIterator(t *testing.T) {
	Convey("Given a populated store", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		store, err := Load(storePath)
		So(err, ShouldBeNil)
		for _, name := range []string{"charlie", "alpha", "bravo"} {
			So(store.Add(name, &Session{Kind: KindDesktop, SessionID: name}), ShouldBeNil)
		}

		Convey("Iteration is lazy and name ordered", func() {
			it := store.Iterator()

			var seen []string
			for {
				_, name, ok := it.Next()
				if !ok {
					break
				}
				seen = append(seen, name)
			}
			So(seen, ShouldResemble, []string{"alpha", "bravo", "charlie"})

			Convey("And Reset rewinds it", func() {
				it.Reset()
				_, name, ok := it.Next()
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "alpha")
			})
		})
	})
}
