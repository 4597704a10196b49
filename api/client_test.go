package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tidewave-cli/tidewave/session"
)

func testSession() *session.Session {
	return &session.Session{
		Kind:        session.KindDesktop,
		SessionID:   "sid",
		CountryCode: "US",
	}
}

func testClient(server *httptest.Server) *Client {
	return NewWithBase(testSession(), server.Client(), server.URL+"/")
}

// pageHandler serves a paginated list of total integer items.
func pageHandler(total int, requests *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*requests++

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		items := make([]int, 0, limit)
		for i := offset; i < total && i < offset+limit; i++ {
			items = append(items, i)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"limit":              limit,
			"offset":             offset,
			"totalNumberOfItems": total,
			"items":              items,
		})
	}
}

func TestGet(t *testing.T) {
	Convey("get", t, func() {
		Convey("Attaches the country code and auth headers", func() {
			var country, sessionID, token string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				country = r.URL.Query().Get("countryCode")
				sessionID = r.Header.Get("X-Tidal-SessionId")
				token = r.Header.Get("X-Tidal-Token")

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id": 7, "title": "Song"}`))
			}))
			defer server.Close()

			track, err := testClient(server).Track(context.Background(), 7)
			So(err, ShouldBeNil)
			So(track.Title, ShouldEqual, "Song")
			So(country, ShouldEqual, "US")
			So(sessionID, ShouldEqual, "sid")
			So(token, ShouldNotBeEmpty)
		})

		Convey("Retries transient server failures with backoff", func() {
			var hits int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits++
				if hits < 3 {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id": 7, "title": "Song"}`))
			}))
			defer server.Close()

			track, err := testClient(server).Track(context.Background(), 7)
			So(err, ShouldBeNil)
			So(track.Title, ShouldEqual, "Song")
			So(hits, ShouldEqual, 3)
		})

		Convey("Rate limiting is retried like a server failure", func() {
			var hits int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits++
				if hits == 1 {
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id": 1}`))
			}))
			defer server.Close()

			_, err := testClient(server).Track(context.Background(), 1)
			So(err, ShouldBeNil)
			So(hits, ShouldEqual, 2)
		})

		Convey("Classifies the region-locked envelope", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"status": 404, "subStatus": 2001, "userMessage": "Asset not found"}`))
			}))
			defer server.Close()

			_, err := testClient(server).Track(context.Background(), 1)
			So(IsRegionLocked(err), ShouldBeTrue)
			So(IsInsufficientPrivilege(err), ShouldBeFalse)
		})

		Convey("Classifies the privilege envelope", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"status": 401, "subStatus": 4005, "userMessage": "Asset not ready"}`))
			}))
			defer server.Close()

			_, err := testClient(server).PlaybackInfo(context.Background(), 1, QualityLossless)
			So(IsInsufficientPrivilege(err), ShouldBeTrue)
		})

		Convey("An unparsable error body is a transport failure", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte("<html>not json</html>"))
			}))
			defer server.Close()

			_, err := testClient(server).Track(context.Background(), 1)
			var te *TransportError
			So(err, ShouldHaveSameTypeAs, te)
		})
	})
}

func TestPagination(t *testing.T) {
	Convey("paginated", t, func() {
		// Totals around the page size boundary, including empty.
		for _, total := range []int{0, 1, 100, 101, 250} {
			total := total
			Convey(fmt.Sprintf("Accumulates all %d items", total), func() {
				var requests int
				server := httptest.NewServer(pageHandler(total, &requests))
				defer server.Close()

				items, err := paginated[int](context.Background(), testClient(server), "albums/1/tracks", nil)
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, total)

				expectedRequests := total/pageSize + 1
				if total > 0 && total%pageSize == 0 {
					expectedRequests = total / pageSize
				}
				So(requests, ShouldEqual, expectedRequests)

				// Every offset requested exactly once, no duplicates.
				for i, item := range items {
					So(item, ShouldEqual, i)
				}
			})
		}
	})
}

func TestCoverURL(t *testing.T) {
	Convey("CoverURL", t, func() {
		Convey("Maps the cover id into the static asset path", func() {
			url := CoverURL("a1b2-c3d4-e5f6", 1280)
			So(url, ShouldEqual, "https://resources.tidal.com/images/a1b2/c3d4/e5f6/1280x1280.jpg")
		})
		Convey("An absent cover id yields no URL", func() {
			So(CoverURL("", 1280), ShouldEqual, "")
		})
	})
}
