package downloader

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tidewave-cli/tidewave/api"
	"github.com/tidewave-cli/tidewave/filesystem"
	"github.com/tidewave-cli/tidewave/session"
	"github.com/tidewave-cli/tidewave/tag"
)

// fakeTidal is a minimal in-process rendition of the service, enough to drive
// the orchestrator end to end.
type fakeTidal struct {
	server *httptest.Server

	mu   sync.Mutex
	hits map[string]int

	volumes        int
	deliverQuality string
	lockedRegions  map[string]bool
	breakTransfer  bool
}

func newFakeTidal() *fakeTidal {
	f := &fakeTidal{
		hits:           make(map[string]int),
		volumes:        1,
		deliverQuality: "LOSSLESS",
		lockedRegions:  map[string]bool{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeTidal) count(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[key]++
}

func (f *fakeTidal) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeTidal) trackJSON() map[string]any {
	return map[string]any{
		"id":             10,
		"title":          "Song",
		"trackNumber":    1,
		"volumeNumber":   f.volumes,
		"audioQuality":   "LOSSLESS",
		"allowStreaming": true,
		"artist":         map[string]any{"name": "Band"},
		"album":          map[string]any{"id": 20, "title": "Record"},
	}
}

func (f *fakeTidal) handle(w http.ResponseWriter, r *http.Request) {
	f.count(r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	writeJSON := func(v any) { _ = json.NewEncoder(w).Encode(v) }
	writePage := func(items ...any) {
		writeJSON(map[string]any{
			"limit":              100,
			"offset":             0,
			"totalNumberOfItems": len(items),
			"items":              items,
		})
	}

	switch r.URL.Path {
	case "/tracks/10":
		if f.lockedRegions[r.URL.Query().Get("countryCode")] {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(map[string]any{"status": 404, "subStatus": 2001, "userMessage": "Asset not found"})
			return
		}
		writeJSON(f.trackJSON())

	case "/albums/20":
		writeJSON(map[string]any{
			"id":              20,
			"title":           "Record",
			"releaseDate":     "2021-05-01",
			"numberOfTracks":  1,
			"numberOfVolumes": f.volumes,
			"audioQuality":    "LOSSLESS",
			"allowStreaming":  true,
			"artist":          map[string]any{"name": "Band"},
		})

	case "/albums/20/tracks":
		writePage(f.trackJSON())

	case "/tracks/10/contributors":
		writePage()

	case "/tracks/10/playbackinfopostpaywall":
		urls := []string{f.server.URL + "/content/10.flac?token=x"}
		if f.breakTransfer {
			urls = append(urls, f.server.URL+"/content/broken")
		}
		manifest, _ := json.Marshal(map[string]any{
			"mimeType":       "audio/flac",
			"codecs":         "flac",
			"encryptionType": "NONE",
			"urls":           urls,
		})
		writeJSON(map[string]any{
			"trackId":          10,
			"audioQuality":     f.deliverQuality,
			"manifestMimeType": "application/vnd.tidal.bt",
			"manifest":         base64.StdEncoding.EncodeToString(manifest),
		})

	case "/content/10.flac":
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("FLACDATA"))

	case "/content/broken":
		w.WriteHeader(http.StatusInternalServerError)

	default:
		w.WriteHeader(http.StatusNotFound)
		writeJSON(map[string]any{"status": 404, "subStatus": 999, "userMessage": "No such resource"})
	}
}

type recordingTagger struct {
	calls []string
}

func (r *recordingTagger) Write(path string, _ tag.Metadata) error {
	r.calls = append(r.calls, path)
	return nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, string, string) error { return nil }

func testOptions() Options {
	return Options{
		Path:          "/music",
		AlbumTemplate: "{album_artist} - {album}",
		TrackTemplate: "{tracknumber} - {title}",
		ArtworkSize:   1280,
		Tries:         1,
		Quality:       api.QualityLossless,
		SkipMismatch:  true,
	}
}

func testStore(countries map[string]string) *session.Store {
	store, err := session.Load("/config/sessions.json")
	So(err, ShouldBeNil)
	for name, country := range countries {
		So(store.Add(name, &session.Session{
			Kind:        session.KindDesktop,
			SessionID:   name,
			CountryCode: country,
		}), ShouldBeNil)
	}
	return store
}

func TestOrchestratorPipeline(t *testing.T) {
	Convey("Given a fake service and an orchestrator", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		fake := newFakeTidal()
		defer fake.server.Close()

		store := testStore(map[string]string{"main": "US"})
		tagger := &recordingTagger{}
		o := New(store, testOptions(), tagger, stubFetcher{})

		sess, err := store.Peek("main")
		So(err, ShouldBeNil)
		client := api.NewWithBase(sess, fake.server.Client(), fake.server.URL+"/")

		ctx := context.Background()
		item := Item{Kind: KindTrack, ID: "10"}
		target := filepath.Join("/music", "Band - Record", "01 - Song.flac")

		Convey("A track lands at its templated path, tagged", func() {
			So(o.downloadItem(ctx, client, item), ShouldBeNil)

			data, err := filesystem.API().ReadFile(target)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "FLACDATA")
			So(tagger.calls, ShouldResemble, []string{target})
		})

		Convey("A second run performs no manifest or transfer calls", func() {
			So(o.downloadItem(ctx, client, item), ShouldBeNil)
			So(fake.hitCount("/tracks/10/playbackinfopostpaywall"), ShouldEqual, 1)
			So(fake.hitCount("/content/10.flac"), ShouldEqual, 1)

			So(o.downloadItem(ctx, client, item), ShouldBeNil)
			So(fake.hitCount("/tracks/10/playbackinfopostpaywall"), ShouldEqual, 1)
			So(fake.hitCount("/content/10.flac"), ShouldEqual, 1)
		})

		Convey("Multi-volume albums route tracks into CD directories", func() {
			fake.volumes = 2

			So(o.downloadItem(ctx, client, Item{Kind: KindAlbum, ID: "20"}), ShouldBeNil)

			exists, _ := filesystem.API().Exists(filepath.Join("/music", "Band - Record", "CD2", "01 - Song.flac"))
			So(exists, ShouldBeTrue)
		})

		Convey("A failed transfer leaves no file at the final path", func() {
			fake.breakTransfer = true

			So(o.downloadItem(ctx, client, item), ShouldNotBeNil)

			exists, _ := filesystem.API().Exists(target)
			So(exists, ShouldBeFalse)
		})

		Convey("A quality shortfall is skipped when configured to skip", func() {
			fake.deliverQuality = "HIGH"

			So(o.downloadItem(ctx, client, item), ShouldBeNil)

			exists, _ := filesystem.API().Exists(target)
			So(exists, ShouldBeFalse)
		})

		Convey("A quality shortfall halts the batch when skipping is off", func() {
			fake.deliverQuality = "HIGH"
			o.opts.SkipMismatch = false

			err := o.downloadItem(ctx, client, item)
			So(errors.Is(err, ErrHalted), ShouldBeTrue)
		})

		Convey("The shared cover file is removed once the item finishes", func() {
			coverPath := filepath.Join("/music", "Band - Record", "cover.jpg")
			So(filesystem.API().MkdirAll(filepath.Dir(coverPath), 0755), ShouldBeNil)
			So(filesystem.API().WriteFile(coverPath, []byte("JPEG"), 0644), ShouldBeNil)

			So(o.downloadItem(ctx, client, item), ShouldBeNil)

			exists, _ := filesystem.API().Exists(coverPath)
			So(exists, ShouldBeFalse)
		})

		Convey("The cover file stays when configured to keep it", func() {
			o.opts.KeepCover = true

			coverPath := filepath.Join("/music", "Band - Record", "cover.jpg")
			So(filesystem.API().MkdirAll(filepath.Dir(coverPath), 0755), ShouldBeNil)
			So(filesystem.API().WriteFile(coverPath, []byte("JPEG"), 0644), ShouldBeNil)

			So(o.downloadItem(ctx, client, item), ShouldBeNil)

			exists, _ := filesystem.API().Exists(coverPath)
			So(exists, ShouldBeTrue)
		})
	})
}

func TestRegionLockFallback(t *testing.T) {
	Convey("Given an item locked for the default session's region", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		fake := newFakeTidal()
		defer fake.server.Close()
		fake.lockedRegions["US"] = true

		restore := newClient
		newClient = func(s *session.Session) *api.Client {
			return api.NewWithBase(s, fake.server.Client(), fake.server.URL+"/")
		}
		defer func() { newClient = restore }()

		store := testStore(map[string]string{"home": "US", "abroad": "DE"})
		opts := testOptions()
		opts.BruteForce = true
		o := New(store, opts, &recordingTagger{}, stubFetcher{})
		o.selector.validate = func(context.Context, *session.Session) bool { return true }

		sess, err := store.Peek("home")
		So(err, ShouldBeNil)
		client := api.NewWithBase(sess, fake.server.Client(), fake.server.URL+"/")

		ctx := context.Background()
		item := Item{Kind: KindTrack, ID: "10"}

		Convey("Another account serves the item for this request only", func() {
			So(o.downloadItem(ctx, client, item), ShouldBeNil)

			exists, _ := filesystem.API().Exists(filepath.Join("/music", "Band - Record", "01 - Song.flac"))
			So(exists, ShouldBeTrue)

			// The default session tried first and stays bound for later items.
			So(fake.hitCount("/tracks/10"), ShouldBeGreaterThanOrEqualTo, 2)
			So(client.Session().CountryCode, ShouldEqual, "US")
		})

		Convey("Exhausting all candidates reports the original region lock", func() {
			fake.lockedRegions["DE"] = true

			err := o.downloadItem(ctx, client, item)
			So(api.IsRegionLocked(err), ShouldBeTrue)
		})

		Convey("Without brute force or autoselect, other accounts stay untouched", func() {
			o.opts.BruteForce = false
			o.opts.Autoselect = false

			err := o.downloadItem(ctx, client, item)
			So(api.IsRegionLocked(err), ShouldBeTrue)

			// Only the default session's resolution attempt reached the service.
			So(fake.hitCount("/tracks/10"), ShouldEqual, 1)
		})
	})
}

func TestRunBatch(t *testing.T) {
	Convey("Given a batch with a failing item", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		fake := newFakeTidal()
		defer fake.server.Close()

		store := testStore(map[string]string{"main": "US"})
		o := New(store, testOptions(), &recordingTagger{}, stubFetcher{})

		Convey("A malformed input fails the batch before any download", func() {
			err := o.Run(context.Background(), []string{"track:10", "???"})
			So(err, ShouldNotBeNil)
			So(fake.hitCount("/tracks/10"), ShouldEqual, 0)
		})
	})
}
