package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidewave-cli/tidewave/constant"
	"github.com/tidewave-cli/tidewave/log"
	"github.com/tidewave-cli/tidewave/network"
	"github.com/tidewave-cli/tidewave/session"
)

// Quality identifies a stream quality tier.
type Quality string

const (
	QualityLow      Quality = "LOW"
	QualityHigh     Quality = "HIGH"
	QualityLossless Quality = "LOSSLESS"
	QualityHiRes    Quality = "HI_RES"
)

const (
	pageSize = 100

	// maxAttempts bounds the transient-failure retry loop per request.
	maxAttempts = 10

	backoffFactor = 400 * time.Millisecond
)

// Client is a thin authenticated request layer bound to a borrowed session.
type Client struct {
	sess *session.Session
	http *http.Client
	base string
}

// New binds a client to a session. The session stays owned by its store.
func New(sess *session.Session) *Client {
	return NewWithBase(sess, network.Client, constant.APIBase)
}

// NewWithBase binds a client to a session against a custom API root.
func NewWithBase(sess *session.Session, httpClient *http.Client, base string) *Client {
	return &Client{
		sess: sess,
		http: httpClient,
		base: base,
	}
}

// Session returns the session the client is bound to.
func (c *Client) Session() *session.Session {
	return c.sess
}

// get issues one authenticated GET. It attaches the session's country code and
// auth headers, retries transient 429/5xx responses with bounded exponential
// backoff, refreshes the session exactly once on 401/403, and classifies the
// structured error envelope of any remaining failure.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("countryCode", c.sess.CountryCode)

	refreshed := false
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoffFactor*(1<<(attempt-1))); err != nil {
				return &TransportError{Path: path, Err: err}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
		if err != nil {
			return &TransportError{Path: path, Err: err}
		}
		req.URL.RawQuery = params.Encode()
		for k, v := range c.sess.AuthHeaders() {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			log.Debugf("GET %s attempt %d: %v", path, attempt+1, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			log.Debugf("GET %s attempt %d: HTTP %d, backing off", path, attempt+1, resp.StatusCode)
			continue
		}

		if (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) &&
			!refreshed && c.sess.Refreshable() {
			refreshed = true
			if c.sess.Refresh(ctx) {
				resp.Body.Close()
				log.Infof("refreshed %s session of %s mid-request", c.sess.Kind, c.sess.Username)
				continue
			}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return &TransportError{Path: path, Err: err}
		}

		if resp.StatusCode == http.StatusOK {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return &TransportError{Path: path, Err: fmt.Errorf("decode response: %w", err)}
			}
			return nil
		}

		var envelope errorEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.Status == 0 {
			return &TransportError{Path: path, Err: fmt.Errorf("HTTP %d with unparsable body", resp.StatusCode)}
		}
		return classify(envelope, path)
	}

	return &TransportError{Path: path, Err: fmt.Errorf("exhausted %d attempts", maxAttempts)}
}

// paginated accumulates a list endpoint by requesting successive offsets until
// the server-reported total is reached.
func paginated[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	if params == nil {
		params = url.Values{}
	}

	var items []T
	offset := 0
	for {
		params.Set("limit", fmt.Sprint(pageSize))
		params.Set("offset", fmt.Sprint(offset))

		var p page[T]
		if err := c.get(ctx, path, params, &p); err != nil {
			return nil, err
		}

		items = append(items, p.Items...)
		offset += len(p.Items)

		if offset >= p.TotalNumberOfItems || len(p.Items) == 0 {
			return items, nil
		}
	}
}

// Track fetches one track's metadata.
func (c *Client) Track(ctx context.Context, id int64) (*Track, error) {
	var t Track
	if err := c.get(ctx, fmt.Sprintf("tracks/%d", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Album fetches one album's metadata.
func (c *Client) Album(ctx context.Context, id int64) (*Album, error) {
	var a Album
	if err := c.get(ctx, fmt.Sprintf("albums/%d", id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// AlbumTracks fetches the complete track list of an album.
func (c *Client) AlbumTracks(ctx context.Context, id int64) ([]Track, error) {
	return paginated[Track](ctx, c, fmt.Sprintf("albums/%d/tracks", id), nil)
}

// PlaylistItems fetches the complete entry list of a playlist.
func (c *Client) PlaylistItems(ctx context.Context, uuid string) ([]PlaylistItem, error) {
	return paginated[PlaylistItem](ctx, c, fmt.Sprintf("playlists/%s/items", uuid), nil)
}

// Artist discography filters accepted by ArtistAlbums.
const (
	ArtistFilterAlbums        = "ALBUMS"
	ArtistFilterEPsAndSingles = "EPSANDSINGLES"
)

// ArtistAlbums fetches an artist's releases, optionally restricted by filter.
func (c *Client) ArtistAlbums(ctx context.Context, id int64, filter string) ([]Album, error) {
	params := url.Values{}
	if filter != "" {
		params.Set("filter", filter)
	}
	return paginated[Album](ctx, c, fmt.Sprintf("artists/%d/albums", id), params)
}

// Video fetches one video's metadata.
func (c *Client) Video(ctx context.Context, id int64) (*Video, error) {
	var v Video
	if err := c.get(ctx, fmt.Sprintf("videos/%d", id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Contributors fetches the credited contributors of a track.
func (c *Client) Contributors(ctx context.Context, trackID int64) ([]Contributor, error) {
	return paginated[Contributor](ctx, c, fmt.Sprintf("tracks/%d/contributors", trackID), nil)
}

// FavoriteTracks fetches the bound user's favorite tracks.
func (c *Client) FavoriteTracks(ctx context.Context) ([]PlaylistItem, error) {
	return paginated[PlaylistItem](ctx, c, fmt.Sprintf("users/%d/favorites/tracks", c.sess.UserID), nil)
}

// PlaybackInfo negotiates a stream manifest for a track at the given quality.
func (c *Client) PlaybackInfo(ctx context.Context, trackID int64, quality Quality) (*PlaybackInfo, error) {
	params := url.Values{}
	params.Set("audioquality", string(quality))
	params.Set("playbackmode", "STREAM")
	params.Set("assetpresentation", "FULL")

	var pi PlaybackInfo
	if err := c.get(ctx, fmt.Sprintf("tracks/%d/playbackinfopostpaywall", trackID), params, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

// VideoPlaybackInfo negotiates a stream manifest for a video at the given
// quality tier (LOW, MEDIUM or HIGH).
func (c *Client) VideoPlaybackInfo(ctx context.Context, videoID int64, quality string) (*PlaybackInfo, error) {
	params := url.Values{}
	params.Set("videoquality", quality)
	params.Set("playbackmode", "STREAM")
	params.Set("assetpresentation", "FULL")

	var pi PlaybackInfo
	if err := c.get(ctx, fmt.Sprintf("videos/%d/playbackinfopostpaywall", videoID), params, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

// CoverURL builds the static artwork URL for a cover identifier.
func CoverURL(cover string, size int) string {
	if cover == "" {
		return ""
	}
	return fmt.Sprintf("%s%s/%dx%d.jpg", constant.ResourcesBase, strings.ReplaceAll(cover, "-", "/"), size, size)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
