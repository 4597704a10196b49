package downloader

import (
	"context"

	"github.com/tidewave-cli/tidewave/api"
	"github.com/tidewave-cli/tidewave/log"
	"github.com/tidewave-cli/tidewave/session"
)

// newClient builds a client for a selected session. A package variable so
// in-package tests can redirect candidates at an httptest server.
var newClient = api.New

// Selector enumerates stored sessions as download candidates for one item.
// It is restartable: Reset rewinds it for the next item so every item gets
// the full candidate set.
type Selector struct {
	store    *session.Store
	opts     Options
	it       *session.Iterator
	validate func(context.Context, *session.Session) bool
}

// NewSelector builds a selector over the whole session store.
func NewSelector(store *session.Store, opts Options) *Selector {
	return &Selector{
		store: store,
		opts:  opts,
		it:    store.Iterator(),
		validate: func(ctx context.Context, s *session.Session) bool {
			return s.Valid(ctx) || (s.Refresh(ctx) && s.Valid(ctx))
		},
	}
}

// Reset rewinds the selector for a fresh item.
func (s *Selector) Reset() {
	s.it.Reset()
}

// Next yields the next usable candidate client for the item, applying the
// configured policy:
//
//   - autoselect without brute force keeps only sessions whose country matches
//     the item's hint, when a hint exists;
//   - brute force probes each candidate against the item itself and keeps the
//     first one that can actually resolve and negotiate it;
//   - sessions that cannot be made valid are skipped, not fatal.
//
// Returns ErrExhausted once no candidate remains.
func (s *Selector) Next(ctx context.Context, item Item) (*api.Client, string, error) {
	for {
		sess, name, ok := s.it.Next()
		if !ok {
			return nil, "", ErrExhausted
		}

		if hint, hinted := item.CountryHint.Get(); hinted && s.opts.Autoselect && !s.opts.BruteForce {
			if sess.CountryCode != hint {
				log.Debugf("selector: %s is %s, item hints %s, skipping", name, sess.CountryCode, hint)
				continue
			}
		}

		if !s.validate(ctx, sess) {
			log.Warnf("selector: session %s is invalid, skipping", name)
			continue
		}

		client := newClient(sess)
		if s.opts.BruteForce && !s.probe(ctx, client, item) {
			continue
		}

		return client, name, nil
	}
}

// probe checks whether a candidate session can actually serve the item: the
// metadata must resolve and, for playable kinds, playback must negotiate.
func (s *Selector) probe(ctx context.Context, client *api.Client, item Item) bool {
	id, err := item.NumericID()
	if err != nil && item.Kind != KindPlaylist {
		return false
	}

	switch item.Kind {
	case KindTrack:
		if _, err := client.Track(ctx, id); err != nil {
			log.Debugf("probe %s: %v", item, err)
			return false
		}
		_, err := client.PlaybackInfo(ctx, id, s.opts.Quality)
		return err == nil

	case KindAlbum:
		_, err := client.Album(ctx, id)
		return err == nil

	case KindArtist:
		_, err := client.ArtistAlbums(ctx, id, api.ArtistFilterAlbums)
		return err == nil

	case KindPlaylist:
		_, err := client.PlaylistItems(ctx, item.ID)
		return err == nil

	case KindVideo:
		_, err := client.Video(ctx, id)
		return err == nil
	}
	return false
}
