package downloader

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/tidewave-cli/tidewave/api"
	"github.com/tidewave-cli/tidewave/log"
)

// trackJob pairs a track with its (possibly not yet fetched) album.
type trackJob struct {
	track api.Track
	album *api.Album
}

// resolved is the flattened outcome of item resolution: everything that will
// actually be downloaded.
type resolved struct {
	tracks []trackJob
	videos []api.Video
}

// variantMarkers identify album-title variants pruned from an artist's
// discography when the variant filter is on.
var variantMarkers = []string{"remix", "karaoke", "commentary"}

// resolve expands one item into its concrete download jobs.
func (o *Orchestrator) resolve(ctx context.Context, client *api.Client, item Item) (*resolved, error) {
	switch item.Kind {
	case KindTrack:
		id, err := item.NumericID()
		if err != nil {
			return nil, fmt.Errorf("track id %q is not numeric", item.ID)
		}
		track, err := client.Track(ctx, id)
		if err != nil {
			return nil, err
		}
		return &resolved{tracks: []trackJob{{track: *track}}}, nil

	case KindAlbum:
		id, err := item.NumericID()
		if err != nil {
			return nil, fmt.Errorf("album id %q is not numeric", item.ID)
		}
		return o.resolveAlbum(ctx, client, id)

	case KindPlaylist:
		return o.resolvePlaylist(ctx, client, item.ID)

	case KindArtist:
		id, err := item.NumericID()
		if err != nil {
			return nil, fmt.Errorf("artist id %q is not numeric", item.ID)
		}
		return o.resolveArtist(ctx, client, id)

	case KindVideo:
		id, err := item.NumericID()
		if err != nil {
			return nil, fmt.Errorf("video id %q is not numeric", item.ID)
		}
		video, err := client.Video(ctx, id)
		if err != nil {
			return nil, err
		}
		return &resolved{videos: []api.Video{*video}}, nil
	}

	return nil, fmt.Errorf("unknown item kind %q", item.Kind)
}

func (o *Orchestrator) resolveAlbum(ctx context.Context, client *api.Client, id int64) (*resolved, error) {
	album, err := client.Album(ctx, id)
	if err != nil {
		return nil, err
	}
	tracks, err := client.AlbumTracks(ctx, id)
	if err != nil {
		return nil, err
	}

	jobs := lo.Map(tracks, func(t api.Track, _ int) trackJob {
		return trackJob{track: t, album: album}
	})
	return &resolved{tracks: jobs}, nil
}

func (o *Orchestrator) resolvePlaylist(ctx context.Context, client *api.Client, uuid string) (*resolved, error) {
	entries, err := client.PlaylistItems(ctx, uuid)
	if err != nil {
		return nil, err
	}

	out := &resolved{}
	for _, entry := range entries {
		if !entry.IsTrack() {
			continue
		}
		track, err := entry.Track()
		if err != nil {
			log.Warnf("skipping undecodable playlist entry: %v", err)
			continue
		}
		out.tracks = append(out.tracks, trackJob{track: *track})
	}
	return out, nil
}

// resolveArtist expands an artist into their filtered discography: full
// albums plus EPs and singles, with configured variant, 360 and redundant
// single pruning applied before any track is fetched.
func (o *Orchestrator) resolveArtist(ctx context.Context, client *api.Client, id int64) (*resolved, error) {
	albums, err := client.ArtistAlbums(ctx, id, api.ArtistFilterAlbums)
	if err != nil {
		return nil, err
	}
	singles, err := client.ArtistAlbums(ctx, id, api.ArtistFilterEPsAndSingles)
	if err != nil {
		return nil, err
	}

	if o.opts.SkipVariants {
		albums = o.dropVariants(albums)
		singles = o.dropVariants(singles)
	}
	if o.opts.Dedupe360 {
		albums = dedupe360(albums)
	}

	out := &resolved{}
	seen := map[string]struct{}{}
	for _, album := range albums {
		sub, err := o.resolveAlbum(ctx, client, album.ID)
		if err != nil {
			if api.IsRegionLocked(err) {
				log.Warnf("album %d of artist %d is region-locked, skipping within discography", album.ID, id)
				continue
			}
			return nil, err
		}
		out.tracks = append(out.tracks, sub.tracks...)
		recordTitles(seen, sub.tracks)
	}
	for _, single := range singles {
		sub, err := o.resolveAlbum(ctx, client, single.ID)
		if err != nil {
			if api.IsRegionLocked(err) {
				log.Warnf("album %d of artist %d is region-locked, skipping within discography", single.ID, id)
				continue
			}
			return nil, err
		}
		if o.opts.SkipSingles && redundantSingle(sub.tracks, seen) {
			log.Debugf("dropping single %q, its tracks already appear in the discography", single.Title)
			continue
		}
		out.tracks = append(out.tracks, sub.tracks...)
		recordTitles(seen, sub.tracks)
	}
	return out, nil
}

func (o *Orchestrator) dropVariants(albums []api.Album) []api.Album {
	return lo.Filter(albums, func(a api.Album, _ int) bool {
		title := strings.ToLower(a.Title)
		for _, marker := range variantMarkers {
			if strings.Contains(title, marker) {
				log.Debugf("dropping variant release %q", a.Title)
				return false
			}
		}
		return true
	})
}

// dedupe360 removes immersive-audio editions shadowed by a plain edition of
// identical title and track count, keeping an immersive edition when it is the
// sole one or differs in length.
func dedupe360(albums []api.Album) []api.Album {
	immersive := func(a api.Album) bool {
		return lo.Contains(a.AudioModes, "DOLBY_ATMOS") || lo.Contains(a.AudioModes, "SONY_360RA")
	}

	type edition struct {
		title  string
		tracks int
	}

	plain := map[edition]struct{}{}
	for _, a := range albums {
		if !immersive(a) {
			plain[edition{strings.ToLower(a.Title), a.NumberOfTracks}] = struct{}{}
		}
	}

	return lo.Filter(albums, func(a api.Album, _ int) bool {
		if !immersive(a) {
			return true
		}
		_, shadowed := plain[edition{strings.ToLower(a.Title), a.NumberOfTracks}]
		return !shadowed
	})
}

// recordTitles marks the track titles of fetched jobs as part of the
// discography.
func recordTitles(seen map[string]struct{}, jobs []trackJob) {
	for _, job := range jobs {
		seen[strings.ToLower(job.track.Title)] = struct{}{}
	}
}

// redundantSingle reports whether every track of a single already appeared on
// a previously fetched release, making the single duplicate content.
func redundantSingle(jobs []trackJob, seen map[string]struct{}) bool {
	if len(jobs) == 0 {
		return false
	}
	for _, job := range jobs {
		if _, ok := seen[strings.ToLower(job.track.Title)]; !ok {
			return false
		}
	}
	return true
}
