package downloader

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidewave-cli/tidewave/api"
	"github.com/tidewave-cli/tidewave/filesystem"
	"github.com/tidewave-cli/tidewave/icon"
	"github.com/tidewave-cli/tidewave/log"
	"github.com/tidewave-cli/tidewave/media"
	"github.com/tidewave-cli/tidewave/session"
	"github.com/tidewave-cli/tidewave/style"
	"github.com/tidewave-cli/tidewave/tag"
	"github.com/tidewave-cli/tidewave/util"
)

// Orchestrator drives a batch of download items end to end. It owns the
// account-selection fallback and the per-item failure policy; the per-track
// pipeline lives in download.go.
type Orchestrator struct {
	store    *session.Store
	selector *Selector
	opts     Options
	tagger   tag.Writer
	fetcher  media.Fetcher
}

// New builds an orchestrator over the given session store and collaborators.
func New(store *session.Store, opts Options, tagger tag.Writer, fetcher media.Fetcher) *Orchestrator {
	return &Orchestrator{
		store:    store,
		selector: NewSelector(store, opts),
		opts:     opts,
		tagger:   tagger,
		fetcher:  fetcher,
	}
}

// Run downloads every input item. One failing item is reported and recorded,
// then the batch continues; only a cancelled context or the quality-halt
// policy aborts the remainder. The session store is saved once at the end so
// tokens refreshed mid-batch survive the process.
func (o *Orchestrator) Run(ctx context.Context, inputs []string) error {
	items, err := ParseItems(inputs)
	if err != nil {
		return err
	}

	sess, err := o.store.Get(ctx, "")
	if err != nil {
		return err
	}
	client := api.New(sess)

	var failed int
	for _, item := range items {
		if ctx.Err() != nil {
			o.saveStore()
			return ctx.Err()
		}

		if err := o.downloadItem(ctx, client, item); err != nil {
			if errors.Is(err, ErrHalted) {
				o.saveStore()
				return err
			}

			log.Errorf("item %s: %v", item, err)
			fmt.Printf("%s %s: %v\n", icon.Get(icon.Fail), style.Bold(item.String()), err)
			recordFailure(item, err.Error())
			failed++
		}
	}

	o.saveStore()
	if failed > 0 {
		return fmt.Errorf("%s failed, recorded for retry", util.Quantify(failed, "item", "items"))
	}
	return nil
}

func (o *Orchestrator) saveStore() {
	if err := o.store.Save(); err != nil {
		log.Errorf("persist session store: %v", err)
	}
}

// downloadItem resolves one item, falling back to other accounts when the
// default session cannot see it, then runs every resulting job.
func (o *Orchestrator) downloadItem(ctx context.Context, client *api.Client, item Item) error {
	itemClient, res, err := o.resolveWithFallback(ctx, client, item)
	if err != nil {
		return err
	}

	total := len(res.tracks) + len(res.videos)
	if total == 0 {
		fmt.Printf("%s %s has nothing to download\n", icon.Get(icon.Skip), item)
		return nil
	}
	fmt.Printf("%s %s: %s\n", icon.Get(icon.Download), style.Bold(item.String()),
		util.Quantify(total, "item", "items"))

	var firstErr error
	covers := map[string]struct{}{}
	defer o.cleanupCovers(covers)

	for _, job := range res.tracks {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := o.trackWithFallback(ctx, itemClient, job)
		if result.Cover != "" {
			covers[result.Cover] = struct{}{}
		}
		switch {
		case errors.Is(err, ErrHalted):
			return err
		case err != nil:
			fmt.Printf("  %s %s: %v\n", icon.Get(icon.Fail), job.track.Title, err)
			if firstErr == nil {
				firstErr = err
			}
		case result.Skipped:
			fmt.Printf("  %s %s\n", icon.Get(icon.Skip), style.Faint(job.track.Title))
		default:
			fmt.Printf("  %s %s\n", icon.Get(icon.Success), result.Path)
		}
	}

	for _, video := range res.videos {
		result, err := o.downloadVideo(ctx, itemClient, video)
		switch {
		case err != nil:
			fmt.Printf("  %s %s: %v\n", icon.Get(icon.Fail), video.Title, err)
			if firstErr == nil {
				firstErr = err
			}
		case result.Skipped:
			fmt.Printf("  %s %s\n", icon.Get(icon.Skip), style.Faint(video.Title))
		default:
			fmt.Printf("  %s %s\n", icon.Get(icon.Success), result.Path)
		}
	}

	return firstErr
}

// cleanupCovers removes the shared album artwork files an item left behind,
// unless the configuration asks to keep them next to the tracks.
func (o *Orchestrator) cleanupCovers(covers map[string]struct{}) {
	if o.opts.KeepCover {
		return
	}
	for path := range covers {
		if err := filesystem.API().Remove(path); err != nil {
			log.Debugf("remove cover %s: %v", path, err)
		}
	}
}

// resolveWithFallback resolves the item with the given client, and on a
// region lock walks the account selector for a session that can see it. The
// substituted client is scoped to this one item; the default session is
// untouched for the rest of the batch.
func (o *Orchestrator) resolveWithFallback(ctx context.Context, client *api.Client, item Item) (*api.Client, *resolved, error) {
	res, err := o.resolve(ctx, client, item)
	if err == nil {
		return client, res, nil
	}
	if !api.IsRegionLocked(err) || !o.fallbackEnabled() {
		return nil, nil, err
	}

	log.Warnf("%s looks region-locked for the default session, trying other accounts", item)
	o.selector.Reset()
	for {
		candidate, name, serr := o.selector.Next(ctx, item)
		if serr != nil {
			return nil, nil, err
		}
		if candidate.Session() == client.Session() {
			continue
		}

		res, rerr := o.resolve(ctx, candidate, item)
		if rerr == nil {
			log.Infof("%s served by session %q (%s)", item, name, candidate.Session().CountryCode)
			return candidate, res, nil
		}
		log.Debugf("%s still unavailable via %q: %v", item, name, rerr)
	}
}

// fallbackEnabled reports whether the run may touch sessions other than the
// one it started with. Without brute force or autoselect, other stored
// accounts are never used implicitly.
func (o *Orchestrator) fallbackEnabled() bool {
	return o.opts.BruteForce || o.opts.Autoselect
}

// recoverable reports whether a track failure is worth retrying with a
// different session.
func recoverable(err error) bool {
	return api.IsRegionLocked(err) ||
		api.IsInsufficientPrivilege(err) ||
		errors.Is(err, api.ErrUnsupportedManifest)
}

// trackWithFallback downloads one track, retrying with other accounts when
// the bound session lacks the privilege or device type for it.
func (o *Orchestrator) trackWithFallback(ctx context.Context, client *api.Client, job trackJob) (trackResult, error) {
	res, err := o.downloadTrack(ctx, client, job)
	if err == nil || !recoverable(err) || !o.fallbackEnabled() {
		return res, err
	}

	log.Warnf("track %d needs a different session: %v", job.track.ID, err)
	trackItem := Item{Kind: KindTrack, ID: fmt.Sprint(job.track.ID)}

	o.selector.Reset()
	for {
		candidate, name, serr := o.selector.Next(ctx, trackItem)
		if serr != nil {
			// Exhausted: report the original failure, not the exhaustion.
			return res, err
		}
		if candidate.Session() == client.Session() {
			continue
		}

		retried, rerr := o.downloadTrack(ctx, candidate, job)
		if rerr == nil || !recoverable(rerr) {
			if rerr == nil {
				log.Infof("track %d served by session %q", job.track.ID, name)
			}
			return retried, rerr
		}
	}
}
