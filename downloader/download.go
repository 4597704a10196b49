package downloader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/tidewave-cli/tidewave/api"
	"github.com/tidewave-cli/tidewave/decrypt"
	"github.com/tidewave-cli/tidewave/filesystem"
	"github.com/tidewave-cli/tidewave/log"
	"github.com/tidewave-cli/tidewave/tag"
	"github.com/tidewave-cli/tidewave/util"
	"github.com/tidewave-cli/tidewave/where"
)

// knownExtensions covers every container the service delivers. Checked before
// any network call so an already-downloaded track costs nothing.
var knownExtensions = []string{"flac", "m4a", "mp4"}

// trackResult reports one finished track job. Cover is the shared album
// artwork file the track's tags were fed from, subject to cleanup at the end
// of the item.
type trackResult struct {
	Path    string
	Cover   string
	Skipped bool
}

// qualityRank orders quality tiers for mismatch detection.
var qualityRank = map[string]int{
	string(api.QualityLow):      0,
	string(api.QualityHigh):     1,
	string(api.QualityLossless): 2,
	string(api.QualityHiRes):    3,
}

// qualityMismatch reports whether the negotiated quality falls below the
// preferred tier. A folded MQA stream satisfies a HI_RES preference.
func qualityMismatch(preferred api.Quality, delivered, codec string) error {
	if qualityRank[delivered] >= qualityRank[string(preferred)] {
		return nil
	}
	if preferred == api.QualityHiRes && codec == "mqa" {
		return nil
	}
	return &QualityMismatchError{Preferred: preferred, Delivered: delivered}
}

func existingTarget(dir, base string) (string, bool) {
	for _, ext := range knownExtensions {
		path := filepath.Join(dir, base+"."+ext)
		if ok, _ := filesystem.API().Exists(path); ok {
			return path, true
		}
	}
	return "", false
}

// downloadTrack runs the full per-track pipeline: album completion, path
// computation, idempotence check, manifest negotiation, transfer, decryption
// and tagging. A failure at any step leaves no file at the final path.
func (o *Orchestrator) downloadTrack(ctx context.Context, client *api.Client, job trackJob) (trackResult, error) {
	var res trackResult
	track := job.track

	if !track.AllowStreaming {
		return res, ErrNotStreamable
	}

	album := job.album
	if album == nil {
		var err error
		for attempt := 0; attempt < util.Max(o.opts.Tries, 1); attempt++ {
			if album, err = client.Album(ctx, track.Album.ID); err == nil {
				break
			}
			log.Warnf("album %d fetch attempt %d: %v", track.Album.ID, attempt+1, err)
		}
		if err != nil {
			return res, err
		}
	}

	dir := o.trackDir(&track, album)
	if err := filesystem.API().MkdirAll(dir, 0755); err != nil {
		return res, &FileSystemError{Path: dir, Err: err}
	}
	base := o.trackBase(&track, album)

	if existing, ok := existingTarget(dir, base); ok && !o.opts.Overwrite {
		log.Infof("already downloaded: %s", existing)
		res.Path = existing
		res.Skipped = true
		return res, nil
	}

	pi, err := client.PlaybackInfo(ctx, track.ID, o.opts.Quality)
	if err != nil {
		return res, err
	}
	manifest, err := api.ParseManifest(pi)
	if err != nil {
		return res, err
	}

	if mismatch := qualityMismatch(o.opts.Quality, pi.AudioQuality, manifest.Codec); mismatch != nil {
		if o.opts.SkipMismatch {
			log.Warnf("skipping %q: %v", track.Title, mismatch)
			res.Skipped = true
			return res, nil
		}
		return res, fmt.Errorf("%w: %v", ErrHalted, mismatch)
	}

	ext := manifest.FileExtension()
	if ext == "" {
		ext = "m4a"
	}
	target := filepath.Join(dir, base+"."+ext)
	log.Infof("downloading %q as %s", track.Title, api.CodecDescription(manifest.Codec, manifest.MimeType))

	switch manifest.Encryption {
	case api.EncryptionNone:
		err = transfer(ctx, manifest.URLs, target)

	case api.EncryptionKeyed:
		if err = transfer(ctx, manifest.URLs, target); err == nil {
			if err = decrypt.File(target, manifest.KeyID); err != nil {
				filesystem.API().Remove(target)
			}
		}

	case api.EncryptionDRM:
		err = o.downloadDRM(ctx, manifest, track.ID, target)
	}
	if err != nil {
		return res, err
	}

	res.Cover = o.embedMetadata(ctx, client, &track, album, target)
	res.Path = target
	return res, nil
}

// downloadDRM fetches the encrypted segment sequence into a temporary
// directory, asks for the externally supplied content key and runs the
// decrypt+remux step. The final path is only written by the remux.
func (o *Orchestrator) downloadDRM(ctx context.Context, manifest *api.Manifest, trackID int64, target string) error {
	segments, err := manifest.DRMSegments()
	if err != nil {
		return err
	}

	tmp := filepath.Join(where.Temp(), fmt.Sprintf("track-%d", trackID))
	if err := filesystem.API().MkdirAll(tmp, 0755); err != nil {
		return &FileSystemError{Path: tmp, Err: err}
	}
	defer filesystem.API().RemoveAll(tmp)

	assembled := filepath.Join(tmp, "stream.mp4")
	if err := transfer(ctx, segments, assembled); err != nil {
		return err
	}

	var key string
	prompt := &survey.Input{
		Message: "This track is protected. Enter its decryption key (kid:key):",
	}
	if err := survey.AskOne(prompt, &key, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	if err := decrypt.Remux(assembled, target, strings.TrimSpace(key)); err != nil {
		filesystem.API().Remove(target)
		return err
	}
	return nil
}

// embedMetadata fetches cover art and contributor credits, then tags the
// finished file. Best effort throughout: a missing cover or failed credits
// lookup degrades the tags, never the download. Returns the cover file path,
// empty when no artwork could be fetched.
func (o *Orchestrator) embedMetadata(ctx context.Context, client *api.Client, track *api.Track, album *api.Album, target string) string {
	coverPath := filepath.Join(o.albumDir(album), "cover.jpg")
	if ok, _ := filesystem.API().Exists(coverPath); !ok {
		cover := album.Cover
		if cover == "" {
			cover = track.Album.Cover
		}
		if url := api.CoverURL(cover, o.opts.ArtworkSize); url != "" {
			if err := transfer(ctx, []string{url}, coverPath); err != nil {
				log.Warnf("cover fetch for album %d: %v", album.ID, err)
				coverPath = ""
			}
		} else {
			coverPath = ""
		}
	}

	credits, err := client.Contributors(ctx, track.ID)
	if err != nil {
		log.Debugf("contributors for track %d: %v", track.ID, err)
	}

	meta := tag.Metadata{Track: track, Album: album, Credits: credits, CoverPath: coverPath}
	if err := o.tagger.Write(target, meta); err != nil {
		log.Errorf("tagging %s: %v", target, err)
	}
	return coverPath
}

// downloadVideo fetches one music video through the external stream fetcher.
func (o *Orchestrator) downloadVideo(ctx context.Context, client *api.Client, video api.Video) (trackResult, error) {
	var res trackResult

	if !video.AllowStreaming {
		return res, ErrNotStreamable
	}

	base := util.SanitizeFilename(fmt.Sprintf("%s - %s", video.Artist.Name, video.Title))
	target := filepath.Join(o.opts.Path, base+".mp4")

	if ok, _ := filesystem.API().Exists(target); ok && !o.opts.Overwrite {
		res.Path = target
		res.Skipped = true
		return res, nil
	}

	pi, err := client.VideoPlaybackInfo(ctx, video.ID, videoQuality(o.opts.VideoMaxResolution))
	if err != nil {
		return res, err
	}
	manifest, err := api.ParseManifest(pi)
	if err != nil {
		return res, err
	}
	if len(manifest.URLs) == 0 {
		return res, fmt.Errorf("video %d manifest carries no stream URL", video.ID)
	}

	if err := o.fetcher.Fetch(ctx, manifest.URLs[0], target); err != nil {
		filesystem.API().Remove(target)
		return res, err
	}
	res.Path = target
	return res, nil
}

func videoQuality(maxResolution int) string {
	switch {
	case maxResolution >= 720:
		return "HIGH"
	case maxResolution >= 480:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
