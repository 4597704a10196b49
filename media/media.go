// Package media fetches stream-delivered content through an external muxer.
package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Fetcher retrieves a manifest-addressed stream into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, manifestURL, target string) error
}

// FFmpegFetcher shells out to ffmpeg to pull and remux a stream.
type FFmpegFetcher struct{}

// NewFetcher returns the default stream fetcher.
func NewFetcher() Fetcher {
	return &FFmpegFetcher{}
}

// Available reports whether the external muxer can be invoked.
func (f *FFmpegFetcher) Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// Fetch pulls the stream behind manifestURL into target, copying codecs.
func (f *FFmpegFetcher) Fetch(ctx context.Context, manifestURL, target string) error {
	if !f.Available() {
		return errors.New("ffmpeg not found in PATH; it is required for stream content")
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", manifestURL, "-c", "copy", target)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %v: %s", err, out)
	}
	return nil
}
