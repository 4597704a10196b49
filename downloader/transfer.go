package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/tidewave-cli/tidewave/filesystem"
	"github.com/tidewave-cli/tidewave/network"
)

// transfer streams one or more content URLs into a single local file, in
// order. On any failure, including cancellation, the partial file is removed
// so an interrupted run never leaves a plausible-looking final file behind.
func transfer(ctx context.Context, urls []string, target string) (err error) {
	file, err := filesystem.API().OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return &FileSystemError{Path: target, Err: err}
	}

	defer func() {
		file.Close()
		if err != nil {
			filesystem.API().Remove(target)
		}
	}()

	client := network.SpoofedClient()
	for _, url := range urls {
		if err = copyURL(ctx, client, url, file); err != nil {
			return err
		}
	}
	return nil
}

func copyURL(ctx context.Context, client *http.Client, url string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("content server returned HTTP %d", resp.StatusCode)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return err
	}
	return nil
}
