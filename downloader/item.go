package downloader

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/mo"
)

// Kind classifies a requested media item.
type Kind string

const (
	KindTrack    Kind = "track"
	KindAlbum    Kind = "album"
	KindPlaylist Kind = "playlist"
	KindArtist   Kind = "artist"
	KindVideo    Kind = "video"
)

// Item is one parsed download request. CountryHint carries the region a share
// URL advertised, used by autoselection to prefer a matching session.
type Item struct {
	Kind        Kind
	ID          string
	CountryHint mo.Option[string]
}

func (i Item) String() string {
	return fmt.Sprintf("%s/%s", i.Kind, i.ID)
}

// NumericID returns the item id as an integer. Playlists carry UUIDs and have
// no numeric form.
func (i Item) NumericID() (int64, error) {
	return strconv.ParseInt(i.ID, 10, 64)
}

var (
	kindPattern    = regexp.MustCompile(`(?i)/(track|album|playlist|artist|video)/([a-zA-Z0-9-]+)`)
	compactPattern = regexp.MustCompile(`(?i)^(track|album|playlist|artist|video)[:/]([a-zA-Z0-9-]+)$`)
	countryPrefix  = regexp.MustCompile(`^([A-Z]{2}):(.+)$`)
)

// ParseItem interprets one user-supplied input: a share URL, a listen URL, or
// a compact kind:id form. An optional "CC:" prefix or a countryCode query
// parameter becomes the item's country hint.
func ParseItem(input string) (Item, error) {
	input = strings.TrimSpace(input)

	var hint mo.Option[string]
	if m := countryPrefix.FindStringSubmatch(input); m != nil {
		hint = mo.Some(m[1])
		input = m[2]
	}

	if m := compactPattern.FindStringSubmatch(input); m != nil {
		return Item{Kind: Kind(strings.ToLower(m[1])), ID: m[2], CountryHint: hint}, nil
	}

	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return Item{}, fmt.Errorf("unrecognized item %q", input)
	}

	if cc := u.Query().Get("countryCode"); len(cc) == 2 {
		hint = mo.Some(strings.ToUpper(cc))
	}

	m := kindPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return Item{}, fmt.Errorf("no downloadable item in %q", input)
	}
	return Item{Kind: Kind(strings.ToLower(m[1])), ID: m[2], CountryHint: hint}, nil
}

// ParseItems parses a batch of inputs, failing on the first malformed one so a
// typo is caught before any download starts.
func ParseItems(inputs []string) ([]Item, error) {
	items := make([]Item, 0, len(inputs))
	for _, input := range inputs {
		item, err := ParseItem(input)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
