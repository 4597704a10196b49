// Package api implements the authenticated REST client for the streaming service.
//
// All payloads are decoded into explicit typed records at this boundary;
// untyped maps never cross into the rest of the application.
package api

import "encoding/json"

// Artist identifies a performing or contributing artist.
type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Album is the service's album record. When nested inside a Track only a
// summary subset of fields is populated.
type Album struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Cover           string   `json:"cover"`
	ReleaseDate     string   `json:"releaseDate"`
	NumberOfTracks  int      `json:"numberOfTracks"`
	NumberOfVolumes int      `json:"numberOfVolumes"`
	Explicit        bool     `json:"explicit"`
	AudioQuality    string   `json:"audioQuality"`
	AudioModes      []string `json:"audioModes"`
	AllowStreaming  bool     `json:"allowStreaming"`
	Type            string   `json:"type"`
	Artist          Artist   `json:"artist"`
	Artists         []Artist `json:"artists"`
}

// Track is the service's track record.
type Track struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Version        string   `json:"version"`
	Duration       int      `json:"duration"`
	TrackNumber    int      `json:"trackNumber"`
	VolumeNumber   int      `json:"volumeNumber"`
	ISRC           string   `json:"isrc"`
	Copyright      string   `json:"copyright"`
	Explicit       bool     `json:"explicit"`
	AudioQuality   string   `json:"audioQuality"`
	AllowStreaming bool     `json:"allowStreaming"`
	Artist         Artist   `json:"artist"`
	Artists        []Artist `json:"artists"`
	Album          Album    `json:"album"`
}

// Video is the service's music-video record.
type Video struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Duration       int      `json:"duration"`
	TrackNumber    int      `json:"trackNumber"`
	VolumeNumber   int      `json:"volumeNumber"`
	Explicit       bool     `json:"explicit"`
	Quality        string   `json:"quality"`
	AllowStreaming bool     `json:"allowStreaming"`
	ReleaseDate    string   `json:"releaseDate"`
	Artist         Artist   `json:"artist"`
	Artists        []Artist `json:"artists"`
	Album          Album    `json:"album"`
}

// PlaylistItem wraps one entry of a playlist, which is either a track or a video.
type PlaylistItem struct {
	Type string          `json:"type"`
	Item json.RawMessage `json:"item"`
}

// IsTrack reports whether the entry is a track.
func (p *PlaylistItem) IsTrack() bool {
	return p.Type == "track"
}

// Track decodes the wrapped item as a track.
func (p *PlaylistItem) Track() (*Track, error) {
	var t Track
	if err := json.Unmarshal(p.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Contributor credits one person with a role on a track.
type Contributor struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// PlaybackInfo is the playback-negotiation response for one track or video.
// The embedded manifest is base64-encoded and interpreted by ParseManifest.
type PlaybackInfo struct {
	TrackID          int64  `json:"trackId"`
	VideoID          int64  `json:"videoId"`
	AudioQuality     string `json:"audioQuality"`
	VideoQuality     string `json:"videoQuality"`
	AudioMode        string `json:"audioMode"`
	ManifestMimeType string `json:"manifestMimeType"`
	Manifest         string `json:"manifest"`
}

// page is the generic paginated list envelope used by all list endpoints.
type page[T any] struct {
	Limit              int `json:"limit"`
	Offset             int `json:"offset"`
	TotalNumberOfItems int `json:"totalNumberOfItems"`
	Items              []T `json:"items"`
}

// errorEnvelope is the service's structured error payload.
type errorEnvelope struct {
	Status      int    `json:"status"`
	SubStatus   int    `json:"subStatus"`
	UserMessage string `json:"userMessage"`
}
