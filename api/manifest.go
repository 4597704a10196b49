package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Encryption identifies how a manifest's content is protected.
type Encryption int

const (
	// EncryptionNone marks plain content transferable as-is.
	EncryptionNone Encryption = iota

	// EncryptionKeyed marks content encrypted with a key derivable from the
	// manifest's key id. Decryptable without user interaction.
	EncryptionKeyed

	// EncryptionDRM marks content behind full content protection, requiring
	// an externally supplied decryption key.
	EncryptionDRM
)

// ErrUnsupportedManifest indicates the manifest MIME type cannot be handled by
// the bound session's device type. The track must be retried with a
// mobile-capable session rather than skipped silently.
var ErrUnsupportedManifest = errors.New("manifest MIME type not supported by this session type")

// drmMarker is the content-protection element present in DRM manifests.
const drmMarker = "ContentProtection"

// MIME types of the plain JSON manifest variants: bt for audio, emu for video.
const (
	btMimeType  = "vnd.tidal.bt"
	emuMimeType = "vnd.tidal.emu"
)

// Manifest is the decoded, transient description of where and how to fetch
// playable bytes for one track. Derived per download attempt, never persisted.
type Manifest struct {
	MimeType   string
	Codec      string
	Encryption Encryption
	KeyID      string
	URLs       []string

	// Raw holds the undecoded DASH payload for the DRM branch.
	Raw []byte
}

// btManifest is the wire shape of the plain JSON manifest.
type btManifest struct {
	MimeType       string   `json:"mimeType"`
	Codecs         string   `json:"codecs"`
	EncryptionType string   `json:"encryptionType"`
	KeyID          string   `json:"keyId"`
	URLs           []string `json:"urls"`
}

// ParseManifest decodes the base64 manifest embedded in a playback-info
// response and classifies its delivery branch.
func ParseManifest(pi *PlaybackInfo) (*Manifest, error) {
	decoded, err := base64.StdEncoding.DecodeString(pi.Manifest)
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	if strings.Contains(string(decoded), drmMarker) {
		return &Manifest{
			MimeType:   pi.ManifestMimeType,
			Encryption: EncryptionDRM,
			Raw:        decoded,
		}, nil
	}

	if !strings.Contains(pi.ManifestMimeType, btMimeType) &&
		!strings.Contains(pi.ManifestMimeType, emuMimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedManifest, pi.ManifestMimeType)
	}

	var bt btManifest
	if err := json.Unmarshal(decoded, &bt); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(bt.URLs) == 0 {
		return nil, errors.New("manifest carries no content URLs")
	}

	m := &Manifest{
		MimeType: bt.MimeType,
		Codec:    bt.Codecs,
		URLs:     bt.URLs,
	}
	if bt.EncryptionType != "" && bt.EncryptionType != "NONE" {
		m.Encryption = EncryptionKeyed
		m.KeyID = bt.KeyID
	}
	return m, nil
}

// FileExtension maps the manifest's content URL to a file extension by URL
// pattern matching for the flac/m4a/mp4 containers.
func (m *Manifest) FileExtension() string {
	if len(m.URLs) == 0 {
		return ""
	}
	url := m.URLs[0]
	switch {
	case strings.Contains(url, ".flac?"):
		return "flac"
	case strings.Contains(url, ".m4a?"), strings.Contains(url, ".mp4?"):
		return "m4a"
	default:
		return ""
	}
}

// CodecDescription renders a human-readable description of a manifest codec.
func CodecDescription(codec, mimeType string) string {
	switch codec {
	case "eac3":
		return "E-AC-3 JOC (Dolby Digital Plus with Dolby Atmos metadata)"
	case "ac4":
		return "AC-4 (Dolby AC-4 with Dolby Atmos immersive stereo)"
	case "mqa":
		if mimeType == "audio/flac" {
			return "FLAC with folded MQA (Master Quality Authenticated) metadata"
		}
		return "MQA (Master Quality Authenticated)"
	case "flac":
		return "FLAC (Free Lossless Audio Codec)"
	case "alac":
		return "ALAC (Apple Lossless Audio Codec)"
	case "mp4a.40.2":
		return "AAC (Advanced Audio Coding) at 320kb/s"
	case "mp4a.40.5":
		return "AAC (Advanced Audio Coding) at 96kb/s"
	default:
		return "Unknown"
	}
}
