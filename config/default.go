// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/tidewave-cli/tidewave/color"
	"github.com/tidewave-cli/tidewave/constant"
	"github.com/tidewave-cli/tidewave/key"
	"github.com/tidewave-cli/tidewave/style"
	"github.com/tidewave-cli/tidewave/where"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Tidewave + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
	})
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.DownloadsPath, where.Downloads(), "Root directory downloaded media is written to")
	register(key.DownloadsAlbumTemplate, constant.DefaultAlbumTemplate, "Directory name template for albums.\nPlaceholders: {album_artist}, {album}, {date}, {quality}, {explicit}")
	register(key.DownloadsTrackTemplate, constant.DefaultTrackTemplate, "File name template for tracks, without extension.\nPlaceholders: {tracknumber}, {discnumber}, {title}, {artist}, {album}, {quality}, {explicit}")
	register(key.DownloadsOverwrite, false, "Re-download and overwrite files that already exist.\nWhen disabled, existing files are skipped without any network calls")
	register(key.DownloadsKeepCover, true, "Keep the Cover.jpg file in the album directory after embedding it")
	register(key.DownloadsArtworkSize, 1280, "Pixel size of the square cover art to fetch")
	register(key.DownloadsTries, 3, "Attempts for fetching album metadata before giving up on a track")
	register(key.QualityPreferred, "LOSSLESS", "Preferred stream quality.\nAvailable options are: LOW, HIGH, LOSSLESS, HI_RES")
	register(key.QualitySkipMismatch, true, "Skip a track when the preferred quality is unavailable.\nWhen disabled, the remaining batch is halted instead")
	register(key.AccountsBruteForce, false, "Try every stored session in turn until one can fetch and stream an item")
	register(key.AccountsAutoselect, true, "Restrict fallback candidates to sessions matching the region hint of the requested URL")
	register(key.FiltersSkipVariants, true, "Skip remix, karaoke and commentary editions when resolving an artist")
	register(key.FiltersDedupe360, true, "Drop a 360 Reality Audio edition when a regular edition with the same title and track count exists")
	register(key.FiltersSkipSingles, false, "Drop a single when one of its track titles also appears on a fetched album or EP")
	register(key.VideoMaxResolution, 1080, "Resolution ceiling for downloaded videos")
	register(key.NetworkTLSSpoof, false, "Fetch stream segments with a browser TLS fingerprint.\nHelps when the CDN rejects standard Go clients")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, nerd (nerd-font required)")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":  style.Faint,
	"bold":   style.Bold,
	"purple": style.Fg(color.Purple),
	"blue":   style.Fg(color.Blue),
	"value":  func(k string) any { return viper.Get(k) },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}`))
