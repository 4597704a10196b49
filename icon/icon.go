// Package icon provides a flexible multi-variant rendering engine for UI symbols and feedback indicators.
//
// Icons can be displayed as emoji, nerd-font glyphs or plain ASCII depending on user preference.
package icon

import (
	"github.com/spf13/viper"
	"github.com/tidewave-cli/tidewave/key"
)

// Visual Variant Constants - these define the supported aesthetic styles for icon rendering.
const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// Icon identifies a single UI symbol in the global registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Download
	Lock
	Skip
)

// iconDef encapsulates the visual representations of a single UI symbol across all supported variants.
type iconDef struct {
	emoji string
	nerd  string
	plain string
}

var icons = map[Icon]iconDef{
	Success:  {emoji: "✅", nerd: "", plain: "[ok]"},
	Fail:     {emoji: "❌", nerd: "", plain: "[err]"},
	Progress: {emoji: "⏳", nerd: "", plain: "..."},
	Download: {emoji: "⬇️", nerd: "", plain: "[dl]"},
	Lock:     {emoji: "🔒", nerd: "", plain: "[drm]"},
	Skip:     {emoji: "⏭️", nerd: "", plain: "[skip]"},
}

// Get retrieves the visual representation for an Icon based on the global icons variant configuration.
func Get(i Icon) string {
	d := icons[i]
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return d.plain
	}
}
