package gomedia

import (
	"math"
	"strings"
)

// Reserved format names.
const (
	// FormatAdmin is the internal preview size rendered for every context.
	FormatAdmin = "admin"
	// FormatReference is the original, untransformed asset.
	FormatReference = "reference"
)

// IsReservedFormat reports whether name is one of the reserved formats.
func IsReservedFormat(name string) bool {
	return name == FormatAdmin || name == FormatReference
}

// Format is a named thumbnail transformation.
type Format struct {
	Width          *int           `mapstructure:"width"`
	Height         *int           `mapstructure:"height"`
	Quality        int            `mapstructure:"quality"`
	Extension      string         `mapstructure:"format"`
	Constraint     bool           `mapstructure:"constraint"`
	Resizer        string         `mapstructure:"resizer"`
	ResizerOptions map[string]any `mapstructure:"resizer_options"`
}

// Dimension returns a pointer to v, for Format literals.
func Dimension(v int) *int { return &v }

// Box is a width/height pair.
type Box struct {
	Width  int
	Height int
}

// Scale multiplies both sides by ratio, rounding to the nearest pixel.
func (b Box) Scale(ratio float64) Box {
	return Box{
		Width:  int(math.Round(float64(b.Width) * ratio)),
		Height: int(math.Round(float64(b.Height) * ratio)),
	}
}

// DownloadMode selects how a download is served.
type DownloadMode string

const (
	DownloadModeHTTP           DownloadMode = "http"
	DownloadModeXSendfile      DownloadMode = "X-Sendfile"
	DownloadModeXAccelRedirect DownloadMode = "X-Accel-Redirect"
)

// Valid reports whether m is a known download mode.
func (m DownloadMode) Valid() bool {
	switch m {
	case DownloadModeHTTP, DownloadModeXSendfile, DownloadModeXAccelRedirect:
		return true
	}
	return false
}

// DownloadPolicy names the authorization strategy and serving mode.
type DownloadPolicy struct {
	Strategy string
	Mode     DownloadMode
}

// Context binds a logical namespace to its providers, formats and download
// policy.
type Context struct {
	Providers []string
	Formats   map[string]Format
	Download  *DownloadPolicy
}

// FormatName returns the context-qualified name of format for media. Reserved
// names and names already carrying the context prefix are returned unchanged.
func FormatName(m *Media, format string) string {
	if IsReservedFormat(format) {
		return format
	}
	prefix := m.Context + "_"
	if strings.HasPrefix(format, prefix) {
		return format
	}
	return prefix + format
}

// BelongsToContext reports whether the format name is scoped to the media's
// context, the admin format always is. The match includes the "_" separator
// so a "news" media never picks up "newsletter_*" formats.
func BelongsToContext(m *Media, format string) bool {
	if format == FormatAdmin {
		return true
	}
	return m.Context != "" && strings.HasPrefix(format, m.Context+"_")
}
