package provider

import (
	"fmt"
	"maps"
	"net/url"
	"regexp"

	"github.com/google/uuid"

	gomedia "github.com/shoraid/go-mediaprovider"
)

var (
	vimeoURLPattern = regexp.MustCompile(`vimeo\.com/(?:[^?#]*/)?(\d+)`)
	vimeoIDPattern  = regexp.MustCompile(`^\d+$`)
)

// VimeoProvider handles videos hosted on Vimeo.
type VimeoProvider struct {
	*VideoProvider
}

var _ gomedia.MediaProvider = (*VimeoProvider)(nil)

func NewVimeoProvider(name string, cfg Config, client gomedia.HTTPClient) (*VimeoProvider, error) {
	video, err := newVideoProvider(name, cfg, client)
	if err != nil {
		return nil, err
	}

	p := &VimeoProvider{VideoProvider: video}
	p.bindSite(p)
	return p, nil
}

func (p *VimeoProvider) Info() gomedia.ProviderInfo {
	return gomedia.ProviderInfo{
		Title:       p.name,
		Description: "vimeo",
		Image:       "bundles/gomedia/vimeo-icon.png",
		Options:     map[string]any{"class": "fa fa-vimeo-square"},
	}
}

func (p *VimeoProvider) extractReference(input string) (string, bool) {
	if match := vimeoURLPattern.FindStringSubmatch(input); match != nil {
		return match[1], true
	}
	if vimeoIDPattern.MatchString(input) {
		return input, true
	}
	return "", false
}

func (p *VimeoProvider) referenceURL(ref string) string {
	return "https://vimeo.com/" + ref
}

func (p *VimeoProvider) oembedURL(ref string) string {
	return "https://vimeo.com/api/oembed.json?url=" + url.QueryEscape(p.referenceURL(ref))
}

func (p *VimeoProvider) applyMetadata(m *gomedia.Media, metadata map[string]any) {
	applyCommonMetadata(m, metadata)
	if d, ok := metadata["duration"].(float64); ok {
		m.Length = d
	}
}

// HelperProperties returns the embed player settings.
func (p *VimeoProvider) HelperProperties(m *gomedia.Media, format string, opts gomedia.HelperOptions) (gomedia.HelperProperties, error) {
	box, err := p.box(m, gomedia.FormatName(m, format), opts)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"fullscreen": "1",
		"title":      "1",
		"byline":     "0",
		"portrait":   "1",
		"color":      "c9ff23",
		"hd_off":     "0",
		"js_onLoad":  "0",
		"js_swf_id":  "vimeo_player_" + uuid.NewString()[:8],
	}
	maps.Copy(params, opts.PlayerURLParameters)

	props := gomedia.HelperProperties{
		"src":              encodeQuery(params),
		"id":               params["js_swf_id"],
		"frameborder":      0,
		"width":            box.Width,
		"height":           box.Height,
		"class":            "",
		"allow_fullscreen": false,
		"embed_url":        fmt.Sprintf("https://player.vimeo.com/video/%s", m.ProviderReference.String()),
	}
	maps.Copy(props, opts.PlayerParameters)
	maps.Copy(props, opts.Attributes)
	return props, nil
}
