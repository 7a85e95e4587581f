package provider

import (
	"maps"
	"net/url"
	"regexp"

	gomedia "github.com/shoraid/go-mediaprovider"
)

var (
	dailymotionURLPattern = regexp.MustCompile(`(?:dailymotion\.com/(?:embed/)?video/|dai\.ly/)([0-9A-Za-z]+)`)
	dailymotionIDPattern  = regexp.MustCompile(`^[0-9A-Za-z]+$`)
)

// DailyMotionProvider handles videos hosted on DailyMotion.
type DailyMotionProvider struct {
	*VideoProvider
}

var _ gomedia.MediaProvider = (*DailyMotionProvider)(nil)

func NewDailyMotionProvider(name string, cfg Config, client gomedia.HTTPClient) (*DailyMotionProvider, error) {
	video, err := newVideoProvider(name, cfg, client)
	if err != nil {
		return nil, err
	}

	p := &DailyMotionProvider{VideoProvider: video}
	p.bindSite(p)
	return p, nil
}

func (p *DailyMotionProvider) Info() gomedia.ProviderInfo {
	return gomedia.ProviderInfo{
		Title:       p.name,
		Description: "dailymotion",
		Image:       "bundles/gomedia/dailymotion-icon.png",
		Options:     map[string]any{"class": "fa fa-video-camera"},
	}
}

func (p *DailyMotionProvider) extractReference(input string) (string, bool) {
	if match := dailymotionURLPattern.FindStringSubmatch(input); match != nil {
		return match[1], true
	}
	if dailymotionIDPattern.MatchString(input) {
		return input, true
	}
	return "", false
}

func (p *DailyMotionProvider) referenceURL(ref string) string {
	return "https://www.dailymotion.com/video/" + ref
}

func (p *DailyMotionProvider) oembedURL(ref string) string {
	return "https://www.dailymotion.com/services/oembed?url=" + url.QueryEscape(p.referenceURL(ref)) + "&format=json"
}

func (p *DailyMotionProvider) applyMetadata(m *gomedia.Media, metadata map[string]any) {
	applyCommonMetadata(m, metadata)
}

// HelperProperties returns the embed player settings.
func (p *DailyMotionProvider) HelperProperties(m *gomedia.Media, format string, opts gomedia.HelperOptions) (gomedia.HelperProperties, error) {
	box, err := p.box(m, gomedia.FormatName(m, format), opts)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"related":           "0",
		"explicit":          "0",
		"autoPlay":          "0",
		"autoMute":          "0",
		"unmuteOnMouseOver": "0",
		"start":             "0",
		"enableApi":         "0",
		"chromeless":        "0",
		"expendVideo":       "0",
	}
	maps.Copy(params, opts.PlayerURLParameters)

	props := gomedia.HelperProperties{
		"player_parameters": encodeQuery(params),
		"allowFullScreen":   "true",
		"allowScriptAccess": "always",
		"width":             box.Width,
		"height":            box.Height,
		"embed_url":         "https://www.dailymotion.com/embed/video/" + m.ProviderReference.String(),
	}
	maps.Copy(props, opts.PlayerParameters)
	maps.Copy(props, opts.Attributes)
	return props, nil
}
