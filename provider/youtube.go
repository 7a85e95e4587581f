package provider

import (
	"fmt"
	"maps"
	"net/url"
	"regexp"

	gomedia "github.com/shoraid/go-mediaprovider"
)

var (
	youtubeURLPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?(?:youtu\.be/|youtube(?:-nocookie)?\.com/(?:(?:watch)?\?(?:.*&)?vi?=|(?:embed|v|vi|shorts)/))([A-Za-z0-9_-]{11})`)
	youtubeIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// YouTubeProvider handles videos hosted on YouTube.
type YouTubeProvider struct {
	*VideoProvider

	// HTML5 selects the iframe player.
	HTML5 bool
}

var _ gomedia.MediaProvider = (*YouTubeProvider)(nil)

func NewYouTubeProvider(name string, cfg Config, client gomedia.HTTPClient, html5 bool) (*YouTubeProvider, error) {
	video, err := newVideoProvider(name, cfg, client)
	if err != nil {
		return nil, err
	}

	p := &YouTubeProvider{VideoProvider: video, HTML5: html5}
	p.bindSite(p)
	return p, nil
}

func (p *YouTubeProvider) Info() gomedia.ProviderInfo {
	return gomedia.ProviderInfo{
		Title:       p.name,
		Description: "youtube",
		Image:       "bundles/gomedia/youtube-icon.png",
		Options:     map[string]any{"class": "fa fa-youtube"},
	}
}

func (p *YouTubeProvider) extractReference(input string) (string, bool) {
	if match := youtubeURLPattern.FindStringSubmatch(input); match != nil {
		return match[1], true
	}
	if youtubeIDPattern.MatchString(input) {
		return input, true
	}
	return "", false
}

func (p *YouTubeProvider) referenceURL(ref string) string {
	return "https://www.youtube.com/watch?v=" + ref
}

func (p *YouTubeProvider) oembedURL(ref string) string {
	return "https://www.youtube.com/oembed?url=" + url.QueryEscape(p.referenceURL(ref)) + "&format=json"
}

func (p *YouTubeProvider) applyMetadata(m *gomedia.Media, metadata map[string]any) {
	applyCommonMetadata(m, metadata)
}

// HelperProperties returns the embed player settings.
func (p *YouTubeProvider) HelperProperties(m *gomedia.Media, format string, opts gomedia.HelperOptions) (gomedia.HelperProperties, error) {
	box, err := p.box(m, gomedia.FormatName(m, format), opts)
	if err != nil {
		return nil, err
	}

	urlParams := map[string]string{
		"rel":            "0",
		"autoplay":       "0",
		"loop":           "0",
		"enablejsapi":    "0",
		"disablekb":      "0",
		"egm":            "0",
		"border":         "0",
		"start":          "0",
		"fs":             "1",
		"hd":             "1",
		"showsearch":     "0",
		"showinfo":       "0",
		"iv_load_policy": "1",
		"cc_load_policy": "1",
		"wmode":          "window",
	}
	maps.Copy(urlParams, opts.PlayerURLParameters)

	playerParams := map[string]any{
		"border":            urlParams["border"],
		"allowFullScreen":   urlParams["fs"] == "1",
		"allowScriptAccess": "always",
		"wmode":             "window",
	}
	maps.Copy(playerParams, opts.PlayerParameters)
	playerParams["width"] = box.Width
	playerParams["height"] = box.Height

	props := gomedia.HelperProperties{
		"html5":                 p.HTML5,
		"player_url_parameters": encodeQuery(urlParams),
		"player_parameters":     playerParams,
		"embed_url":             fmt.Sprintf("https://www.youtube.com/embed/%s", m.ProviderReference.String()),
	}
	maps.Copy(props, opts.Attributes)
	return props, nil
}

func encodeQuery(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}
