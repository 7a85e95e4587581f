package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	gomedia "github.com/shoraid/go-mediaprovider"
	"github.com/shoraid/go-mediaprovider/metrics"
)

// site is what a video host contributes to VideoProvider.
type site interface {
	hooks

	// extractReference returns the video id found in input.
	extractReference(input string) (string, bool)
	// referenceURL is the public page of the video.
	referenceURL(ref string) string
	oembedURL(ref string) string
	// applyMetadata copies the oEmbed fields onto m.
	applyMetadata(m *gomedia.Media, metadata map[string]any)
}

// VideoProvider implements the lifecycle shared by remote video hosts.
type VideoProvider struct {
	*Base

	client gomedia.HTTPClient
	cache  *RemoteThumbnailCache
	site   site
}

func newVideoProvider(name string, cfg Config, client gomedia.HTTPClient) (*VideoProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: http client is required", gomedia.ErrInvalidConfig)
	}

	base, err := newBase(name, cfg)
	if err != nil {
		return nil, err
	}

	return &VideoProvider{
		Base:   base,
		client: client,
		cache:  NewRemoteThumbnailCache(cfg.Filesystem, client, cfg.PathGenerator, cfg.Metadata),
	}, nil
}

func (p *VideoProvider) bindSite(s site) {
	p.site = s
	p.bind(s)
}

func (p *VideoProvider) doTransform(ctx context.Context, m *gomedia.Media) error {
	text, ok := m.BinaryContent().(gomedia.Text)
	if !ok {
		return nil
	}

	ref, ok := p.site.extractReference(string(text))
	if !ok {
		log.Debug().Str("provider", p.name).Str("input", string(text)).Msg("no video reference found")
		return nil
	}

	m.ReplaceBinaryContent(gomedia.Text(ref))
	m.ProviderName = p.name
	m.ProviderStatus = gomedia.StatusOK
	m.ProviderReference = gomedia.AssignedReference(ref)

	return p.site.UpdateMetadata(ctx, m, true)
}

// UpdateMetadata fetches the oEmbed document of m. Fetch failures disable
// the media instead of failing. With force, the document fields overwrite
// the media fields and the cached thumbnail is dropped.
func (p *VideoProvider) UpdateMetadata(ctx context.Context, m *gomedia.Media, force bool) error {
	ref, ok := m.ProviderReference.Value()
	if !ok {
		return nil
	}

	metadata, err := p.fetchMetadata(ctx, p.site.oembedURL(ref))
	if err != nil {
		kind := "retrieve"
		if errors.Is(err, gomedia.ErrMetadataDecode) {
			kind = "decode"
		}
		metrics.MetadataFetchFailures.WithLabelValues(p.name, kind).Inc()
		log.Warn().Err(err).Str("provider", p.name).Str("reference", ref).Msg("failed to update video metadata")

		m.Enabled = false
		m.ProviderStatus = gomedia.StatusError
		return nil
	}

	previous := m.Clone()
	m.ProviderMetadata = metadata

	if force {
		p.site.applyMetadata(m, metadata)
		m.ContentType = "video/x-flv"

		if m.HasID() {
			return p.cache.Invalidate(ctx, previous)
		}
	}

	return nil
}

func (p *VideoProvider) fetchMetadata(ctx context.Context, endpoint string) (map[string]any, error) {
	body, err := p.client.SendRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w for: %s: %w", gomedia.ErrMetadataRetrieve, endpoint, err)
	}

	var metadata map[string]any
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("%w for: %s: %w", gomedia.ErrMetadataDecode, endpoint, err)
	}
	if len(metadata) == 0 {
		return nil, fmt.Errorf("%w for: %s", gomedia.ErrMetadataDecode, endpoint)
	}

	return metadata, nil
}

// ReferenceImage returns the remote thumbnail URL.
func (p *VideoProvider) ReferenceImage(m *gomedia.Media) string {
	return m.MetadataString("thumbnail_url", "")
}

// ReferenceFile returns the cached copy of the remote thumbnail.
func (p *VideoProvider) ReferenceFile(ctx context.Context, m *gomedia.Media) (*gomedia.BlobFile, error) {
	return p.cache.Fetch(ctx, m, p.site.ReferenceImage(m))
}

func (p *VideoProvider) referenceKey(m *gomedia.Media) string {
	if !m.HasID() {
		return ""
	}
	return p.cache.Key(m)
}

func (p *VideoProvider) GeneratePublicURL(m *gomedia.Media, format string) string {
	key := p.thumbnail.GeneratePublicURL(p.site, m, format)
	if isAbsoluteURL(key) {
		return key
	}
	return p.cdn.Path(key, m.CdnIsFlushable)
}

func (p *VideoProvider) GeneratePrivateURL(m *gomedia.Media, format string) (string, bool) {
	return p.thumbnail.GeneratePrivateURL(p.site, m, format), true
}

func (p *VideoProvider) PostPersist(ctx context.Context, m *gomedia.Media) error {
	if m.BinaryContent() == nil {
		return nil
	}

	if err := p.site.GenerateThumbnails(ctx, m); err != nil {
		return err
	}

	m.ResetBinaryContent()
	return nil
}

func (p *VideoProvider) PostUpdate(ctx context.Context, m *gomedia.Media) error {
	return p.PostPersist(ctx, m)
}

// Validate accepts any media, unrecognized references are ignored at
// transform time.
func (p *VideoProvider) Validate(*gomedia.ErrorElement, *gomedia.Media) {}

// DownloadResponse redirects to the video page on the remote host.
func (p *VideoProvider) DownloadResponse(_ context.Context, m *gomedia.Media, _ string, _ gomedia.DownloadMode, headers http.Header) (http.Handler, error) {
	ref, ok := m.ProviderReference.Value()
	if !ok {
		return nil, fmt.Errorf("%w: media %d has no video reference", gomedia.ErrNotFound, m.ID)
	}

	return &redirectResponse{location: p.site.referenceURL(ref), header: headers}, nil
}

// box returns the player size, explicit dimensions win over the format.
func (p *VideoProvider) box(m *gomedia.Media, format string, opts gomedia.HelperOptions) (gomedia.Box, error) {
	if opts.Width != nil || opts.Height != nil {
		if p.resizer == nil {
			return gomedia.Box{Width: derefInt(opts.Width), Height: derefInt(opts.Height)}, nil
		}
		return p.resizer.Box(m, gomedia.Format{Width: opts.Width, Height: opts.Height})
	}

	if format == gomedia.FormatReference {
		return m.Box(), nil
	}

	settings, ok := p.Format(format)
	if !ok {
		return gomedia.Box{}, fmt.Errorf("%w: %q", gomedia.ErrUnknownFormat, format)
	}
	if p.resizer == nil {
		return m.Box(), nil
	}
	return p.resizer.Box(m, settings)
}

type redirectResponse struct {
	location string
	header   http.Header
}

func (r *redirectResponse) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	copyHeader(w.Header(), r.header)
	http.Redirect(w, req, r.location, http.StatusFound)
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func metadataInt(metadata map[string]any, name string) (int, bool) {
	switch v := metadata[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func metadataString(metadata map[string]any, name string) string {
	if v, ok := metadata[name].(string); ok {
		return v
	}
	return ""
}

// applyCommonMetadata copies the oEmbed fields every host returns.
func applyCommonMetadata(m *gomedia.Media, metadata map[string]any) {
	if title := metadataString(metadata, "title"); title != "" {
		m.Name = title
	}
	m.Description = metadataString(metadata, "description")
	m.AuthorName = metadataString(metadata, "author_name")
	if w, ok := metadataInt(metadata, "width"); ok {
		m.Width = w
	}
	if h, ok := metadataInt(metadata, "height"); ok {
		m.Height = h
	}
}
