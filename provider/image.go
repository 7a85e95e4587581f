package provider

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	gomedia "github.com/shoraid/go-mediaprovider"
)

// ImageProvider stores images and renders their thumbnails.
type ImageProvider struct {
	*FileProvider

	decoder gomedia.ImageDecoder
}

var _ gomedia.MediaProvider = (*ImageProvider)(nil)

// NewImageProvider creates an image provider. The decoder reads the natural
// size of ingested images.
func NewImageProvider(name string, cfg Config, decoder gomedia.ImageDecoder, allowedExtensions, allowedMimeTypes []string) (*ImageProvider, error) {
	if decoder == nil {
		return nil, fmt.Errorf("%w: image decoder is required", gomedia.ErrInvalidConfig)
	}

	file, err := newFileProvider(name, cfg, allowedExtensions, allowedMimeTypes)
	if err != nil {
		return nil, err
	}

	p := &ImageProvider{FileProvider: file, decoder: decoder}
	p.bind(p)
	return p, nil
}

func (p *ImageProvider) Info() gomedia.ProviderInfo {
	return gomedia.ProviderInfo{
		Title:       p.name,
		Description: "image",
		Image:       "bundles/gomedia/image.png",
		Options:     map[string]any{"class": "fa fa-picture-o"},
	}
}

func (p *ImageProvider) doTransform(ctx context.Context, m *gomedia.Media) error {
	if err := p.FileProvider.doTransform(ctx, m); err != nil {
		return err
	}

	content, ok := m.BinaryContent().(gomedia.FileContent)
	if !ok {
		return nil
	}

	if len(p.allowedExtensions) == 0 {
		return fmt.Errorf("%w: there are no allowed extensions for this image", gomedia.ErrUploadFailed)
	}
	if len(p.allowedMimeTypes) == 0 {
		return fmt.Errorf("%w: there are no allowed mime types for this image", gomedia.ErrUploadFailed)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(content.Filename()), "."))
	if !slices.Contains(p.allowedExtensions, ext) {
		return fmt.Errorf("%w: the image extension %q is not one of the allowed (%s)",
			gomedia.ErrUploadFailed, ext, quoted(p.allowedExtensions))
	}

	mimeType, err := content.MimeType()
	if err != nil {
		return err
	}
	if !slices.Contains(p.allowedMimeTypes, strings.ToLower(mimeType)) {
		return fmt.Errorf("%w: the image mime type %q is not one of the allowed (%s)",
			gomedia.ErrUploadFailed, mimeType, quoted(p.allowedMimeTypes))
	}

	box, err := p.decoder.Open(content.Pathname())
	if err != nil {
		log.Warn().Err(err).Str("file", content.Pathname()).Msg("failed to decode image")
		m.ProviderStatus = gomedia.StatusError
		return nil
	}

	m.Width = box.Width
	m.Height = box.Height
	m.ProviderStatus = gomedia.StatusOK

	return nil
}

// GeneratePublicURL resolves the URL through the thumbnail strategy.
// Absolute URLs are returned as is.
func (p *ImageProvider) GeneratePublicURL(m *gomedia.Media, format string) string {
	var key string
	if format == gomedia.FormatReference {
		key = p.ReferenceImage(m)
	} else {
		key = p.thumbnail.GeneratePublicURL(p, m, format)
	}

	if isAbsoluteURL(key) {
		return key
	}
	return p.cdn.Path(key, m.CdnIsFlushable)
}

func (p *ImageProvider) GeneratePrivateURL(m *gomedia.Media, format string) (string, bool) {
	return p.thumbnail.GeneratePrivateURL(p, m, format), true
}

// HelperProperties builds the attributes of an <img> tag, or of a <picture>
// element when picture sources are requested.
func (p *ImageProvider) HelperProperties(m *gomedia.Media, format string, opts gomedia.HelperOptions) (gomedia.HelperProperties, error) {
	if len(opts.Srcset) > 0 && len(opts.Picture) > 0 {
		return nil, gomedia.ErrSrcsetPictureConflict
	}

	format = gomedia.FormatName(m, format)

	box, err := p.formatBox(m, format)
	if err != nil {
		return nil, err
	}

	params := gomedia.HelperProperties{
		"alt":    cmp.Or(m.Description, m.Name),
		"title":  m.Name,
		"src":    p.GeneratePublicURL(m, format),
		"width":  box.Width,
		"height": box.Height,
	}

	if len(opts.Picture) > 0 {
		sources := make([]map[string]any, 0, len(opts.Picture))
		for _, source := range opts.Picture {
			name := gomedia.FormatName(m, source.Format)
			sourceBox, err := p.formatBox(m, name)
			if err != nil {
				return nil, err
			}

			query := source.Media
			if query == "" {
				query = fmt.Sprintf("(max-width: %dpx)", sourceBox.Width)
			}

			sources = append(sources, map[string]any{
				"media":  query,
				"srcset": p.GeneratePublicURL(m, name),
			})
		}

		img := maps.Clone(params)
		maps.Copy(img, opts.Attributes)

		return gomedia.HelperProperties{
			"picture": map[string]any{
				"source": sources,
				"img":    img,
			},
		}, nil
	}

	if format != gomedia.FormatAdmin {
		srcset, err := p.srcset(m, format, opts.Srcset)
		if err != nil {
			return nil, err
		}
		params["srcset"] = srcset
		params["sizes"] = fmt.Sprintf("(max-width: %dpx) 100vw, %dpx", box.Width, box.Width)
	}

	maps.Copy(params, opts.Attributes)
	return params, nil
}

// srcset lists every context format of m with its width descriptor, followed
// by the reference. A non-empty subset restricts the list, the requested
// format is always part of it.
func (p *ImageProvider) srcset(m *gomedia.Media, format string, subset []string) (string, error) {
	formats := p.Formats()
	if len(subset) > 0 {
		selected := make(map[string]gomedia.Format, len(subset)+1)
		for _, name := range append(slices.Clone(subset), format) {
			name = gomedia.FormatName(m, name)
			if f, ok := formats[name]; ok {
				selected[name] = f
			}
		}
		formats = selected
	}

	type candidate struct {
		name  string
		width int
	}

	var candidates []candidate
	for name := range formats {
		if gomedia.IsReservedFormat(name) || !strings.HasPrefix(name, m.Context+"_") {
			continue
		}
		box, err := p.formatBox(m, name)
		if err != nil {
			return "", err
		}
		candidates = append(candidates, candidate{name: name, width: box.Width})
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		return cmp.Or(cmp.Compare(a.width, b.width), cmp.Compare(a.name, b.name))
	})

	entries := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		entries = append(entries, fmt.Sprintf("%s %dw", p.GeneratePublicURL(m, c.name), c.width))
	}
	entries = append(entries, fmt.Sprintf("%s %dw", p.GeneratePublicURL(m, gomedia.FormatReference), m.Width))

	return strings.Join(entries, ", "), nil
}

// formatBox returns the rendered size of m in format.
func (p *ImageProvider) formatBox(m *gomedia.Media, format string) (gomedia.Box, error) {
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

// UpdateMetadata refreshes size and dimensions from the content, or from the
// stored reference when the media has already been persisted.
func (p *ImageProvider) UpdateMetadata(ctx context.Context, m *gomedia.Media, _ bool) error {
	if content, ok := m.BinaryContent().(gomedia.FileContent); ok {
		box, err := p.decoder.Open(content.Pathname())
		if err != nil {
			return err
		}
		size, err := content.FileSize()
		if err != nil {
			return err
		}

		m.Width, m.Height, m.Size = box.Width, box.Height, size
		return nil
	}

	data, err := p.filesystem.Read(ctx, p.ReferenceImage(m))
	if err != nil {
		return err
	}

	box, err := p.decoder.Decode(data)
	if err != nil {
		return err
	}

	m.Width, m.Height, m.Size = box.Width, box.Height, int64(len(data))
	return nil
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func quoted(values []string) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = `"` + v + `"`
	}
	return strings.Join(out, ", ")
}
