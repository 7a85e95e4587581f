// Package thumbnail computes thumbnail URLs and renders thumbnails for
// every format of a media's context.
package thumbnail

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	gomedia "github.com/shoraid/go-mediaprovider"
)

// DefaultExtension is used when neither the format nor the media carries a
// usable extension.
const DefaultExtension = "jpg"

// defaultConcurrency bounds the number of formats rendered in parallel.
const defaultConcurrency = 4

// FormatThumbnail stores one file per format next to the reference, named
// thumb_<id>_<format>.<ext>.
type FormatThumbnail struct {
	defaultExtension string
	concurrency      int

	mu       sync.RWMutex
	resizers map[string]gomedia.Resizer
}

var _ gomedia.Thumbnail = (*FormatThumbnail)(nil)

// NewFormatThumbnail creates the strategy. An empty defaultExtension means
// DefaultExtension.
func NewFormatThumbnail(defaultExtension string) *FormatThumbnail {
	if defaultExtension == "" {
		defaultExtension = DefaultExtension
	}

	return &FormatThumbnail{
		defaultExtension: defaultExtension,
		concurrency:      defaultConcurrency,
		resizers:         make(map[string]gomedia.Resizer),
	}
}

// AddResizer registers a resizer that formats can select by name.
func (t *FormatThumbnail) AddResizer(name string, r gomedia.Resizer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resizers[name] = r
}

// SetConcurrency bounds the number of formats rendered in parallel.
func (t *FormatThumbnail) SetConcurrency(n int) {
	if n > 0 {
		t.concurrency = n
	}
}

func (t *FormatThumbnail) GeneratePublicURL(p gomedia.MediaProvider, m *gomedia.Media, format string) string {
	if format == gomedia.FormatReference {
		return p.ReferenceImage(m)
	}

	return fmt.Sprintf("%s/thumb_%d_%s.%s", p.GeneratePath(m), m.ID, format, t.extension(p, m, format))
}

func (t *FormatThumbnail) GeneratePrivateURL(p gomedia.MediaProvider, m *gomedia.Media, format string) string {
	return t.GeneratePublicURL(p, m, format)
}

// Generate renders every format of the media's context plus the admin
// format from the reference file.
func (t *FormatThumbnail) Generate(ctx context.Context, p gomedia.MediaProvider, m *gomedia.Media) error {
	if !p.RequireThumbnails() {
		return nil
	}

	reference, err := p.ReferenceFile(ctx, m)
	if err != nil {
		return err
	}

	formats := p.Formats()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	for _, name := range slices.Sorted(maps.Keys(formats)) {
		if !gomedia.BelongsToContext(m, name) {
			continue
		}

		settings := formats[name]
		resizer, err := t.resizer(p, settings)
		if err != nil {
			return err
		}

		g.Go(func() error {
			key := t.GeneratePrivateURL(p, m, name)

			out, err := p.Filesystem().Get(gctx, key, true)
			if err != nil {
				return err
			}

			if err := resizer.Resize(gctx, m, reference, out, t.extension(p, m, name), settings); err != nil {
				log.Error().Err(err).Str("key", key).Str("format", name).Msg("failed to render thumbnail")
				return err
			}

			log.Debug().Str("key", key).Str("format", name).Msg("thumbnail rendered")
			return nil
		})
	}

	return g.Wait()
}

// Delete removes the thumbnails of the given formats, or of every provider
// format when none are given. The reference is never removed here.
func (t *FormatThumbnail) Delete(ctx context.Context, p gomedia.MediaProvider, m *gomedia.Media, formats ...string) error {
	if len(formats) == 0 {
		formats = slices.Sorted(maps.Keys(p.Formats()))
	}

	var keys []string
	for _, format := range formats {
		if format == gomedia.FormatReference {
			continue
		}

		key := t.GeneratePrivateURL(p, m, format)
		exists, err := p.Filesystem().Has(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			keys = append(keys, key)
		}
	}

	if len(keys) == 0 {
		return nil
	}

	return p.Filesystem().DeleteMany(ctx, keys...)
}

func (t *FormatThumbnail) resizer(p gomedia.MediaProvider, settings gomedia.Format) (gomedia.Resizer, error) {
	if settings.Resizer == "" {
		return p.Resizer(), nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.resizers[settings.Resizer]
	if !ok {
		return nil, fmt.Errorf("%w: %q", gomedia.ErrUnknownResizer, settings.Resizer)
	}
	return r, nil
}

func (t *FormatThumbnail) extension(p gomedia.MediaProvider, m *gomedia.Media, format string) string {
	if settings, ok := p.Format(format); ok && settings.Extension != "" {
		return settings.Extension
	}
	if ext := m.Extension(); len(ext) >= 3 {
		return ext
	}
	return t.defaultExtension
}
