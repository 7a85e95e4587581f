// Package provider implements the media providers: files, images and the
// YouTube, Vimeo and DailyMotion video sites.
package provider

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	gomedia "github.com/shoraid/go-mediaprovider"
	"github.com/shoraid/go-mediaprovider/metrics"
)

// Config holds the collaborators shared by every provider.
type Config struct {
	Filesystem    *gomedia.Filesystem
	CDN           gomedia.CDN
	PathGenerator gomedia.PathGenerator
	Thumbnail     gomedia.Thumbnail

	// Resizer is optional, providers without one never render thumbnails.
	Resizer gomedia.Resizer
	// Metadata is optional, blobs are written without metadata when nil.
	Metadata gomedia.MetadataBuilder
}

func (c Config) validate() error {
	switch {
	case c.Filesystem == nil:
		return fmt.Errorf("%w: filesystem is required", gomedia.ErrInvalidConfig)
	case c.CDN == nil:
		return fmt.Errorf("%w: cdn is required", gomedia.ErrInvalidConfig)
	case c.PathGenerator == nil:
		return fmt.Errorf("%w: path generator is required", gomedia.ErrInvalidConfig)
	case c.Thumbnail == nil:
		return fmt.Errorf("%w: thumbnail strategy is required", gomedia.ErrInvalidConfig)
	}
	return nil
}

// hooks is the part of a provider that differs between variants. Base calls
// back into it so that overridden methods are honored.
type hooks interface {
	gomedia.MediaProvider

	doTransform(ctx context.Context, m *gomedia.Media) error
	// referenceKey is the blob removed by PostRemove.
	referenceKey(m *gomedia.Media) string
}

// Base carries the lifecycle shared by all providers.
type Base struct {
	name       string
	filesystem *gomedia.Filesystem
	cdn        gomedia.CDN
	generator  gomedia.PathGenerator
	thumbnail  gomedia.Thumbnail
	resizer    gomedia.Resizer
	metadata   gomedia.MetadataBuilder

	mu      sync.RWMutex
	formats map[string]gomedia.Format

	self hooks
	now  func() time.Time
}

func newBase(name string, cfg Config) (*Base, error) {
	if name == "" {
		return nil, gomedia.ErrEmptyProviderName
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Base{
		name:       name,
		filesystem: cfg.Filesystem,
		cdn:        cfg.CDN,
		generator:  cfg.PathGenerator,
		thumbnail:  cfg.Thumbnail,
		resizer:    cfg.Resizer,
		metadata:   cfg.Metadata,
		formats:    make(map[string]gomedia.Format),
		now:        time.Now,
	}, nil
}

func (b *Base) bind(h hooks) { b.self = h }

func (b *Base) Name() string { return b.name }

func (b *Base) Filesystem() *gomedia.Filesystem { return b.filesystem }

func (b *Base) CDN() gomedia.CDN { return b.cdn }

func (b *Base) Resizer() gomedia.Resizer { return b.resizer }

// RequireThumbnails reports whether the provider renders thumbnails.
func (b *Base) RequireThumbnails() bool { return b.resizer != nil }

// AddFormat registers or replaces a format.
func (b *Base) AddFormat(name string, format gomedia.Format) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.formats[name] = format
}

func (b *Base) Format(name string) (gomedia.Format, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	f, ok := b.formats[name]
	return f, ok
}

// Formats returns a copy of the registered formats.
func (b *Base) Formats() map[string]gomedia.Format {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return maps.Clone(b.formats)
}

func (b *Base) FormatName(m *gomedia.Media, format string) string {
	return gomedia.FormatName(m, format)
}

func (b *Base) GeneratePath(m *gomedia.Media) string {
	return b.generator.GeneratePath(m)
}

// Transform ingests the binary content of m and flushes the CDN.
// It is a no-op when m carries no content.
func (b *Base) Transform(ctx context.Context, m *gomedia.Media) error {
	if m.BinaryContent() == nil {
		return nil
	}

	if err := b.self.doTransform(ctx, m); err != nil {
		discardTemporary(m)
		metrics.TransformsTotal.WithLabelValues(b.name, metrics.StatusFailure).Inc()
		return err
	}
	metrics.TransformsTotal.WithLabelValues(b.name, m.ProviderStatus.String()).Inc()

	log.Debug().
		Str("provider", b.name).
		Str("reference", m.ProviderReference.String()).
		Str("status", m.ProviderStatus.String()).
		Msg("media transformed")

	return b.FlushCDN(ctx, m)
}

func (b *Base) PrePersist(_ context.Context, m *gomedia.Media) error {
	now := b.now()
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

func (b *Base) PreUpdate(_ context.Context, m *gomedia.Media) error {
	m.UpdatedAt = b.now()
	return nil
}

// PreRemove detaches a snapshot of m and removes its thumbnails while the
// media is still complete.
func (b *Base) PreRemove(ctx context.Context, m *gomedia.Media) (gomedia.RemovalSnapshot, error) {
	snapshot := gomedia.RemovalSnapshot{Media: m.Clone()}

	if b.RequireThumbnails() {
		if err := b.self.RemoveThumbnails(ctx, m); err != nil {
			return snapshot, err
		}
	}

	return snapshot, nil
}

// PostRemove deletes the reference blob recorded in snapshot.
func (b *Base) PostRemove(ctx context.Context, snapshot gomedia.RemovalSnapshot) error {
	if snapshot.Media == nil {
		return nil
	}

	key := b.self.referenceKey(snapshot.Media)
	if key == "" {
		return nil
	}

	exists, err := b.filesystem.Has(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to check reference before removal")
		return err
	}
	if !exists {
		return nil
	}

	if err := b.filesystem.Delete(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete reference")
		return err
	}

	return nil
}

// UpdateFlushStatus polls the pending flush of m, if any. A completed
// flush stamps CdnFlushAt. Completed and failed flushes clear the
// identifier, a flush still in progress keeps it.
func (b *Base) UpdateFlushStatus(ctx context.Context, m *gomedia.Media) error {
	if !m.HasID() || !m.CdnIsFlushable || m.CdnFlushIdentifier == "" {
		return nil
	}

	status, err := b.cdn.FlushStatus(ctx, m.CdnFlushIdentifier)
	if err != nil {
		metrics.CDNFlushPolls.WithLabelValues(b.name, "failed").Inc()
		log.Error().Err(err).Str("identifier", m.CdnFlushIdentifier).Msg("failed to poll cdn flush status")
		return err
	}
	m.CdnStatus = status

	switch status {
	case gomedia.CDNStatusOK:
		metrics.CDNFlushPolls.WithLabelValues(b.name, "ok").Inc()
		flushedAt := b.now()
		m.CdnFlushAt = &flushedAt
	case gomedia.CDNStatusError:
		metrics.CDNFlushPolls.WithLabelValues(b.name, "error").Inc()
	default:
		metrics.CDNFlushPolls.WithLabelValues(b.name, "pending").Inc()
		return nil
	}

	m.CdnFlushIdentifier = ""
	return nil
}

// FlushCDN polls the pending flush of m, if any, and requests a new flush
// of the private URLs of every format of the media's context. A flush is
// never requested while a previous one is still in progress.
func (b *Base) FlushCDN(ctx context.Context, m *gomedia.Media) error {
	if !m.HasID() || !m.CdnIsFlushable {
		return nil
	}

	if err := b.UpdateFlushStatus(ctx, m); err != nil {
		return err
	}
	if m.CdnFlushIdentifier != "" {
		return nil
	}

	formats := b.Formats()
	names := slices.Sorted(maps.Keys(formats))

	var paths []string
	for _, name := range names {
		if !gomedia.BelongsToContext(m, name) {
			continue
		}
		if key, ok := b.self.GeneratePrivateURL(m, name); ok && key != "" {
			paths = append(paths, key)
		}
	}

	if len(paths) == 0 {
		return nil
	}

	identifier, err := b.cdn.FlushPaths(ctx, paths)
	if err != nil {
		metrics.CDNFlushRequests.WithLabelValues(b.name, metrics.StatusFailure).Inc()
		log.Error().Err(err).Int64("media", m.ID).Msg("failed to flush cdn paths")
		return err
	}
	metrics.CDNFlushRequests.WithLabelValues(b.name, metrics.StatusSuccess).Inc()

	m.CdnFlushIdentifier = identifier
	m.CdnStatus = gomedia.CDNStatusToFlush

	return nil
}

func (b *Base) GenerateThumbnails(ctx context.Context, m *gomedia.Media) error {
	if !b.RequireThumbnails() {
		return nil
	}

	start := time.Now()
	err := b.thumbnail.Generate(ctx, b.self, m)
	metrics.ThumbnailGenerationDuration.WithLabelValues(b.name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailsGenerated.WithLabelValues(b.name, metrics.StatusFailure).Inc()
		log.Error().Err(err).Int64("media", m.ID).Str("provider", b.name).Msg("failed to generate thumbnails")
		return err
	}
	metrics.ThumbnailsGenerated.WithLabelValues(b.name, metrics.StatusSuccess).Inc()

	return nil
}

// RemoveThumbnails deletes the given formats of m, or all of them when none
// are given.
func (b *Base) RemoveThumbnails(ctx context.Context, m *gomedia.Media, formats ...string) error {
	if err := b.thumbnail.Delete(ctx, b.self, m, formats...); err != nil {
		log.Error().Err(err).Int64("media", m.ID).Str("provider", b.name).Msg("failed to remove thumbnails")
		return err
	}
	metrics.ThumbnailsDeleted.WithLabelValues(b.name).Inc()

	return nil
}

// writeBlob stores data under key with the metadata computed for m.
func (b *Base) writeBlob(ctx context.Context, m *gomedia.Media, key string, data []byte) error {
	file, err := b.filesystem.Get(ctx, key, true)
	if err != nil {
		return err
	}

	var metadata map[string]string
	if b.metadata != nil {
		metadata = b.metadata.Get(m, file.Name())
	}

	if err := file.SetContent(ctx, data, metadata); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to write blob")
		return err
	}

	return nil
}
