package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	gomedia "github.com/shoraid/go-mediaprovider"
)

const defaultThumbnailExtension = "jpg"

// RemoteThumbnailCache materializes the remote thumbnail of a video into the
// blob store. A cached copy is served until it is invalidated.
type RemoteThumbnailCache struct {
	filesystem *gomedia.Filesystem
	client     gomedia.HTTPClient
	generator  gomedia.PathGenerator
	metadata   gomedia.MetadataBuilder
}

// NewRemoteThumbnailCache creates a cache writing to fs. metadata may be nil.
func NewRemoteThumbnailCache(fs *gomedia.Filesystem, client gomedia.HTTPClient, generator gomedia.PathGenerator, metadata gomedia.MetadataBuilder) *RemoteThumbnailCache {
	return &RemoteThumbnailCache{
		filesystem: fs,
		client:     client,
		generator:  generator,
		metadata:   metadata,
	}
}

// Key returns the storage key of the cached thumbnail of m.
func (c *RemoteThumbnailCache) Key(m *gomedia.Media) string {
	return fmt.Sprintf("%s/thumb_%d_%s.%s",
		c.generator.GeneratePath(m), m.ID, gomedia.FormatReference, remoteExtension(m.MetadataString("thumbnail_url", "")))
}

// Fetch returns the cached thumbnail of m, downloading remoteURL on a miss.
func (c *RemoteThumbnailCache) Fetch(ctx context.Context, m *gomedia.Media, remoteURL string) (*gomedia.BlobFile, error) {
	key := c.Key(m)

	exists, err := c.filesystem.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return c.filesystem.Get(ctx, key, true)
	}

	if remoteURL == "" {
		return nil, fmt.Errorf("%w: no remote thumbnail for media %d", gomedia.ErrNotFound, m.ID)
	}

	data, err := c.client.SendRequest(ctx, http.MethodGet, remoteURL)
	if err != nil {
		log.Error().Err(err).Str("url", remoteURL).Msg("failed to download remote thumbnail")
		return nil, err
	}

	file, err := c.filesystem.Get(ctx, key, true)
	if err != nil {
		return nil, err
	}

	var metadata map[string]string
	if c.metadata != nil {
		metadata = c.metadata.Get(m, file.Name())
	}

	if err := file.SetContent(ctx, data, metadata); err != nil {
		return nil, err
	}

	log.Debug().Str("key", key).Str("url", remoteURL).Msg("remote thumbnail cached")
	return file, nil
}

// Invalidate drops the cached thumbnail of m so that the next Fetch
// downloads it again.
func (c *RemoteThumbnailCache) Invalidate(ctx context.Context, m *gomedia.Media) error {
	key := c.Key(m)

	exists, err := c.filesystem.Has(ctx, key)
	if err != nil || !exists {
		return err
	}

	return c.filesystem.Delete(ctx, key)
}

func remoteExtension(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		rawURL = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(rawURL), "."))
	if len(ext) < 3 {
		return defaultThumbnailExtension
	}
	return ext
}
