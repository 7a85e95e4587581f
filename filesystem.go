package gomedia

import (
	"bytes"
	"context"
	"path"

	"golang.org/x/sync/errgroup"
)

// Filesystem is the key-addressed blob store used by providers.
// It delegates every call to a single Adapter.
type Filesystem struct {
	adapter Adapter
}

// NewFilesystem creates a Filesystem on top of adapter.
// Returns ErrInvalidConfig if adapter is nil.
func NewFilesystem(adapter Adapter) (*Filesystem, error) {
	if adapter == nil {
		return nil, ErrInvalidConfig
	}

	return &Filesystem{adapter: adapter}, nil
}

// Adapter returns the backing adapter.
func (f *Filesystem) Adapter() Adapter {
	return f.adapter
}

// Has checks whether a blob exists.
func (f *Filesystem) Has(ctx context.Context, key string) (bool, error) {
	return f.adapter.Exists(ctx, key)
}

// Get returns a handle on key. Unless create is true, the blob must exist.
func (f *Filesystem) Get(ctx context.Context, key string, create bool) (*BlobFile, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	if !create {
		exists, err := f.adapter.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNotFound
		}
	}

	return &BlobFile{key: key, fs: f}, nil
}

// Delete removes a single blob.
func (f *Filesystem) Delete(ctx context.Context, key string) error {
	return f.adapter.Delete(ctx, key)
}

// DeleteMany removes multiple blobs concurrently.
// Uses errgroup to run deletions in parallel and return the first error encountered.
func (f *Filesystem) DeleteMany(ctx context.Context, keys ...string) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, key := range keys {
		g.Go(func() error {
			return f.Delete(ctx, key)
		})
	}

	return g.Wait()
}

// Write stores content under key.
func (f *Filesystem) Write(ctx context.Context, key string, content []byte, metadata map[string]string) error {
	return f.adapter.Write(ctx, key, bytes.NewReader(content), metadata)
}

// Read returns the content stored under key.
func (f *Filesystem) Read(ctx context.Context, key string) ([]byte, error) {
	return f.adapter.Read(ctx, key)
}

// BlobFile is a lazy handle on one blob.
type BlobFile struct {
	key string
	fs  *Filesystem
}

func (b *BlobFile) Key() string { return b.key }

// Name returns the base name of the key.
func (b *BlobFile) Name() string { return path.Base(b.key) }

func (b *BlobFile) Exists(ctx context.Context) (bool, error) {
	return b.fs.Has(ctx, b.key)
}

func (b *BlobFile) Content(ctx context.Context) ([]byte, error) {
	return b.fs.Read(ctx, b.key)
}

// SetContent overwrites the blob with data.
func (b *BlobFile) SetContent(ctx context.Context, data []byte, metadata map[string]string) error {
	return b.fs.Write(ctx, b.key, data, metadata)
}
