package cdn

import (
	"context"

	gomedia "github.com/shoraid/go-mediaprovider"
)

// Fallback serves flushable media from the primary CDN and the others from
// the fallback, typically the origin server. Flushes go to the primary.
type Fallback struct {
	primary  gomedia.CDN
	fallback gomedia.CDN
}

var _ gomedia.CDN = (*Fallback)(nil)

func NewFallback(primary, fallback gomedia.CDN) *Fallback {
	return &Fallback{primary: primary, fallback: fallback}
}

func (f *Fallback) Path(relativePath string, isFlushable bool) string {
	if isFlushable {
		return f.primary.Path(relativePath, isFlushable)
	}
	return f.fallback.Path(relativePath, isFlushable)
}

func (f *Fallback) Flush(ctx context.Context, key string) (string, error) {
	return f.primary.Flush(ctx, key)
}

func (f *Fallback) FlushByString(ctx context.Context, s string) (string, error) {
	return f.primary.FlushByString(ctx, s)
}

func (f *Fallback) FlushPaths(ctx context.Context, paths []string) (string, error) {
	return f.primary.FlushPaths(ctx, paths)
}

func (f *Fallback) FlushStatus(ctx context.Context, identifier string) (gomedia.CDNStatus, error) {
	return f.primary.FlushStatus(ctx, identifier)
}
