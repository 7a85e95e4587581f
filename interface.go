package gomedia

import (
	"context"
	"io"
	"net/http"
)

// Adapter defines the basic contract for any blob backend (S3, local disk, etc.).
// Implementations must handle writing, reading, deleting and checking existence
// of whole objects addressed by key.
type Adapter interface {
	// Delete removes the object identified by key.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object with the given key exists.
	Exists(ctx context.Context, key string) (exists bool, err error)

	// Read returns the whole content of the object.
	// Returns ErrNotFound when the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores content under key, overwriting any existing object.
	// Metadata is backend specific (ACL, cache control, content type...).
	Write(ctx context.Context, key string, content io.Reader, metadata map[string]string) error
}

// DirectoryAdapter is implemented by adapters backed by a local directory.
// Only those can serve X-Sendfile and X-Accel-Redirect downloads.
type DirectoryAdapter interface {
	Adapter
	Directory() string
}

// CDN rewrites public paths and invalidates cached copies.
type CDN interface {
	// Path returns the public URL of relativePath.
	Path(relativePath string, isFlushable bool) string

	// Flush invalidates a single key and returns the flush identifier.
	Flush(ctx context.Context, key string) (string, error)

	// FlushByString invalidates everything matching s.
	FlushByString(ctx context.Context, s string) (string, error)

	// FlushPaths requests an invalidation of paths and returns an opaque
	// identifier to poll with FlushStatus.
	FlushPaths(ctx context.Context, paths []string) (string, error)

	// FlushStatus returns the state of a flush started earlier.
	FlushStatus(ctx context.Context, identifier string) (CDNStatus, error)
}

// Resizer computes thumbnail dimensions and renders thumbnails.
type Resizer interface {
	Box(m *Media, format Format) (Box, error)
	Resize(ctx context.Context, m *Media, in, out *BlobFile, extension string, format Format) error
}

// Thumbnail computes the URLs of derived assets and generates/deletes them.
type Thumbnail interface {
	Generate(ctx context.Context, p MediaProvider, m *Media) error
	// Delete removes the given formats, or every provider format when none
	// are given.
	Delete(ctx context.Context, p MediaProvider, m *Media, formats ...string) error
	GeneratePublicURL(p MediaProvider, m *Media, format string) string
	GeneratePrivateURL(p MediaProvider, m *Media, format string) string
}

// Blob metadata keys understood by adapters. Other keys are stored as user
// metadata when the backend supports it.
const (
	MetadataACL          = "ACL"
	MetadataCacheControl = "CacheControl"
	MetadataContentType  = "ContentType"
	MetadataStorageClass = "StorageClass"
	MetadataEncryption   = "Encryption"
)

// MetadataBuilder computes backend specific metadata attached to a written blob.
type MetadataBuilder interface {
	Get(m *Media, filename string) map[string]string
}

// HTTPClient issues outbound requests for remote metadata and thumbnails.
type HTTPClient interface {
	SendRequest(ctx context.Context, method, url string) ([]byte, error)
}

// ImageDecoder reads the natural size of an image.
type ImageDecoder interface {
	Open(path string) (Box, error)
	Decode(data []byte) (Box, error)
}

// PathGenerator derives the sharded storage directory of a media.
type PathGenerator interface {
	GeneratePath(m *Media) string
}

// DownloadStrategy authorizes downloads.
type DownloadStrategy interface {
	IsGranted(m *Media, r *http.Request) bool
	Description() string
}

// ProviderInfo describes a provider for listings.
type ProviderInfo struct {
	Title       string
	Description string
	Image       string
	Options     map[string]any
}

// RemovalSnapshot carries what PostRemove needs once persistence has
// detached the media.
type RemovalSnapshot struct {
	Media *Media
}

// PictureSource is one <source> entry requested in picture mode. An empty
// Media query is derived from the format width.
type PictureSource struct {
	Format string
	Media  string
}

// HelperOptions drive HelperProperties.
type HelperOptions struct {
	// Srcset restricts the srcset to these formats.
	Srcset []string
	// Picture switches to <picture> markup.
	Picture []PictureSource
	// Width and Height override the box of video players.
	Width  *int
	Height *int

	PlayerURLParameters map[string]string
	PlayerParameters    map[string]any

	// Attributes are merged into the result last.
	Attributes map[string]any
}

// HelperProperties is the attribute bag handed to templates.
type HelperProperties map[string]any

// MediaProvider handles the full lifecycle of one media kind.
type MediaProvider interface {
	Name() string
	Info() ProviderInfo

	// Transform ingests the binary content, it is a no-op without content.
	Transform(ctx context.Context, m *Media) error

	PrePersist(ctx context.Context, m *Media) error
	PostPersist(ctx context.Context, m *Media) error
	PreUpdate(ctx context.Context, m *Media) error
	PostUpdate(ctx context.Context, m *Media) error
	PreRemove(ctx context.Context, m *Media) (RemovalSnapshot, error)
	PostRemove(ctx context.Context, snapshot RemovalSnapshot) error

	FlushCDN(ctx context.Context, m *Media) error
	// UpdateFlushStatus only polls the pending flush, it never starts one.
	UpdateFlushStatus(ctx context.Context, m *Media) error

	GenerateThumbnails(ctx context.Context, m *Media) error
	RemoveThumbnails(ctx context.Context, m *Media, formats ...string) error

	GeneratePath(m *Media) string
	GeneratePublicURL(m *Media, format string) string
	// GeneratePrivateURL returns false when the format has no private URL.
	GeneratePrivateURL(m *Media, format string) (string, bool)
	HelperProperties(m *Media, format string, opts HelperOptions) (HelperProperties, error)

	Validate(errs *ErrorElement, m *Media)
	UpdateMetadata(ctx context.Context, m *Media, force bool) error
	DownloadResponse(ctx context.Context, m *Media, format string, mode DownloadMode, headers http.Header) (http.Handler, error)

	ReferenceImage(m *Media) string
	ReferenceFile(ctx context.Context, m *Media) (*BlobFile, error)

	AddFormat(name string, format Format)
	Format(name string) (Format, bool)
	Formats() map[string]Format
	FormatName(m *Media, format string) string

	RequireThumbnails() bool
	Filesystem() *Filesystem
	Resizer() Resizer
	CDN() CDN
}
