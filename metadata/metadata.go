// Package metadata computes the backend metadata attached to written blobs.
package metadata

import (
	"fmt"
	"maps"
	"mime"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	gomedia "github.com/shoraid/go-mediaprovider"
	s3driver "github.com/shoraid/go-mediaprovider/drivers/s3"
)

// NoopBuilder attaches no metadata.
type NoopBuilder struct{}

var _ gomedia.MetadataBuilder = NoopBuilder{}

func (NoopBuilder) Get(*gomedia.Media, string) map[string]string {
	return map[string]string{}
}

// AmazonSettings configure the S3 request fields of every written blob.
type AmazonSettings struct {
	ACL          string            `mapstructure:"acl" validate:"omitempty,oneof=private public open auth_read owner_read owner_full_control"`
	Storage      string            `mapstructure:"storage" validate:"omitempty,oneof=standard reduced"`
	Encryption   string            `mapstructure:"encryption" validate:"omitempty,oneof=aes256"`
	CacheControl int               `mapstructure:"cache_control" validate:"gte=0"` // max-age in seconds, 0 disables
	Meta         map[string]string `mapstructure:"meta"`
}

var (
	acls = map[string]string{
		"private":            "private",
		"public":             "public-read",
		"open":               "public-read-write",
		"auth_read":          "authenticated-read",
		"owner_read":         "bucket-owner-read",
		"owner_full_control": "bucket-owner-full-control",
	}
	storageClasses = map[string]string{
		"standard": "STANDARD",
		"reduced":  "REDUCED_REDUNDANCY",
	}
	encryptions = map[string]string{
		"aes256": "AES256",
	}
)

// AmazonBuilder maps AmazonSettings onto the keys understood by the S3 driver.
type AmazonBuilder struct {
	settings AmazonSettings
}

var _ gomedia.MetadataBuilder = (*AmazonBuilder)(nil)

// NewAmazonBuilder validates settings. Empty values fall back to a public,
// standard, unencrypted object.
func NewAmazonBuilder(settings AmazonSettings) (*AmazonBuilder, error) {
	if err := validator.New().Struct(settings); err != nil {
		return nil, fmt.Errorf("%w: %w", gomedia.ErrInvalidConfig, err)
	}

	if settings.ACL == "" {
		settings.ACL = "public"
	}
	if settings.Storage == "" {
		settings.Storage = "standard"
	}

	return &AmazonBuilder{settings: settings}, nil
}

func (b *AmazonBuilder) Get(_ *gomedia.Media, filename string) map[string]string {
	out := maps.Clone(b.settings.Meta)
	if out == nil {
		out = map[string]string{}
	}

	out[gomedia.MetadataACL] = acls[b.settings.ACL]
	out[gomedia.MetadataStorageClass] = storageClasses[b.settings.Storage]

	if b.settings.CacheControl > 0 {
		out[gomedia.MetadataCacheControl] = fmt.Sprintf("max-age=%d", b.settings.CacheControl)
	}
	if v, ok := encryptions[b.settings.Encryption]; ok {
		out[gomedia.MetadataEncryption] = v
	}
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		out[gomedia.MetadataContentType] = ct
	}

	return out
}

// ProxyBuilder picks the Amazon builder for S3 backed filesystems and the
// no-op builder for everything else.
type ProxyBuilder struct {
	adapter gomedia.Adapter
	amazon  gomedia.MetadataBuilder
	noop    gomedia.MetadataBuilder
}

var _ gomedia.MetadataBuilder = (*ProxyBuilder)(nil)

// NewProxyBuilder returns a builder for the filesystem of a provider.
// A nil amazon builder disables metadata on S3 as well.
func NewProxyBuilder(fs *gomedia.Filesystem, amazon gomedia.MetadataBuilder) *ProxyBuilder {
	return &ProxyBuilder{adapter: fs.Adapter(), amazon: amazon, noop: NoopBuilder{}}
}

func (b *ProxyBuilder) Get(m *gomedia.Media, filename string) map[string]string {
	if _, ok := b.adapter.(*s3driver.ObjectStorage); ok && b.amazon != nil {
		return b.amazon.Get(m, filename)
	}
	return b.noop.Get(m, filename)
}
