package s3driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	gomedia "github.com/shoraid/go-mediaprovider"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3Client interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Visibility string

const (
	VisibilityPrivate Visibility = "private" // Objects are private, served through the CDN or downloads
	VisibilityPublic  Visibility = "public"  // Objects are publicly readable from the bucket URL
)

// ObjectStorageConfig defines the configuration needed to connect to an S3-compatible storage.
// You can use this with AWS S3, Cloudflare R2, MinIO, GCS (S3 API), etc.
type ObjectStorageConfig struct {
	Bucket     string     // bucket name where media are stored
	Region     string     // AWS region or equivalent
	AccessKey  string     // access key for authentication
	SecretKey  string     // secret key for authentication
	Endpoint   string     // optional custom endpoint (for R2, MinIO, etc.)
	UseSSL     bool       // true = https, false = http
	Visibility Visibility // public or private, public objects get the public-read ACL by default
}

// ObjectStorage is the gomedia.Adapter implementation for S3-compatible storages.
type ObjectStorage struct {
	client s3Client
	bucket string
	config ObjectStorageConfig
}

// NewObjectStorage initializes and returns an ObjectStorage instance using the given config.
// It loads AWS configuration and sets up the S3 client.
// Returns gomedia.ErrInvalidConfig if credentials or config are invalid.
func NewObjectStorage(cfg ObjectStorageConfig) (*ObjectStorage, error) {
	if cfg.AccessKey == "" {
		return nil, gomedia.ErrInvalidConfig
	}

	if cfg.SecretKey == "" {
		return nil, gomedia.ErrInvalidConfig
	}

	storageCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return nil, gomedia.ErrInvalidConfig
	}

	client := s3.NewFromConfig(storageCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // needed for MinIO / R2
		}
	})

	return &ObjectStorage{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

var _ gomedia.Adapter = (*ObjectStorage)(nil)

// Delete permanently removes an object from the bucket.
func (s *ObjectStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete file from S3")
		return gomedia.ErrInternal
	}

	return nil
}

// Exists checks if an object exists in the bucket.
func (s *ObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}

		log.Error().Err(err).Str("key", key).Msg("failed to check if file exists in S3")
		return false, gomedia.ErrInternal
	}

	return true, nil
}

// Read downloads the whole object.
// Returns gomedia.ErrNotFound when the key does not exist.
func (s *ObjectStorage) Read(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, gomedia.ErrNotFound
		}

		log.Error().Err(err).Str("key", key).Msg("failed to read file from S3")
		return nil, gomedia.ErrInternal
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to read S3 object body")
		return nil, gomedia.ErrInternal
	}

	return data, nil
}

// validateKey ensures that the provided key is valid (not empty, no invalid characters).
// Keys are slash separated paths such as "default/0001/01/abc.jpg".
var keyRegex = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)

func validateKey(key string) error {
	switch {
	case len(key) == 0:
		return errors.New("key cannot be empty")
	case !keyRegex.MatchString(key):
		return errors.New("key contains invalid characters")
	case strings.HasPrefix(key, "/"):
		return errors.New("key must be relative")
	}

	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return errors.New("invalid key")
		}
	}
	return nil
}

// Write uploads content under key, overwriting any existing object.
// Well-known metadata keys map onto the request fields, the others are sent
// as user metadata.
func (s *ObjectStorage) Write(ctx context.Context, key string, content io.Reader, metadata map[string]string) error {
	if err := validateKey(key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("invalid key")
		return fmt.Errorf("%w: %s", gomedia.ErrInvalidKey, err)
	}

	input := s.putInput(key, content, metadata)

	if _, err := s.client.PutObject(ctx, input); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload file to S3")
		return gomedia.ErrInternal
	}

	return nil
}

func (s *ObjectStorage) putInput(key string, content io.Reader, metadata map[string]string) *s3.PutObjectInput {
	meta := maps.Clone(metadata)
	if meta == nil {
		meta = map[string]string{}
	}

	input := &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(key),
		Body:                 content,
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	}

	if s.config.Visibility == VisibilityPublic {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if v, ok := pop(meta, gomedia.MetadataACL); ok {
		input.ACL = types.ObjectCannedACL(v)
	}
	if v, ok := pop(meta, gomedia.MetadataCacheControl); ok {
		input.CacheControl = aws.String(v)
	}
	if v, ok := pop(meta, gomedia.MetadataContentType); ok {
		input.ContentType = aws.String(v)
	}
	if v, ok := pop(meta, gomedia.MetadataStorageClass); ok {
		input.StorageClass = types.StorageClass(v)
	}
	if v, ok := pop(meta, gomedia.MetadataEncryption); ok {
		input.ServerSideEncryption = types.ServerSideEncryption(v)
	}

	if len(meta) > 0 {
		input.Metadata = meta
	}

	return input
}

// BaseURL returns the public URL prefix of the bucket, or an empty string
// when the bucket is private.
func (s *ObjectStorage) BaseURL() string {
	if s.config.Visibility != VisibilityPublic {
		return ""
	}

	scheme := "https"
	if !s.config.UseSSL {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s/%s", scheme, s.config.Endpoint, s.bucket)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiError interface{ ErrorCode() string }
	if errors.As(err, &apiError) {
		code := apiError.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}

func pop(m map[string]string, key string) (string, bool) {
	v, ok := m[key]
	if ok {
		delete(m, key)
	}
	return v, ok && v != ""
}
