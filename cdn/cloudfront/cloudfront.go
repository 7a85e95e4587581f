// Package cloudfrontcdn invalidates media paths on an AWS CloudFront distribution.
package cloudfrontcdn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gomedia "github.com/shoraid/go-mediaprovider"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
)

type cloudFrontClient interface {
	CreateInvalidation(ctx context.Context, params *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
	GetInvalidation(ctx context.Context, params *cloudfront.GetInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.GetInvalidationOutput, error)
}

// Invalidation states reported by CloudFront.
const (
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
)

// Config defines the distribution to invalidate and how paths are served.
type Config struct {
	Path           string // public base URL, e.g. "https://d111111abcdef8.cloudfront.net"
	DistributionID string // distribution receiving the invalidations
	Region         string // AWS region, CloudFront is global but the SDK needs one
	AccessKey      string // access key for authentication
	SecretKey      string // secret key for authentication
}

// CDN is the gomedia.CDN implementation for CloudFront.
type CDN struct {
	client         cloudFrontClient
	path           string
	distributionID string
	now            func() time.Time
}

var _ gomedia.CDN = (*CDN)(nil)

// New loads the AWS configuration and returns a CloudFront CDN.
// Returns gomedia.ErrInvalidConfig if credentials or config are invalid.
func New(cfg Config) (*CDN, error) {
	if cfg.DistributionID == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, gomedia.ErrInvalidConfig
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return nil, gomedia.ErrInvalidConfig
	}

	return newCDN(cloudfront.NewFromConfig(awsCfg), cfg), nil
}

func newCDN(client cloudFrontClient, cfg Config) *CDN {
	return &CDN{
		client:         client,
		path:           strings.TrimRight(cfg.Path, "/"),
		distributionID: cfg.DistributionID,
		now:            time.Now,
	}
}

func (c *CDN) Path(relativePath string, _ bool) string {
	return c.path + "/" + strings.TrimLeft(relativePath, "/")
}

func (c *CDN) Flush(ctx context.Context, key string) (string, error) {
	return c.FlushPaths(ctx, []string{key})
}

// FlushByString invalidates every object whose path starts with s.
func (c *CDN) FlushByString(ctx context.Context, s string) (string, error) {
	return c.FlushPaths(ctx, []string{strings.TrimRight(s, "*") + "*"})
}

// FlushPaths creates an invalidation and returns its ID.
func (c *CDN) FlushPaths(ctx context.Context, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: no paths to invalidate", gomedia.ErrInvalidConfig)
	}

	items := make([]string, len(paths))
	for i, p := range paths {
		items[i] = "/" + strings.TrimLeft(p, "/")
	}

	out, err := c.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(c.distributionID),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String(c.callerReference(items)),
			Paths: &types.Paths{
				Quantity: aws.Int32(int32(len(items))),
				Items:    items,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Strs("paths", items).Msg("failed to create CloudFront invalidation")
		return "", gomedia.ErrInternal
	}

	if out.Invalidation == nil || aws.ToString(out.Invalidation.Id) == "" {
		log.Error().Strs("paths", items).Msg("CloudFront returned no invalidation id")
		return "", gomedia.ErrInternal
	}

	return aws.ToString(out.Invalidation.Id), nil
}

// FlushStatus maps the invalidation state onto gomedia.CDNStatus.
func (c *CDN) FlushStatus(ctx context.Context, identifier string) (gomedia.CDNStatus, error) {
	out, err := c.client.GetInvalidation(ctx, &cloudfront.GetInvalidationInput{
		DistributionId: aws.String(c.distributionID),
		Id:             aws.String(identifier),
	})
	if err != nil {
		log.Error().Err(err).Str("identifier", identifier).Msg("failed to get CloudFront invalidation")
		return gomedia.CDNStatusUnknown, gomedia.ErrInternal
	}

	if out.Invalidation == nil {
		return gomedia.CDNStatusError, nil
	}

	switch aws.ToString(out.Invalidation.Status) {
	case StatusCompleted:
		return gomedia.CDNStatusOK, nil
	case StatusInProgress:
		return gomedia.CDNStatusToFlush, nil
	default:
		return gomedia.CDNStatusError, nil
	}
}

// callerReference must be unique per request, CloudFront deduplicates on it.
func (c *CDN) callerReference(paths []string) string {
	return fmt.Sprintf("%d-%d", c.now().UnixNano(), len(paths))
}
