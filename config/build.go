package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog/log"

	gomedia "github.com/shoraid/go-mediaprovider"
	"github.com/shoraid/go-mediaprovider/cdn"
	cloudfrontcdn "github.com/shoraid/go-mediaprovider/cdn/cloudfront"
	localdriver "github.com/shoraid/go-mediaprovider/drivers/local"
	s3driver "github.com/shoraid/go-mediaprovider/drivers/s3"
	"github.com/shoraid/go-mediaprovider/httpclient"
	"github.com/shoraid/go-mediaprovider/metadata"
	"github.com/shoraid/go-mediaprovider/provider"
	"github.com/shoraid/go-mediaprovider/resizer"
	"github.com/shoraid/go-mediaprovider/security"
	"github.com/shoraid/go-mediaprovider/thumbnail"
)

// Download strategy names registered by Build.
const (
	StrategyPublic    = "public"
	StrategyForbidden = "forbidden"
	StrategyRoles     = "roles"
	StrategySession   = "session"
)

// Resizer names formats can select.
const (
	ResizerSimple = "simple"
	ResizerSquare = "square"
)

// Options carries the request level hooks the configuration file cannot
// express.
type Options struct {
	RoleChecker security.RoleChecker
	SessionID   security.SessionIDFunc
	// HTTPClient replaces the client built from the http section.
	HTTPClient gomedia.HTTPClient
}

// Apply registers every context on pool and adds the context formats, named
// <context>_<format>, to the providers of the context. The admin format is
// added to every provider.
func (c *Config) Apply(pool *gomedia.Pool) error {
	admin := c.AdminFormat.Format()
	for _, p := range pool.Providers() {
		p.AddFormat(gomedia.FormatAdmin, admin)
	}

	for _, name := range slices.Sorted(maps.Keys(c.Contexts)) {
		cc := c.Contexts[name]

		formats := make(map[string]gomedia.Format, len(cc.Formats))
		for formatName, fc := range cc.Formats {
			formats[name+"_"+formatName] = fc.Format()
		}

		for _, providerName := range cc.Providers {
			p, err := pool.Provider(providerName)
			if err != nil {
				return fmt.Errorf("context %q: %w", name, err)
			}
			for formatName, f := range formats {
				p.AddFormat(formatName, f)
			}
		}

		pool.AddContext(name, cc.Providers, formats, &gomedia.DownloadPolicy{
			Strategy: cc.Download.Strategy,
			Mode:     gomedia.DownloadMode(cc.Download.Mode),
		})

		log.Debug().Str("context", name).Strs("providers", cc.Providers).Int("formats", len(formats)).Msg("context registered")
	}

	pool.SetDefaultContext(c.DefaultContext)
	return nil
}

// Build creates the filesystem, CDN and providers described by c and
// returns a pool ready to serve requests.
func (c *Config) Build(opts Options) (*gomedia.Pool, error) {
	adapter, err := c.adapter()
	if err != nil {
		return nil, err
	}

	fs, err := gomedia.NewFilesystem(adapter)
	if err != nil {
		return nil, err
	}

	mediaCDN, err := c.cdn(adapter)
	if err != nil {
		return nil, err
	}

	var amazon gomedia.MetadataBuilder
	if c.Filesystem.Type == "s3" {
		b, err := metadata.NewAmazonBuilder(c.Filesystem.S3.Metadata)
		if err != nil {
			return nil, err
		}
		amazon = b
	}
	builder := metadata.NewProxyBuilder(fs, amazon)

	simple, err := resizer.NewSimpleResizer(resizer.Mode(c.Resizer.Mode), builder)
	if err != nil {
		return nil, err
	}

	thumbs := thumbnail.NewFormatThumbnail(c.Thumbnail.DefaultExtension)
	thumbs.SetConcurrency(c.Thumbnail.Concurrency)
	thumbs.AddResizer(ResizerSimple, simple)
	thumbs.AddResizer(ResizerSquare, resizer.NewSquareResizer(builder))

	client := opts.HTTPClient
	if client == nil {
		client = httpclient.New(httpclient.Config{
			Timeout:    c.HTTP.Timeout,
			MaxRetries: c.HTTP.MaxRetries,
			UserAgent:  c.HTTP.UserAgent,
		})
	}

	shared := provider.Config{
		Filesystem:    fs,
		CDN:           mediaCDN,
		PathGenerator: gomedia.NewDefaultGenerator(),
		Thumbnail:     thumbs,
		Resizer:       simple,
		Metadata:      builder,
	}

	pool := gomedia.NewPool(c.DefaultContext)
	if err := c.addProviders(pool, shared, client); err != nil {
		return nil, err
	}

	pool.AddDownloadStrategy(StrategyPublic, security.Public{})
	pool.AddDownloadStrategy(StrategyForbidden, security.Forbidden{})
	if opts.RoleChecker != nil {
		pool.AddDownloadStrategy(StrategyRoles, security.NewRoles(opts.RoleChecker, c.Security.Roles...))
	}
	if opts.SessionID != nil {
		pool.AddDownloadStrategy(StrategySession, security.NewSession(c.Security.SessionTimes, opts.SessionID))
	}

	if err := c.Apply(pool); err != nil {
		return nil, err
	}

	return pool, nil
}

func (c *Config) addProviders(pool *gomedia.Pool, shared provider.Config, client gomedia.HTTPClient) error {
	// Files have no thumbnails, their URLs point at a generic icon.
	fileCfg := shared
	fileCfg.Thumbnail = thumbnail.Noop{}
	fileCfg.Resizer = nil

	file, err := provider.NewFileProvider(ProviderFile, fileCfg,
		c.Providers.File.AllowedExtensions, c.Providers.File.AllowedMimeTypes)
	if err != nil {
		return err
	}
	pool.AddProvider(ProviderFile, file)

	image, err := provider.NewImageProvider(ProviderImage, shared, resizer.ImagingDecoder{},
		c.Providers.Image.AllowedExtensions, c.Providers.Image.AllowedMimeTypes)
	if err != nil {
		return err
	}
	pool.AddProvider(ProviderImage, image)

	youtube, err := provider.NewYouTubeProvider(ProviderYouTube, shared, client, c.Providers.YouTube.HTML5)
	if err != nil {
		return err
	}
	pool.AddProvider(ProviderYouTube, youtube)

	vimeo, err := provider.NewVimeoProvider(ProviderVimeo, shared, client)
	if err != nil {
		return err
	}
	pool.AddProvider(ProviderVimeo, vimeo)

	dailymotion, err := provider.NewDailyMotionProvider(ProviderDailyMotion, shared, client)
	if err != nil {
		return err
	}
	pool.AddProvider(ProviderDailyMotion, dailymotion)

	return nil
}

func (c *Config) adapter() (gomedia.Adapter, error) {
	switch c.Filesystem.Type {
	case "s3":
		s3cfg := c.Filesystem.S3
		storage, err := s3driver.NewObjectStorage(s3driver.ObjectStorageConfig{
			Bucket:     s3cfg.Bucket,
			Region:     s3cfg.Region,
			AccessKey:  s3cfg.AccessKey,
			SecretKey:  s3cfg.SecretKey,
			Endpoint:   s3cfg.Endpoint,
			UseSSL:     s3cfg.UseSSL,
			Visibility: s3driver.Visibility(s3cfg.Visibility),
		})
		if err != nil {
			return nil, err
		}
		return storage, nil
	case "local", "":
		storage, err := localdriver.NewLocalStorage(localdriver.LocalStorageConfig{
			Directory: c.Filesystem.Local.Directory,
			Create:    c.Filesystem.Local.Create,
		})
		if err != nil {
			return nil, err
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("%w: unknown filesystem %q", gomedia.ErrInvalidConfig, c.Filesystem.Type)
	}
}

func (c *Config) cdn(adapter gomedia.Adapter) (gomedia.CDN, error) {
	server := cdn.NewServer(c.serverPath(adapter))

	switch c.CDN.Type {
	case "server", "":
		return server, nil
	case "cloudfront", "fallback":
		cf := c.CDN.CloudFront
		primary, err := cloudfrontcdn.New(cloudfrontcdn.Config{
			Path:           cf.Path,
			DistributionID: cf.DistributionID,
			Region:         cf.Region,
			AccessKey:      cf.AccessKey,
			SecretKey:      cf.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		if c.CDN.Type == "fallback" {
			return cdn.NewFallback(primary, server), nil
		}
		return primary, nil
	default:
		return nil, fmt.Errorf("%w: unknown cdn %q", gomedia.ErrInvalidConfig, c.CDN.Type)
	}
}

// serverPath serves public S3 buckets straight from the bucket URL unless
// a server path is configured.
func (c *Config) serverPath(adapter gomedia.Adapter) string {
	if s, ok := adapter.(*s3driver.ObjectStorage); ok && c.CDN.Server.Path == "" {
		return s.BaseURL()
	}
	return c.CDN.Server.Path
}
