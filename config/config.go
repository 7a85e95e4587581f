// Package config loads the media configuration and wires the providers,
// contexts and download strategies it describes into a gomedia.Pool.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	gomedia "github.com/shoraid/go-mediaprovider"
	"github.com/shoraid/go-mediaprovider/metadata"
)

// Provider names registered by Build.
const (
	ProviderFile        = "file"
	ProviderImage       = "image"
	ProviderYouTube     = "youtube"
	ProviderVimeo       = "vimeo"
	ProviderDailyMotion = "dailymotion"
)

// Config holds the whole media configuration.
type Config struct {
	DefaultContext string                   `mapstructure:"default_context" validate:"required"`
	Contexts       map[string]ContextConfig `mapstructure:"contexts" validate:"required,min=1,dive"`
	AdminFormat    FormatConfig             `mapstructure:"admin_format"`
	CDN            CDNConfig                `mapstructure:"cdn"`
	Filesystem     FilesystemConfig         `mapstructure:"filesystem"`
	Providers      ProvidersConfig          `mapstructure:"providers"`
	Resizer        ResizerConfig            `mapstructure:"resizer"`
	Thumbnail      ThumbnailConfig          `mapstructure:"thumbnail"`
	HTTP           HTTPConfig               `mapstructure:"http"`
	Security       SecurityConfig           `mapstructure:"security"`
	Logging        LoggingConfig            `mapstructure:"logging"`
}

// ContextConfig declares the providers and formats of one context.
type ContextConfig struct {
	Providers []string                `mapstructure:"providers" validate:"required,min=1,dive,oneof=file image youtube vimeo dailymotion"`
	Formats   map[string]FormatConfig `mapstructure:"formats" validate:"dive"`
	Download  DownloadConfig          `mapstructure:"download"`
}

// FormatConfig is a thumbnail format as written in the configuration file.
// Unset values take the format defaults.
type FormatConfig struct {
	Width      *int   `mapstructure:"width" validate:"omitempty,gt=0"`
	Height     *int   `mapstructure:"height" validate:"omitempty,gt=0"`
	Quality    int    `mapstructure:"quality" validate:"gte=0,lte=100"`
	Format     string `mapstructure:"format"`
	Constraint *bool  `mapstructure:"constraint"`
	Resizer    string `mapstructure:"resizer"`
}

// DownloadConfig is the download policy of a context.
type DownloadConfig struct {
	Strategy string `mapstructure:"strategy" validate:"required,oneof=public forbidden roles session"`
	Mode     string `mapstructure:"mode" validate:"required,oneof=http X-Sendfile X-Accel-Redirect"`
}

// CDNConfig selects where public URLs point and how caches are flushed.
type CDNConfig struct {
	Type       string           `mapstructure:"type" validate:"oneof=server cloudfront fallback"`
	Server     ServerConfig     `mapstructure:"server"`
	CloudFront CloudFrontConfig `mapstructure:"cloudfront"`
}

type ServerConfig struct {
	Path string `mapstructure:"path"`
}

type CloudFrontConfig struct {
	Path           string `mapstructure:"path"`
	DistributionID string `mapstructure:"distribution_id"`
	Region         string `mapstructure:"region"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
}

// FilesystemConfig selects the blob backend.
type FilesystemConfig struct {
	Type  string      `mapstructure:"type" validate:"oneof=local s3"`
	Local LocalConfig `mapstructure:"local"`
	S3    S3Config    `mapstructure:"s3"`
}

type LocalConfig struct {
	Directory string `mapstructure:"directory"`
	Create    bool   `mapstructure:"create"`
}

type S3Config struct {
	Bucket     string                  `mapstructure:"bucket"`
	Region     string                  `mapstructure:"region"`
	AccessKey  string                  `mapstructure:"access_key"`
	SecretKey  string                  `mapstructure:"secret_key"`
	Endpoint   string                  `mapstructure:"endpoint"`
	UseSSL     bool                    `mapstructure:"use_ssl"`
	Visibility string                  `mapstructure:"visibility" validate:"omitempty,oneof=public private"`
	Metadata   metadata.AmazonSettings `mapstructure:"metadata"`
}

// ProvidersConfig holds the per provider options.
type ProvidersConfig struct {
	File    AllowListConfig `mapstructure:"file"`
	Image   AllowListConfig `mapstructure:"image"`
	YouTube YouTubeConfig   `mapstructure:"youtube"`
}

type AllowListConfig struct {
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	AllowedMimeTypes  []string `mapstructure:"allowed_mime_types"`
}

type YouTubeConfig struct {
	HTML5 bool `mapstructure:"html5"`
}

type ResizerConfig struct {
	Mode string `mapstructure:"mode" validate:"oneof=inset outbound"`
}

type ThumbnailConfig struct {
	DefaultExtension string `mapstructure:"default_extension"`
	Concurrency      int    `mapstructure:"concurrency" validate:"gte=0"`
}

type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint64        `mapstructure:"max_retries"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// SecurityConfig configures the roles and session download strategies.
type SecurityConfig struct {
	Roles        []string `mapstructure:"roles"`
	SessionTimes int      `mapstructure:"session_times" validate:"gte=0"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the configuration from path and GOMEDIA_* environment
// variables. An empty path loads the defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("GOMEDIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_context", "default")

	v.SetDefault("admin_format.width", 200)
	v.SetDefault("admin_format.quality", 90)
	v.SetDefault("admin_format.format", "jpg")
	v.SetDefault("admin_format.constraint", true)

	v.SetDefault("cdn.type", "server")
	v.SetDefault("cdn.server.path", "/uploads/media")

	v.SetDefault("filesystem.type", "local")
	v.SetDefault("filesystem.local.directory", "uploads/media")
	v.SetDefault("filesystem.local.create", true)
	v.SetDefault("filesystem.s3.region", "us-east-1")
	v.SetDefault("filesystem.s3.use_ssl", true)
	v.SetDefault("filesystem.s3.visibility", "public")

	v.SetDefault("providers.file.allowed_extensions", []string{
		"pdf", "txt", "rtf", "doc", "docx", "xls", "xlsx", "ppt", "pptx",
		"odt", "odg", "odp", "ods", "odc", "odf", "odb", "csv", "xml",
	})
	v.SetDefault("providers.file.allowed_mime_types", []string{
		"application/pdf", "application/x-pdf", "application/rtf", "text/html", "text/rtf", "text/plain",
		"application/excel", "application/msword", "application/vnd.ms-excel", "application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.oasis.opendocument.text", "application/vnd.oasis.opendocument.graphics",
		"application/vnd.oasis.opendocument.presentation", "application/vnd.oasis.opendocument.spreadsheet",
		"application/vnd.oasis.opendocument.chart", "application/vnd.oasis.opendocument.formula",
		"application/vnd.oasis.opendocument.database", "application/vnd.oasis.opendocument.image",
		"text/comma-separated-values", "text/csv", "text/xml", "application/xml", "application/zip",
	})
	v.SetDefault("providers.image.allowed_extensions", []string{"jpg", "jpeg", "png", "webp"})
	v.SetDefault("providers.image.allowed_mime_types", []string{"image/pjpeg", "image/jpeg", "image/png", "image/x-png", "image/webp"})
	v.SetDefault("providers.youtube.html5", false)

	v.SetDefault("resizer.mode", "inset")

	v.SetDefault("thumbnail.default_extension", "jpg")
	v.SetDefault("thumbnail.concurrency", 4)

	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.user_agent", "gomedia")

	v.SetDefault("security.roles", []string{"ROLE_ADMIN"})
	v.SetDefault("security.session_times", 1)

	v.SetDefault("logging.level", "info")
}

// Validate checks struct constraints and that the default context exists.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", gomedia.ErrInvalidConfig, err)
	}

	if _, ok := c.Contexts[c.DefaultContext]; !ok {
		return fmt.Errorf("%w: default context %q is not declared", gomedia.ErrInvalidConfig, c.DefaultContext)
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", gomedia.ErrInvalidConfig, err)
	}

	return nil
}

// ConfigureLogging sets the global zerolog level.
func (c *Config) ConfigureLogging() {
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// Format converts fc into a gomedia.Format, filling the defaults.
func (fc FormatConfig) Format() gomedia.Format {
	f := gomedia.Format{
		Width:      fc.Width,
		Height:     fc.Height,
		Quality:    fc.Quality,
		Extension:  fc.Format,
		Constraint: true,
		Resizer:    fc.Resizer,
	}

	if f.Quality == 0 {
		f.Quality = 80
	}
	if f.Extension == "" {
		f.Extension = "jpg"
	}
	if fc.Constraint != nil {
		f.Constraint = *fc.Constraint
	}

	return f
}
