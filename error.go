package gomedia

import "errors"

// Storage errors.
var (
	ErrInternal      = errors.New("media: internal storage error")
	ErrInvalidConfig = errors.New("media: invalid configuration")
	ErrInvalidKey    = errors.New("media: invalid key name")
	ErrNotFound      = errors.New("media: file not found")
)

// Configuration errors. They signal a mismatch between configuration and code
// and are never retried.
var (
	ErrEmptyProviderName       = errors.New("media: provider name cannot be empty, did you forget to set the media provider name?")
	ErrNoProviders             = errors.New("media: no providers configured")
	ErrUnknownProvider         = errors.New("media: unknown provider")
	ErrUnknownContext          = errors.New("media: unknown context")
	ErrEmptyContext            = errors.New("media: media has no context")
	ErrNoDownloadPolicy        = errors.New("media: context has no download policy")
	ErrUnknownDownloadStrategy = errors.New("media: unable to retrieve the download security")
	ErrUnknownFormat           = errors.New("media: unknown format")
	ErrUnknownResizer          = errors.New("media: unknown resizer")
)

// Ingestion errors, reported back to the end user.
var (
	ErrUploadFailed         = errors.New("media: upload failed")
	ErrInvalidName          = errors.New("media: please define a valid media's name")
	ErrFileNotFound         = errors.New("media: the file does not exist")
	ErrInvalidBinaryContent = errors.New("media: invalid binary content")
)

// Remote metadata errors. Video providers absorb them into the media status.
var (
	ErrMetadataRetrieve = errors.New("media: unable to retrieve the video information")
	ErrMetadataDecode   = errors.New("media: unable to decode the video information")
)

// Download and helper usage errors.
var (
	ErrInvalidDownloadMode   = errors.New("media: invalid download mode provided")
	ErrSendfileUnsupported   = errors.New("media: cannot use X-Sendfile or X-Accel-Redirect with a non local filesystem")
	ErrSrcsetPictureConflict = errors.New("media: the 'srcset' and 'picture' options must not be used simultaneously")
	ErrMissingDimensions     = errors.New("media: width/height parameter is missing")
)
