// Package resizer renders thumbnails with disintegration/imaging.
package resizer

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	gomedia "github.com/shoraid/go-mediaprovider"
)

// Mode selects how an image is fitted into the target box.
type Mode string

const (
	// ModeInset keeps the whole image inside the box.
	ModeInset Mode = "inset"
	// ModeOutbound fills the box and crops the overflow.
	ModeOutbound Mode = "outbound"
)

const defaultQuality = 80

// SimpleResizer scales the reference to the format box.
type SimpleResizer struct {
	mode     Mode
	metadata gomedia.MetadataBuilder
}

var _ gomedia.Resizer = (*SimpleResizer)(nil)

// NewSimpleResizer creates a resizer. metadata may be nil.
func NewSimpleResizer(mode Mode, metadata gomedia.MetadataBuilder) (*SimpleResizer, error) {
	if mode != ModeInset && mode != ModeOutbound {
		return nil, fmt.Errorf("%w: invalid resizer mode %q", gomedia.ErrInvalidConfig, mode)
	}
	return &SimpleResizer{mode: mode, metadata: metadata}, nil
}

// Box computes the thumbnail size of m for format. A missing side is derived
// from the media aspect ratio.
func (r *SimpleResizer) Box(m *gomedia.Media, format gomedia.Format) (gomedia.Box, error) {
	target, err := targetBox(m, format)
	if err != nil {
		return gomedia.Box{}, err
	}

	size := m.Box()
	if size.Width <= 0 || size.Height <= 0 {
		return constrain(target, size, format), nil
	}

	wr := float64(target.Width) / float64(size.Width)
	hr := float64(target.Height) / float64(size.Height)

	ratio := max(wr, hr)
	if r.mode == ModeInset {
		ratio = min(wr, hr)
	}

	scaled := size.Scale(ratio)
	box := gomedia.Box{
		Width:  min(scaled.Width, target.Width),
		Height: min(scaled.Height, target.Height),
	}

	return constrain(box, size, format), nil
}

func (r *SimpleResizer) Resize(ctx context.Context, m *gomedia.Media, in, out *gomedia.BlobFile, extension string, format gomedia.Format) error {
	box, err := r.Box(m, format)
	if err != nil {
		return err
	}

	img, err := load(ctx, in)
	if err != nil {
		return err
	}

	var thumb image.Image
	if r.mode == ModeOutbound {
		thumb = imaging.Fill(img, box.Width, box.Height, imaging.Center, imaging.Lanczos)
	} else {
		thumb = imaging.Resize(img, box.Width, box.Height, imaging.Lanczos)
	}

	return save(ctx, r.metadata, m, out, thumb, extension, format.Quality)
}

// targetBox resolves the requested width and height of format.
func targetBox(m *gomedia.Media, format gomedia.Format) (gomedia.Box, error) {
	hasWidth := format.Width != nil && *format.Width > 0
	hasHeight := format.Height != nil && *format.Height > 0

	if !hasWidth && !hasHeight {
		return gomedia.Box{}, fmt.Errorf("%w in context %q for provider %q, please add at least one parameter",
			gomedia.ErrMissingDimensions, m.Context, m.ProviderName)
	}

	var box gomedia.Box
	if hasWidth {
		box.Width = *format.Width
	}
	if hasHeight {
		box.Height = *format.Height
	}
	if hasWidth && hasHeight {
		return box, nil
	}

	size := m.Box()
	if size.Width <= 0 || size.Height <= 0 {
		if !hasHeight {
			box.Height = box.Width
		} else {
			box.Width = box.Height
		}
		return box, nil
	}

	if !hasHeight {
		box.Height = int(float64(box.Width) * float64(size.Height) / float64(size.Width))
	} else {
		box.Width = int(float64(box.Height) * float64(size.Width) / float64(size.Height))
	}

	return box, nil
}

// constrain caps box to the original size when the format forbids upscaling.
func constrain(box, size gomedia.Box, format gomedia.Format) gomedia.Box {
	if !format.Constraint || size.Width <= 0 || size.Height <= 0 {
		return box
	}
	if box.Width <= size.Width && box.Height <= size.Height {
		return box
	}

	ratio := min(float64(size.Width)/float64(box.Width), float64(size.Height)/float64(box.Height))
	return box.Scale(ratio)
}

func load(ctx context.Context, in *gomedia.BlobFile) (image.Image, error) {
	data, err := in.Content(ctx)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", in.Key(), err)
	}
	return img, nil
}

func save(ctx context.Context, metadata gomedia.MetadataBuilder, m *gomedia.Media, out *gomedia.BlobFile, img image.Image, extension string, quality int) error {
	format, err := imaging.FormatFromExtension(extension)
	if err != nil {
		log.Debug().Str("extension", extension).Msg("unsupported output format, encoding as jpeg")
		format = imaging.JPEG
	}

	if quality <= 0 {
		quality = defaultQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", out.Key(), err)
	}

	var meta map[string]string
	if metadata != nil {
		meta = metadata.Get(m, out.Name())
	}

	return out.SetContent(ctx, buf.Bytes(), meta)
}
