package resizer

import (
	"context"

	"github.com/disintegration/imaging"

	gomedia "github.com/shoraid/go-mediaprovider"
)

// SquareResizer crops the center of the image to a square before scaling
// it. A format without height renders a width sided square.
type SquareResizer struct {
	metadata gomedia.MetadataBuilder
}

var _ gomedia.Resizer = (*SquareResizer)(nil)

func NewSquareResizer(metadata gomedia.MetadataBuilder) *SquareResizer {
	return &SquareResizer{metadata: metadata}
}

func (r *SquareResizer) Box(m *gomedia.Media, format gomedia.Format) (gomedia.Box, error) {
	if format.Height == nil || *format.Height <= 0 {
		format.Height = format.Width
	}
	if format.Width == nil || *format.Width <= 0 {
		format.Width = format.Height
	}

	box, err := targetBox(m, format)
	if err != nil {
		return gomedia.Box{}, err
	}

	return constrain(box, m.Box(), format), nil
}

func (r *SquareResizer) Resize(ctx context.Context, m *gomedia.Media, in, out *gomedia.BlobFile, extension string, format gomedia.Format) error {
	box, err := r.Box(m, format)
	if err != nil {
		return err
	}

	img, err := load(ctx, in)
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	side := min(bounds.Dx(), bounds.Dy())
	square := imaging.CropCenter(img, side, side)
	thumb := imaging.Resize(square, box.Width, box.Height, imaging.Lanczos)

	return save(ctx, r.metadata, m, out, thumb, extension, format.Quality)
}
