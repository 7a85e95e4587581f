package resizer

import (
	"bytes"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support

	gomedia "github.com/shoraid/go-mediaprovider"
)

// ImagingDecoder reads image sizes, honoring the EXIF orientation.
type ImagingDecoder struct{}

var _ gomedia.ImageDecoder = ImagingDecoder{}

func (ImagingDecoder) Open(path string) (gomedia.Box, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gomedia.Box{}, err
	}

	b := img.Bounds()
	return gomedia.Box{Width: b.Dx(), Height: b.Dy()}, nil
}

func (ImagingDecoder) Decode(data []byte) (gomedia.Box, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return gomedia.Box{}, err
	}

	b := img.Bounds()
	return gomedia.Box{Width: b.Dx(), Height: b.Dy()}, nil
}
