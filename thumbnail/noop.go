package thumbnail

import (
	"context"

	gomedia "github.com/shoraid/go-mediaprovider"
)

// Noop never renders anything, every URL points at the reference image.
type Noop struct{}

var _ gomedia.Thumbnail = Noop{}

func (Noop) Generate(context.Context, gomedia.MediaProvider, *gomedia.Media) error { return nil }

func (Noop) Delete(context.Context, gomedia.MediaProvider, *gomedia.Media, ...string) error {
	return nil
}

func (Noop) GeneratePublicURL(p gomedia.MediaProvider, m *gomedia.Media, _ string) string {
	return p.ReferenceImage(m)
}

func (Noop) GeneratePrivateURL(p gomedia.MediaProvider, m *gomedia.Media, _ string) string {
	return p.ReferenceImage(m)
}
