package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	gomedia "github.com/shoraid/go-mediaprovider"
	"github.com/shoraid/go-mediaprovider/resizer"
)

func TestImageProvider_Transform(t *testing.T) {
	ctx := context.Background()

	t.Run("should read the natural size", func(t *testing.T) {
		p, err := NewImageProvider("image", newTestConfig(t), resizer.ImagingDecoder{}, []string{"png", "jpg"}, []string{"image/png", "image/jpeg"})
		require.NoError(t, err)

		m := &gomedia.Media{Context: "default"}
		m.SetBinaryContent(gomedia.Text(writeTempFile(t, "photo.png", pngBytes(t, 4, 3))))

		require.NoError(t, p.Transform(ctx, m), "expected transform to succeed")

		assert.Equal(t, 4, m.Width, "expected width")
		assert.Equal(t, 3, m.Height, "expected height")
		assert.Equal(t, "image/png", m.ContentType, "expected content type")
		assert.Equal(t, gomedia.StatusOK, m.ProviderStatus, "expected status ok")
		assert.True(t, strings.HasSuffix(m.ProviderReference.String(), ".png"), "expected png reference")
	})

	tests := []struct {
		name       string
		extensions []string
		mimeTypes  []string
	}{
		{name: "should reject a disallowed extension", extensions: []string{"jpg"}, mimeTypes: []string{"image/png"}},
		{name: "should reject a disallowed mime type", extensions: []string{"png"}, mimeTypes: []string{"image/jpeg"}},
		{name: "should reject without allowed extensions", extensions: nil, mimeTypes: []string{"image/png"}},
		{name: "should reject without allowed mime types", extensions: []string{"png"}, mimeTypes: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewImageProvider("image", newTestConfig(t), resizer.ImagingDecoder{}, tt.extensions, tt.mimeTypes)
			require.NoError(t, err)

			m := &gomedia.Media{Context: "default"}
			m.SetBinaryContent(gomedia.Text(writeTempFile(t, "photo.png", pngBytes(t, 4, 3))))

			assert.ErrorIs(t, p.Transform(ctx, m), gomedia.ErrUploadFailed, "expected upload to fail")
		})
	}

	t.Run("should flag undecodable images", func(t *testing.T) {
		decoder := new(gomedia.MockImageDecoder)
		decoder.On("Open", mock.Anything).Return(gomedia.Box{}, errors.New("corrupt data"))

		p, err := NewImageProvider("image", newTestConfig(t), decoder, []string{"png"}, []string{"image/png"})
		require.NoError(t, err)

		m := &gomedia.Media{Context: "default"}
		m.SetBinaryContent(gomedia.Text(writeTempFile(t, "photo.png", pngBytes(t, 4, 3))))

		require.NoError(t, p.Transform(ctx, m), "expected decode failure to be absorbed")
		assert.Equal(t, gomedia.StatusError, m.ProviderStatus, "expected status error")
		assert.Zero(t, m.Width, "expected no width")
	})

	t.Run("should require a decoder", func(t *testing.T) {
		_, err := NewImageProvider("image", newTestConfig(t), nil, nil, nil)
		assert.ErrorIs(t, err, gomedia.ErrInvalidConfig, "expected missing decoder to be rejected")
	})
}

func TestImageProvider_Lifecycle(t *testing.T) {
	ctx := context.Background()

	cfg := newTestConfig(t)
	simple, err := resizer.NewSimpleResizer(resizer.ModeInset, nil)
	require.NoError(t, err)
	cfg.Resizer = simple

	p, err := NewImageProvider("image", cfg, resizer.ImagingDecoder{}, []string{"png"}, []string{"image/png"})
	require.NoError(t, err)
	p.AddFormat(gomedia.FormatAdmin, gomedia.Format{Width: gomedia.Dimension(4), Extension: "jpg", Constraint: true})
	p.AddFormat("default_small", gomedia.Format{Width: gomedia.Dimension(2), Extension: "jpg", Constraint: true})
	p.AddFormat("news_small", gomedia.Format{Width: gomedia.Dimension(2), Extension: "jpg", Constraint: true})

	m := &gomedia.Media{ID: 1, Context: "default"}
	m.SetBinaryContent(gomedia.Text(writeTempFile(t, "photo.png", pngBytes(t, 8, 4))))
	require.NoError(t, p.Transform(ctx, m))
	require.NoError(t, p.PostPersist(ctx, m), "expected persist to render thumbnails")

	fs := cfg.Filesystem
	for _, key := range []string{
		p.ReferenceImage(m),
		"default/0001/01/thumb_1_admin.jpg",
		"default/0001/01/thumb_1_default_small.jpg",
	} {
		exists, err := fs.Has(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists, "expected %s to be stored", key)
	}

	exists, err := fs.Has(ctx, "default/0001/01/thumb_1_news_small.jpg")
	require.NoError(t, err)
	assert.False(t, exists, "expected other contexts to be skipped")

	data, err := fs.Read(ctx, "default/0001/01/thumb_1_default_small.jpg")
	require.NoError(t, err)
	box, err := resizer.ImagingDecoder{}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, gomedia.Box{Width: 2, Height: 1}, box, "expected thumbnail box")

	m.Width, m.Height, m.Size = 0, 0, 0
	require.NoError(t, p.UpdateMetadata(ctx, m, false), "expected metadata refresh")
	assert.Equal(t, 8, m.Width, "expected width from the stored reference")
	assert.Equal(t, 4, m.Height, "expected height from the stored reference")
	assert.NotZero(t, m.Size, "expected size from the stored reference")

	reference := p.ReferenceImage(m)
	snapshot, err := p.PreRemove(ctx, m)
	require.NoError(t, err)
	require.NoError(t, p.PostRemove(ctx, snapshot), "expected removal to succeed")

	for _, key := range []string{reference, "default/0001/01/thumb_1_admin.jpg", "default/0001/01/thumb_1_default_small.jpg"} {
		exists, err := fs.Has(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, "expected %s to be removed", key)
	}
}

func newHelperProvider(t *testing.T) *ImageProvider {
	t.Helper()

	formats := map[string]gomedia.Format{
		gomedia.FormatAdmin: {Width: gomedia.Dimension(200), Extension: "jpg"},
		"default_small":     {Width: gomedia.Dimension(100), Extension: "jpg"},
		"default_medium":    {Width: gomedia.Dimension(300), Extension: "jpg"},
		"default_big":       {Width: gomedia.Dimension(500), Extension: "jpg"},
		"news_small":        {Width: gomedia.Dimension(100), Extension: "jpg"},
	}

	r := new(gomedia.MockResizer)
	for _, f := range formats {
		r.On("Box", mock.Anything, f).Return(gomedia.Box{Width: *f.Width, Height: *f.Width * 4 / 5}, nil)
	}

	cfg := newTestConfig(t)
	cfg.Resizer = r

	p, err := NewImageProvider("image", cfg, new(gomedia.MockImageDecoder), []string{"png"}, []string{"image/png"})
	require.NoError(t, err)
	for name, f := range formats {
		p.AddFormat(name, f)
	}
	return p
}

func helperMedia() *gomedia.Media {
	return &gomedia.Media{
		ID:                1,
		Name:              "Sunset",
		Context:           "default",
		Width:             1000,
		Height:            800,
		ProviderReference: gomedia.AssignedReference("abc.png"),
	}
}

func TestImageProvider_HelperProperties(t *testing.T) {
	const (
		smallURL  = "/media/default/0001/01/thumb_1_default_small.jpg"
		mediumURL = "/media/default/0001/01/thumb_1_default_medium.jpg"
		bigURL    = "/media/default/0001/01/thumb_1_default_big.jpg"
		refURL    = "/media/default/0001/01/abc.png"
	)

	t.Run("should build img attributes with srcset", func(t *testing.T) {
		p := newHelperProvider(t)

		props, err := p.HelperProperties(helperMedia(), "small", gomedia.HelperOptions{
			Attributes: map[string]any{"class": "thumb"},
		})
		require.NoError(t, err)

		assert.Equal(t, gomedia.HelperProperties{
			"alt":    "Sunset",
			"title":  "Sunset",
			"src":    smallURL,
			"width":  100,
			"height": 80,
			"srcset": smallURL + " 100w, " + mediumURL + " 300w, " + bigURL + " 500w, " + refURL + " 1000w",
			"sizes":  "(max-width: 100px) 100vw, 100px",
			"class":  "thumb",
		}, props, "expected img attributes")
	})

	t.Run("should restrict the srcset", func(t *testing.T) {
		p := newHelperProvider(t)

		props, err := p.HelperProperties(helperMedia(), "small", gomedia.HelperOptions{Srcset: []string{"big"}})
		require.NoError(t, err)

		assert.Equal(t, smallURL+" 100w, "+bigURL+" 500w, "+refURL+" 1000w", props["srcset"], "expected restricted srcset")
	})

	t.Run("should prefer the description as alt", func(t *testing.T) {
		p := newHelperProvider(t)
		m := helperMedia()
		m.Description = "A sunset over the sea"

		props, err := p.HelperProperties(m, "small", gomedia.HelperOptions{})
		require.NoError(t, err)

		assert.Equal(t, "A sunset over the sea", props["alt"], "expected description")
	})

	t.Run("should omit srcset for the admin format", func(t *testing.T) {
		p := newHelperProvider(t)

		props, err := p.HelperProperties(helperMedia(), gomedia.FormatAdmin, gomedia.HelperOptions{})
		require.NoError(t, err)

		assert.NotContains(t, props, "srcset", "expected no srcset")
		assert.NotContains(t, props, "sizes", "expected no sizes")
		assert.Equal(t, 200, props["width"], "expected admin width")
	})

	t.Run("should build picture sources", func(t *testing.T) {
		p := newHelperProvider(t)

		props, err := p.HelperProperties(helperMedia(), "small", gomedia.HelperOptions{
			Picture: []gomedia.PictureSource{
				{Format: "big"},
				{Format: "medium", Media: "(min-width: 600px)"},
			},
			Attributes: map[string]any{"loading": "lazy"},
		})
		require.NoError(t, err)

		picture, ok := props["picture"].(map[string]any)
		require.True(t, ok, "expected picture markup")

		assert.Equal(t, []map[string]any{
			{"media": "(max-width: 500px)", "srcset": bigURL},
			{"media": "(min-width: 600px)", "srcset": mediumURL},
		}, picture["source"], "expected sources in request order")

		img, ok := picture["img"].(gomedia.HelperProperties)
		require.True(t, ok, "expected img attributes")
		assert.Equal(t, smallURL, img["src"], "expected fallback src")
		assert.Equal(t, "lazy", img["loading"], "expected attributes on img")
		assert.NotContains(t, img, "srcset", "expected no srcset in picture mode")
	})

	t.Run("should reject srcset with picture", func(t *testing.T) {
		p := newHelperProvider(t)

		_, err := p.HelperProperties(helperMedia(), "small", gomedia.HelperOptions{
			Srcset:  []string{"big"},
			Picture: []gomedia.PictureSource{{Format: "big"}},
		})
		assert.ErrorIs(t, err, gomedia.ErrSrcsetPictureConflict, "expected conflict error")
	})

	t.Run("should reject an unknown format", func(t *testing.T) {
		p := newHelperProvider(t)

		_, err := p.HelperProperties(helperMedia(), "huge", gomedia.HelperOptions{})
		assert.ErrorIs(t, err, gomedia.ErrUnknownFormat, "expected unknown format")
	})
}

func TestImageProvider_URLs(t *testing.T) {
	p := newHelperProvider(t)
	m := helperMedia()

	assert.Equal(t, "/media/default/0001/01/abc.png", p.GeneratePublicURL(m, gomedia.FormatReference), "expected reference url")
	assert.Equal(t, "/media/default/0001/01/thumb_1_default_big.jpg", p.GeneratePublicURL(m, "default_big"), "expected thumbnail url")

	key, ok := p.GeneratePrivateURL(m, "default_big")
	assert.True(t, ok, "expected private url")
	assert.Equal(t, "default/0001/01/thumb_1_default_big.jpg", key, "expected thumbnail key")
}
