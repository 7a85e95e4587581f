package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gomedia "github.com/shoraid/go-mediaprovider"
)

var referencePattern = regexp.MustCompile(`^[0-9a-f]{40}\.txt$`)

func newTestFileProvider(t *testing.T) (*FileProvider, Config) {
	t.Helper()

	cfg := newTestConfig(t)
	p, err := NewFileProvider("file", cfg, []string{"txt", "pdf"}, []string{"text/plain", "application/pdf"})
	require.NoError(t, err)
	p.TempDir = t.TempDir()
	return p, cfg
}

func TestFileProvider_Transform(t *testing.T) {
	ctx := context.Background()

	t.Run("should ingest a local file", func(t *testing.T) {
		p, _ := newTestFileProvider(t)
		path := writeTempFile(t, "notes.txt", []byte("hello world"))

		m := &gomedia.Media{Context: "default"}
		m.SetBinaryContent(gomedia.Text(path))

		require.NoError(t, p.Transform(ctx, m), "expected transform to succeed")

		assert.Equal(t, "notes.txt", m.Name, "expected name from filename")
		assert.Equal(t, "notes.txt", m.MetadataString("filename", ""), "expected filename metadata")
		assert.Equal(t, "file", m.ProviderName, "expected provider name")
		assert.Equal(t, gomedia.StatusOK, m.ProviderStatus, "expected status ok")
		assert.Equal(t, "text/plain", m.ContentType, "expected sniffed content type")
		assert.Equal(t, int64(11), m.Size, "expected size")
		assert.Regexp(t, referencePattern, m.ProviderReference.String(), "expected generated reference")
	})

	t.Run("should keep an assigned reference", func(t *testing.T) {
		p, _ := newTestFileProvider(t)
		path := writeTempFile(t, "notes.txt", []byte("hello world"))

		m := &gomedia.Media{Context: "default", ProviderReference: gomedia.AssignedReference("existing.txt")}
		m.ReplaceBinaryContent(gomedia.Text(path))

		require.NoError(t, p.Transform(ctx, m), "expected transform to succeed")
		assert.Equal(t, "existing.txt", m.ProviderReference.String(), "expected reference to be stable")
	})

	t.Run("should generate distinct references", func(t *testing.T) {
		p, _ := newTestFileProvider(t)
		path := writeTempFile(t, "notes.txt", []byte("hello world"))

		first := &gomedia.Media{Context: "default"}
		first.SetBinaryContent(gomedia.Text(path))
		second := &gomedia.Media{Context: "default"}
		second.SetBinaryContent(gomedia.Text(path))

		require.NoError(t, p.Transform(ctx, first))
		require.NoError(t, p.Transform(ctx, second))
		assert.NotEqual(t, first.ProviderReference.String(), second.ProviderReference.String(), "expected unique references")
	})

	t.Run("should fail a zero byte upload", func(t *testing.T) {
		p, _ := newTestFileProvider(t)
		path := writeTempFile(t, "phpXYZ", nil)

		m := &gomedia.Media{Context: "default"}
		m.SetBinaryContent(&gomedia.UploadedFile{File: gomedia.File{Path: path}, ClientName: "report.pdf"})

		err := p.Transform(ctx, m)

		assert.ErrorIs(t, err, gomedia.ErrUploadFailed, "expected upload failure")
		assert.Equal(t, gomedia.StatusError, m.ProviderStatus, "expected status error")
		assert.True(t, m.ProviderReference.IsAssigned(), "expected synthetic reference")
	})

	t.Run("should ingest a request body", func(t *testing.T) {
		p, _ := newTestFileProvider(t)

		m := &gomedia.Media{Context: "default", Name: "upload"}
		m.SetBinaryContent(&gomedia.RequestBody{Body: []byte("some text body"), ContentType: "text/plain; charset=utf-8"})

		require.NoError(t, p.Transform(ctx, m), "expected transform to succeed")

		content, ok := m.BinaryContent().(*gomedia.UploadedFile)
		require.True(t, ok, "expected request body to become an upload")
		assert.Equal(t, p.TempDir, filepath.Dir(content.Pathname()), "expected body in the temp dir")
		assert.Equal(t, "upload", m.Name, "expected name to be kept")
		assert.Equal(t, int64(14), m.Size, "expected body size")
		assert.Regexp(t, referencePattern, m.ProviderReference.String(), "expected txt reference")
	})

	t.Run("should fail on missing file", func(t *testing.T) {
		p, _ := newTestFileProvider(t)

		m := &gomedia.Media{Context: "default"}
		m.SetBinaryContent(gomedia.Text(filepath.Join(t.TempDir(), "missing.txt")))

		assert.ErrorIs(t, p.Transform(ctx, m), gomedia.ErrFileNotFound, "expected missing file error")
	})
}

func TestFileProvider_PersistAndUpdate(t *testing.T) {
	ctx := context.Background()
	p, cfg := newTestFileProvider(t)

	m := &gomedia.Media{ID: 1, Context: "default"}
	m.SetBinaryContent(gomedia.Text(writeTempFile(t, "v1.txt", []byte("version one"))))
	require.NoError(t, p.Transform(ctx, m))
	require.NoError(t, p.PostPersist(ctx, m), "expected persist to succeed")

	firstKey := p.ReferenceImage(m)
	data, err := cfg.Filesystem.Read(ctx, firstKey)
	require.NoError(t, err, "expected reference blob")
	assert.Equal(t, "version one", string(data), "expected stored content")
	assert.Nil(t, m.BinaryContent(), "expected content to be reset")

	m.SetBinaryContent(gomedia.Text(writeTempFile(t, "v2.txt", []byte("version two"))))
	require.NoError(t, p.Transform(ctx, m))
	require.NoError(t, p.PostUpdate(ctx, m), "expected update to succeed")

	secondKey := p.ReferenceImage(m)
	assert.NotEqual(t, firstKey, secondKey, "expected a new reference")

	exists, err := cfg.Filesystem.Has(ctx, firstKey)
	require.NoError(t, err)
	assert.False(t, exists, "expected previous blob to be deleted")

	data, err = cfg.Filesystem.Read(ctx, secondKey)
	require.NoError(t, err)
	assert.Equal(t, "version two", string(data), "expected new content")

	m.Size = 0
	require.NoError(t, p.UpdateMetadata(ctx, m, false), "expected metadata refresh")
	assert.Equal(t, int64(11), m.Size, "expected size from the stored blob")
}

func TestFileProvider_RequestBodyCleanup(t *testing.T) {
	ctx := context.Background()

	t.Run("should remove the spooled body after persist", func(t *testing.T) {
		p, cfg := newTestFileProvider(t)

		m := &gomedia.Media{ID: 1, Context: "default", Name: "upload"}
		m.SetBinaryContent(&gomedia.RequestBody{Body: []byte("hello"), ContentType: "text/plain"})
		require.NoError(t, p.Transform(ctx, m))
		require.NoError(t, p.PostPersist(ctx, m), "expected persist to succeed")

		entries, err := os.ReadDir(p.TempDir)
		require.NoError(t, err)
		assert.Empty(t, entries, "expected temp dir to be empty")

		data, err := cfg.Filesystem.Read(ctx, p.ReferenceImage(m))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data), "expected body to be stored")
	})

	t.Run("should remove the spooled body after update", func(t *testing.T) {
		p, _ := newTestFileProvider(t)

		m := &gomedia.Media{ID: 1, Context: "default", Name: "upload", ProviderReference: gomedia.AssignedReference("old.txt")}
		m.SetBinaryContent(&gomedia.RequestBody{Body: []byte("hello again"), ContentType: "text/plain"})
		require.NoError(t, p.Transform(ctx, m))
		require.NoError(t, p.PostUpdate(ctx, m), "expected update to succeed")

		entries, err := os.ReadDir(p.TempDir)
		require.NoError(t, err)
		assert.Empty(t, entries, "expected temp dir to be empty")
	})

	t.Run("should remove the spooled body of a failed ingestion", func(t *testing.T) {
		p, _ := newTestFileProvider(t)

		m := &gomedia.Media{ID: 1, Context: "default", Name: "upload"}
		m.SetBinaryContent(&gomedia.RequestBody{ContentType: "text/plain"})

		assert.ErrorIs(t, p.Transform(ctx, m), gomedia.ErrUploadFailed, "expected empty body to fail")

		entries, err := os.ReadDir(p.TempDir)
		require.NoError(t, err)
		assert.Empty(t, entries, "expected temp dir to be empty")
		assert.Nil(t, m.BinaryContent(), "expected content to be dropped")
	})

	t.Run("should keep files it does not own", func(t *testing.T) {
		p, _ := newTestFileProvider(t)
		path := writeTempFile(t, "notes.txt", []byte("hello"))

		m := &gomedia.Media{ID: 1, Context: "default"}
		m.SetBinaryContent(gomedia.Text(path))
		require.NoError(t, p.Transform(ctx, m))
		require.NoError(t, p.PostPersist(ctx, m))

		assert.FileExists(t, path, "expected caller file to be kept")
	})
}

func TestFileProvider_URLs(t *testing.T) {
	p, _ := newTestFileProvider(t)
	m := &gomedia.Media{ID: 1, Context: "default", ProviderReference: gomedia.AssignedReference("abc.txt")}

	assert.Equal(t, "/media/default/0001/01/abc.txt", p.GeneratePublicURL(m, gomedia.FormatReference), "expected reference url")
	assert.Equal(t, "/media/bundles/gomedia/files/default_small/file.png", p.GeneratePublicURL(m, "default_small"), "expected icon url")

	key, ok := p.GeneratePrivateURL(m, gomedia.FormatReference)
	assert.True(t, ok, "expected private reference url")
	assert.Equal(t, "default/0001/01/abc.txt", key, "expected reference key")

	_, ok = p.GeneratePrivateURL(m, "default_small")
	assert.False(t, ok, "expected no private url for other formats")
}

func TestFileProvider_Validate(t *testing.T) {
	p, _ := newTestFileProvider(t)

	tests := []struct {
		name     string
		content  gomedia.BinaryContent
		expected []string
	}{
		{
			name:     "should accept an allowed file",
			content:  &gomedia.File{Path: writeTempFile(t, "notes.txt", []byte("hello"))},
			expected: nil,
		},
		{
			name:     "should reject a disallowed extension and mime type",
			content:  &gomedia.File{Path: writeTempFile(t, "image.png", pngBytes(t, 2, 2))},
			expected: []string{"Invalid extensions", "Invalid mime type : image/png"},
		},
		{
			name: "should reject an empty upload",
			content: &gomedia.UploadedFile{
				File:       gomedia.File{Path: writeTempFile(t, "phpABC", []byte("hello"))},
				ClientName: "notes.txt",
			},
			expected: []string{"The file is too big, max size: unknown"},
		},
		{
			name:     "should ignore content that is not a file",
			content:  gomedia.Text("notes.txt"),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &gomedia.Media{Context: "default"}
			m.ReplaceBinaryContent(tt.content)

			errs := &gomedia.ErrorElement{}
			p.Validate(errs, m)

			var messages []string
			for _, v := range errs.Violations() {
				messages = append(messages, v.String())
			}
			assert.Equal(t, tt.expected, messages, "expected violations to match")
		})
	}
}

func TestFileProvider_DownloadResponse(t *testing.T) {
	ctx := context.Background()
	p, cfg := newTestFileProvider(t)

	m := &gomedia.Media{
		ID:                1,
		Context:           "default",
		Name:              "Quarterly report",
		ContentType:       "text/plain",
		ProviderReference: gomedia.AssignedReference("abc.txt"),
	}
	m.SetMetadataValue("filename", "report.txt")
	require.NoError(t, cfg.Filesystem.Write(ctx, "default/0001/01/abc.txt", []byte("report body"), nil))

	t.Run("should stream the file over http", func(t *testing.T) {
		h, err := p.DownloadResponse(ctx, m, gomedia.FormatReference, gomedia.DownloadModeHTTP, http.Header{"X-Custom": {"1"}})
		require.NoError(t, err, "expected download response")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download", nil))

		assert.Equal(t, http.StatusOK, rec.Code, "expected ok")
		assert.Equal(t, "report body", rec.Body.String(), "expected file body")
		assert.Equal(t, `attachment; filename="report.txt"`, rec.Header().Get("Content-Disposition"), "expected attachment")
		assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"), "expected content type")
		assert.Equal(t, "1", rec.Header().Get("X-Custom"), "expected extra headers")
	})

	t.Run("should delegate to the web server", func(t *testing.T) {
		h, err := p.DownloadResponse(ctx, m, gomedia.FormatReference, gomedia.DownloadModeXSendfile, nil)
		require.NoError(t, err, "expected download response")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download", nil))

		dir := cfg.Filesystem.Adapter().(gomedia.DirectoryAdapter).Directory()
		assert.Equal(t, filepath.Join(dir, "default", "0001", "01", "abc.txt"), rec.Header().Get("X-Sendfile"), "expected sendfile path")
		assert.Empty(t, rec.Body.String(), "expected no body")
	})

	t.Run("should reject an invalid mode", func(t *testing.T) {
		_, err := p.DownloadResponse(ctx, m, gomedia.FormatReference, gomedia.DownloadMode("ftp"), nil)
		assert.ErrorIs(t, err, gomedia.ErrInvalidDownloadMode, "expected invalid mode")
	})

	t.Run("should reject a format without file", func(t *testing.T) {
		_, err := p.DownloadResponse(ctx, m, "default_small", gomedia.DownloadModeHTTP, nil)
		assert.ErrorIs(t, err, gomedia.ErrUnknownFormat, "expected unknown format")
	})

	t.Run("should reject sendfile on remote storage", func(t *testing.T) {
		remote, err := gomedia.NewFilesystem(new(gomedia.MockAdapter))
		require.NoError(t, err)

		remoteCfg := cfg
		remoteCfg.Filesystem = remote
		rp, err := NewFileProvider("file", remoteCfg, nil, nil)
		require.NoError(t, err)

		_, err = rp.DownloadResponse(ctx, m, gomedia.FormatReference, gomedia.DownloadModeXAccelRedirect, nil)
		assert.ErrorIs(t, err, gomedia.ErrSendfileUnsupported, "expected sendfile to be unsupported")
	})

	t.Run("should answer not found when the blob is gone", func(t *testing.T) {
		gone := m.Clone()
		gone.ProviderReference = gomedia.AssignedReference("gone.txt")

		h, err := p.DownloadResponse(ctx, gone, gomedia.FormatReference, gomedia.DownloadModeHTTP, nil)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, "expected not found")
	})
}

func TestFileProvider_HelperProperties(t *testing.T) {
	p, _ := newTestFileProvider(t)
	m := &gomedia.Media{ID: 1, Context: "default", Name: "notes", ProviderReference: gomedia.AssignedReference("abc.txt")}

	props, err := p.HelperProperties(m, "default_small", gomedia.HelperOptions{Attributes: map[string]any{"class": "file"}})
	require.NoError(t, err)

	assert.Equal(t, gomedia.HelperProperties{
		"title":     "notes",
		"thumbnail": "default/0001/01/abc.txt",
		"file":      "default/0001/01/abc.txt",
		"class":     "file",
	}, props, "expected helper properties")
}
