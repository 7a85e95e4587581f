package provider

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	gomedia "github.com/shoraid/go-mediaprovider"
)

// FileProvider stores arbitrary files in the blob store.
type FileProvider struct {
	*Base

	allowedExtensions []string
	allowedMimeTypes  []string

	// TempDir receives request bodies before ingestion. Empty means os.TempDir.
	TempDir string
}

var _ gomedia.MediaProvider = (*FileProvider)(nil)

// NewFileProvider creates a file provider accepting the given extensions and
// MIME types.
func NewFileProvider(name string, cfg Config, allowedExtensions, allowedMimeTypes []string) (*FileProvider, error) {
	p, err := newFileProvider(name, cfg, allowedExtensions, allowedMimeTypes)
	if err != nil {
		return nil, err
	}
	p.bind(p)
	return p, nil
}

func newFileProvider(name string, cfg Config, allowedExtensions, allowedMimeTypes []string) (*FileProvider, error) {
	base, err := newBase(name, cfg)
	if err != nil {
		return nil, err
	}

	return &FileProvider{
		Base:              base,
		allowedExtensions: lowerAll(allowedExtensions),
		allowedMimeTypes:  lowerAll(allowedMimeTypes),
	}, nil
}

func (p *FileProvider) Info() gomedia.ProviderInfo {
	return gomedia.ProviderInfo{
		Title:       p.name,
		Description: "file",
		Image:       "bundles/gomedia/file.png",
		Options:     map[string]any{"class": "fa fa-file-text-o"},
	}
}

func (p *FileProvider) AllowedExtensions() []string { return slices.Clone(p.allowedExtensions) }

func (p *FileProvider) AllowedMimeTypes() []string { return slices.Clone(p.allowedMimeTypes) }

// ReferenceImage returns the storage key of the original file.
func (p *FileProvider) ReferenceImage(m *gomedia.Media) string {
	return p.self.GeneratePath(m) + "/" + m.ProviderReference.String()
}

func (p *FileProvider) ReferenceFile(ctx context.Context, m *gomedia.Media) (*gomedia.BlobFile, error) {
	return p.filesystem.Get(ctx, p.self.ReferenceImage(m), true)
}

func (p *FileProvider) referenceKey(m *gomedia.Media) string {
	if !m.ProviderReference.IsAssigned() {
		return ""
	}
	return p.self.ReferenceImage(m)
}

func (p *FileProvider) doTransform(_ context.Context, m *gomedia.Media) error {
	if err := p.fixBinaryContent(m); err != nil {
		return err
	}
	if err := p.fixFilename(m); err != nil {
		return err
	}

	content, ok := m.BinaryContent().(gomedia.FileContent)
	if !ok {
		return fmt.Errorf("%w: %T", gomedia.ErrInvalidBinaryContent, m.BinaryContent())
	}

	if up, ok := content.(*gomedia.UploadedFile); ok && up.ReportedSize == 0 {
		m.ProviderReference = gomedia.AssignedReference(uuid.NewString())
		m.ProviderStatus = gomedia.StatusError
		return fmt.Errorf("%w: the uploaded file is not found", gomedia.ErrUploadFailed)
	}

	if m.ProviderName == "" {
		m.ProviderName = p.name
	}

	if !m.ProviderReference.IsAssigned() {
		m.ProviderReference = gomedia.AssignedReference(generateReferenceName(m.Name, fileExtension(content)))
	}

	mimeType, err := content.MimeType()
	if err != nil {
		return err
	}
	size, err := content.FileSize()
	if err != nil {
		return err
	}

	m.ContentType = mimeType
	m.Size = size
	m.ProviderStatus = gomedia.StatusOK

	return nil
}

// fixBinaryContent normalizes the content to a local file.
func (p *FileProvider) fixBinaryContent(m *gomedia.Media) error {
	switch c := m.BinaryContent().(type) {
	case nil, *gomedia.File, *gomedia.UploadedFile:
		return nil

	case gomedia.Text:
		f, err := gomedia.OpenFile(string(c))
		if err != nil {
			return err
		}
		m.ReplaceBinaryContent(f)
		return nil

	case *gomedia.RequestBody:
		pattern := "gomedia_*"
		if ext := c.Extension(); ext != "" {
			pattern += "." + ext
		}

		tmp, err := os.CreateTemp(p.TempDir, pattern)
		if err != nil {
			return err
		}
		defer tmp.Close()

		if _, err := tmp.Write(c.Body); err != nil {
			removeTemporary(tmp.Name())
			return err
		}

		m.ReplaceBinaryContent(&gomedia.UploadedFile{
			File:           gomedia.File{Path: tmp.Name()},
			ClientName:     filepath.Base(tmp.Name()),
			ClientMimeType: c.ContentType,
			ReportedSize:   int64(len(c.Body)),
			Temporary:      true,
		})
		return nil

	default:
		return fmt.Errorf("%w: %T", gomedia.ErrInvalidBinaryContent, c)
	}
}

// temporaryCleanup returns a func removing the file a request body was
// spooled to. It is a no-op for any other content.
func temporaryCleanup(content gomedia.BinaryContent) func() {
	up, ok := content.(*gomedia.UploadedFile)
	if !ok || !up.Temporary {
		return func() {}
	}
	return func() { removeTemporary(up.Path) }
}

// discardTemporary drops a spooled request body from m after a failed
// ingestion.
func discardTemporary(m *gomedia.Media) {
	if up, ok := m.BinaryContent().(*gomedia.UploadedFile); ok && up.Temporary {
		removeTemporary(up.Path)
		m.ResetBinaryContent()
	}
}

func removeTemporary(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("file", path).Msg("failed to remove temporary upload")
	}
}

// fixFilename derives the media name and the filename metadata from the
// content.
func (p *FileProvider) fixFilename(m *gomedia.Media) error {
	if content, ok := m.BinaryContent().(gomedia.FileContent); ok {
		filename := content.Filename()
		if m.Name == "" {
			m.Name = filename
		}
		m.SetMetadataValue("filename", filename)
	}

	if m.Name == "" {
		return gomedia.ErrInvalidName
	}

	return nil
}

func (p *FileProvider) PostPersist(ctx context.Context, m *gomedia.Media) error {
	if m.BinaryContent() == nil {
		return nil
	}
	defer temporaryCleanup(m.BinaryContent())()

	if err := p.setFileContents(ctx, m); err != nil {
		return err
	}
	if err := p.self.GenerateThumbnails(ctx, m); err != nil {
		return err
	}

	m.ResetBinaryContent()
	return nil
}

func (p *FileProvider) PostUpdate(ctx context.Context, m *gomedia.Media) error {
	if m.BinaryContent() == nil {
		return nil
	}

	if err := p.fixBinaryContent(m); err != nil {
		return err
	}
	defer temporaryCleanup(m.BinaryContent())()

	if prev := m.PreviousProviderReference(); prev != "" && prev != m.ProviderReference.String() {
		old := m.Clone()
		old.ProviderReference = gomedia.AssignedReference(prev)
		key := p.self.ReferenceImage(old)

		exists, err := p.filesystem.Has(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			if err := p.filesystem.Delete(ctx, key); err != nil {
				log.Error().Err(err).Str("key", key).Msg("failed to delete previous reference")
				return err
			}
		}
	}

	if err := p.setFileContents(ctx, m); err != nil {
		return err
	}
	if err := p.self.GenerateThumbnails(ctx, m); err != nil {
		return err
	}

	m.ResetBinaryContent()
	return nil
}

// setFileContents copies the local content of m to its reference blob.
func (p *FileProvider) setFileContents(ctx context.Context, m *gomedia.Media) error {
	content, ok := m.BinaryContent().(gomedia.FileContent)
	if !ok {
		return fmt.Errorf("%w: %T", gomedia.ErrInvalidBinaryContent, m.BinaryContent())
	}

	data, err := os.ReadFile(content.Pathname())
	if err != nil {
		return err
	}

	return p.writeBlob(ctx, m, p.self.ReferenceImage(m), data)
}

// GeneratePublicURL returns the CDN URL of the original file. Other formats
// point at a generic file icon.
func (p *FileProvider) GeneratePublicURL(m *gomedia.Media, format string) string {
	var key string
	if format == gomedia.FormatReference {
		key = p.self.ReferenceImage(m)
	} else {
		key = fmt.Sprintf("bundles/gomedia/files/%s/file.png", format)
	}

	return p.cdn.Path(key, m.CdnIsFlushable)
}

// GeneratePrivateURL only exists for the reference format.
func (p *FileProvider) GeneratePrivateURL(m *gomedia.Media, format string) (string, bool) {
	if format != gomedia.FormatReference {
		return "", false
	}
	return p.self.ReferenceImage(m), true
}

func (p *FileProvider) HelperProperties(m *gomedia.Media, format string, opts gomedia.HelperOptions) (gomedia.HelperProperties, error) {
	props := gomedia.HelperProperties{
		"title":     m.Name,
		"thumbnail": p.self.ReferenceImage(m),
		"file":      p.self.ReferenceImage(m),
	}
	for k, v := range opts.Attributes {
		props[k] = v
	}
	return props, nil
}

// Validate checks the uploaded size, extension and MIME type.
func (p *FileProvider) Validate(errs *gomedia.ErrorElement, m *gomedia.Media) {
	content, ok := m.BinaryContent().(gomedia.FileContent)
	if !ok {
		return
	}

	if up, ok := content.(*gomedia.UploadedFile); ok && up.ReportedSize == 0 {
		errs.AddViolation("binaryContent", "The file is too big, max size: %maxFileSize%",
			map[string]string{"%maxFileSize%": "unknown"})
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(content.Filename()), "."))
	if !slices.Contains(p.allowedExtensions, ext) {
		errs.AddViolation("binaryContent", "Invalid extensions", nil)
	}

	if content.Filename() == "" {
		return
	}

	mimeType, err := content.MimeType()
	if err != nil || !slices.Contains(p.allowedMimeTypes, strings.ToLower(mimeType)) {
		errs.AddViolation("binaryContent", "Invalid mime type : %type%", map[string]string{"%type%": mimeType})
	}
}

// UpdateMetadata refreshes the size of m from its content or stored blob.
func (p *FileProvider) UpdateMetadata(ctx context.Context, m *gomedia.Media, _ bool) error {
	if content, ok := m.BinaryContent().(gomedia.FileContent); ok {
		size, err := content.FileSize()
		if err != nil {
			return err
		}
		m.Size = size
		return nil
	}

	data, err := p.filesystem.Read(ctx, p.self.ReferenceImage(m))
	if err != nil {
		return err
	}
	m.Size = int64(len(data))

	return nil
}

// DownloadResponse serves the file of the given format. X-Sendfile and
// X-Accel-Redirect require a local directory adapter.
func (p *FileProvider) DownloadResponse(ctx context.Context, m *gomedia.Media, format string, mode gomedia.DownloadMode, headers http.Header) (http.Handler, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", gomedia.ErrInvalidDownloadMode, mode)
	}

	key, ok := p.self.GeneratePrivateURL(m, format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", gomedia.ErrUnknownFormat, format)
	}

	h := downloadHeaders(m, headers)

	if mode == gomedia.DownloadModeHTTP {
		return &streamResponse{fs: p.filesystem, key: key, header: h}, nil
	}

	dir, ok := p.filesystem.Adapter().(gomedia.DirectoryAdapter)
	if !ok {
		return nil, gomedia.ErrSendfileUnsupported
	}

	h.Set(string(mode), filepath.Join(dir.Directory(), filepath.FromSlash(key)))
	return &sendfileResponse{header: h}, nil
}

func downloadHeaders(m *gomedia.Media, headers http.Header) http.Header {
	h := http.Header{}
	if m.ContentType != "" {
		h.Set("Content-Type", m.ContentType)
	}
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, m.MetadataString("filename", m.Name)))

	for k, v := range headers {
		h[k] = slices.Clone(v)
	}
	return h
}

// streamResponse reads the blob at serve time.
type streamResponse struct {
	fs     *gomedia.Filesystem
	key    string
	header http.Header
}

func (s *streamResponse) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, err := s.fs.Read(r.Context(), s.key)
	if err != nil {
		log.Error().Err(err).Str("key", s.key).Msg("failed to stream download")
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	copyHeader(w.Header(), s.header)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// sendfileResponse hands the transfer over to the front web server.
type sendfileResponse struct {
	header http.Header
}

func (s *sendfileResponse) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	copyHeader(w.Header(), s.header)
	w.WriteHeader(http.StatusOK)
}

func copyHeader(dst, src http.Header) {
	for k, v := range src {
		dst[k] = slices.Clone(v)
	}
}

// generateReferenceName returns a collision resistant storage filename.
func generateReferenceName(name, ext string) string {
	seed := name + uuid.NewString() + strconv.Itoa(11111+rand.IntN(88889))
	sum := sha1.Sum([]byte(seed))
	ref := hex.EncodeToString(sum[:])
	if ext != "" {
		ref += "." + ext
	}
	return ref
}

// fileExtension guesses the extension from the content, falling back to the
// filename.
func fileExtension(content gomedia.FileContent) string {
	if ext, err := content.GuessExtension(); err == nil && ext != "" {
		return ext
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(content.Filename()), "."))
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
