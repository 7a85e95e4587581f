package gomedia

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// BinaryContent is the transient payload attached to a media before
// ingestion. Implementations: *File, *UploadedFile, *RequestBody and Text.
type BinaryContent interface {
	binaryContent()
}

// FileContent is implemented by content backed by a file on local disk.
type FileContent interface {
	BinaryContent
	Pathname() string
	// Filename is the name used for extension checks.
	Filename() string
	MimeType() (string, error)
	GuessExtension() (string, error)
	FileSize() (int64, error)
}

// File is a handle on a local file.
type File struct {
	Path string
}

// OpenFile resolves path into a file handle, failing when it does not exist.
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrFileNotFound, path)
	}
	return &File{Path: path}, nil
}

func (*File) binaryContent() {}

func (f *File) Pathname() string { return f.Path }

func (f *File) Filename() string { return filepath.Base(f.Path) }

// MimeType sniffs the MIME type from the file content. Parameters such as
// the charset are dropped.
func (f *File) MimeType() (string, error) {
	mt, err := mimetype.DetectFile(f.Path)
	if err != nil {
		return "", err
	}
	t, _, _ := strings.Cut(mt.String(), ";")
	return t, nil
}

// GuessExtension returns the extension matching the sniffed MIME type,
// without the leading dot.
func (f *File) GuessExtension() (string, error) {
	mt, err := mimetype.DetectFile(f.Path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(mt.Extension(), "."), nil
}

func (f *File) FileSize() (int64, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// UploadedFile is a file received from a client upload.
type UploadedFile struct {
	File
	ClientName     string
	ClientMimeType string
	// ReportedSize is the size declared by the upload, zero on failed uploads.
	ReportedSize int64
	// Temporary marks a file spooled by a provider, removed once ingested.
	Temporary bool
}

func (*UploadedFile) binaryContent() {}

func (u *UploadedFile) Filename() string {
	if u.ClientName != "" {
		return u.ClientName
	}
	return u.File.Filename()
}

// RequestBody is a raw request payload with its declared content type.
type RequestBody struct {
	Body        []byte
	ContentType string
}

func (*RequestBody) binaryContent() {}

// Extension returns the extension inferred from the declared content type.
func (r *RequestBody) Extension() string {
	ct := r.ContentType
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if mt := mimetype.Lookup(strings.TrimSpace(ct)); mt != nil {
		return strings.TrimPrefix(mt.Extension(), ".")
	}
	return strings.TrimPrefix(mimetype.Detect(r.Body).Extension(), ".")
}

// Text is a string payload: a local path for file providers, a URL or an id
// for video providers.
type Text string

func (Text) binaryContent() {}
