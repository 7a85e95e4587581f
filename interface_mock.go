package gomedia

import (
	"context"
	"io"
	"net/http"

	"github.com/stretchr/testify/mock"
)

// MockAdapter is a testify.Mock implementation of Adapter.
type MockAdapter struct {
	mock.Mock
}

var _ Adapter = (*MockAdapter)(nil)

func (m *MockAdapter) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAdapter) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdapter) Read(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdapter) Write(ctx context.Context, key string, content io.Reader, metadata map[string]string) error {
	args := m.Called(ctx, key, content, metadata)
	return args.Error(0)
}

// MockCDN is a testify.Mock implementation of CDN.
type MockCDN struct {
	mock.Mock
}

var _ CDN = (*MockCDN)(nil)

func (m *MockCDN) Path(relativePath string, isFlushable bool) string {
	args := m.Called(relativePath, isFlushable)
	return args.String(0)
}

func (m *MockCDN) Flush(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCDN) FlushByString(ctx context.Context, s string) (string, error) {
	args := m.Called(ctx, s)
	return args.String(0), args.Error(1)
}

func (m *MockCDN) FlushPaths(ctx context.Context, paths []string) (string, error) {
	args := m.Called(ctx, paths)
	return args.String(0), args.Error(1)
}

func (m *MockCDN) FlushStatus(ctx context.Context, identifier string) (CDNStatus, error) {
	args := m.Called(ctx, identifier)
	return args.Get(0).(CDNStatus), args.Error(1)
}

// MockHTTPClient is a testify.Mock implementation of HTTPClient.
type MockHTTPClient struct {
	mock.Mock
}

var _ HTTPClient = (*MockHTTPClient)(nil)

func (m *MockHTTPClient) SendRequest(ctx context.Context, method, url string) ([]byte, error) {
	args := m.Called(ctx, method, url)
	if body, ok := args.Get(0).([]byte); ok {
		return body, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockImageDecoder is a testify.Mock implementation of ImageDecoder.
type MockImageDecoder struct {
	mock.Mock
}

var _ ImageDecoder = (*MockImageDecoder)(nil)

func (m *MockImageDecoder) Open(path string) (Box, error) {
	args := m.Called(path)
	return args.Get(0).(Box), args.Error(1)
}

func (m *MockImageDecoder) Decode(data []byte) (Box, error) {
	args := m.Called(data)
	return args.Get(0).(Box), args.Error(1)
}

// MockMetadataBuilder is a testify.Mock implementation of MetadataBuilder.
type MockMetadataBuilder struct {
	mock.Mock
}

var _ MetadataBuilder = (*MockMetadataBuilder)(nil)

func (m *MockMetadataBuilder) Get(media *Media, filename string) map[string]string {
	args := m.Called(media, filename)
	if md, ok := args.Get(0).(map[string]string); ok {
		return md
	}
	return nil
}

// MockResizer is a testify.Mock implementation of Resizer.
type MockResizer struct {
	mock.Mock
}

var _ Resizer = (*MockResizer)(nil)

func (m *MockResizer) Box(media *Media, format Format) (Box, error) {
	args := m.Called(media, format)
	return args.Get(0).(Box), args.Error(1)
}

func (m *MockResizer) Resize(ctx context.Context, media *Media, in, out *BlobFile, extension string, format Format) error {
	args := m.Called(ctx, media, in, out, extension, format)
	return args.Error(0)
}

// MockDownloadStrategy is a testify.Mock implementation of DownloadStrategy.
type MockDownloadStrategy struct {
	mock.Mock
}

var _ DownloadStrategy = (*MockDownloadStrategy)(nil)

func (m *MockDownloadStrategy) IsGranted(media *Media, r *http.Request) bool {
	args := m.Called(media, r)
	return args.Bool(0)
}

func (m *MockDownloadStrategy) Description() string {
	args := m.Called()
	return args.String(0)
}

// MockThumbnail is a testify.Mock implementation of Thumbnail.
type MockThumbnail struct {
	mock.Mock
}

var _ Thumbnail = (*MockThumbnail)(nil)

func (m *MockThumbnail) Generate(ctx context.Context, p MediaProvider, media *Media) error {
	args := m.Called(ctx, p, media)
	return args.Error(0)
}

func (m *MockThumbnail) Delete(ctx context.Context, p MediaProvider, media *Media, formats ...string) error {
	callArgs := append([]any{ctx, p, media}, stringSliceToInterface(formats)...)
	args := m.Called(callArgs...)
	return args.Error(0)
}

func (m *MockThumbnail) GeneratePublicURL(p MediaProvider, media *Media, format string) string {
	args := m.Called(p, media, format)
	return args.String(0)
}

func (m *MockThumbnail) GeneratePrivateURL(p MediaProvider, media *Media, format string) string {
	args := m.Called(p, media, format)
	return args.String(0)
}
