package gomedia

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"
)

// MockMediaProvider is a testify mock implementing gomedia.MediaProvider
type MockMediaProvider struct {
	mock.Mock
}

var _ MediaProvider = (*MockMediaProvider)(nil)

func (m *MockMediaProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockMediaProvider) Info() ProviderInfo {
	args := m.Called()
	if info, ok := args.Get(0).(ProviderInfo); ok {
		return info
	}
	return ProviderInfo{}
}

func (m *MockMediaProvider) Transform(ctx context.Context, media *Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MockMediaProvider) PrePersist(ctx context.Context, media *Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MockMediaProvider) PostPersist(ctx context.Context, media *Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MockMediaProvider) PreUpdate(ctx context.Context, media *Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MockMediaProvider) PostUpdate(ctx context.Context, media *Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MockMediaProvider) PreRemove(ctx context.Context, media *Media) (RemovalSnapshot, error) {
	args := m.Called(ctx, media)
	if s, ok := args.Get(0).(RemovalSnapshot); ok {
		return s, args.Error(1)
	}
	return RemovalSnapshot{}, args.Error(1)
}

func (m *MockMediaProvider) PostRemove(ctx context.Context, snapshot RemovalSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockMediaProvider) FlushCDN(ctx context.Context, media *Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MockMediaProvider) UpdateFlushStatus(ctx context.Context, media *Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MockMediaProvider) GenerateThumbnails(ctx context.Context, media *Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MockMediaProvider) RemoveThumbnails(ctx context.Context, media *Media, formats ...string) error {
	callArgs := append([]any{ctx, media}, stringSliceToInterface(formats)...)
	args := m.Called(callArgs...)
	return args.Error(0)
}

func (m *MockMediaProvider) GeneratePath(media *Media) string {
	args := m.Called(media)
	return args.String(0)
}

func (m *MockMediaProvider) GeneratePublicURL(media *Media, format string) string {
	args := m.Called(media, format)
	return args.String(0)
}

func (m *MockMediaProvider) GeneratePrivateURL(media *Media, format string) (string, bool) {
	args := m.Called(media, format)
	return args.String(0), args.Bool(1)
}

func (m *MockMediaProvider) HelperProperties(media *Media, format string, opts HelperOptions) (HelperProperties, error) {
	args := m.Called(media, format, opts)
	if props, ok := args.Get(0).(HelperProperties); ok {
		return props, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMediaProvider) Validate(errs *ErrorElement, media *Media) {
	m.Called(errs, media)
}

func (m *MockMediaProvider) UpdateMetadata(ctx context.Context, media *Media, force bool) error {
	args := m.Called(ctx, media, force)
	return args.Error(0)
}

func (m *MockMediaProvider) DownloadResponse(ctx context.Context, media *Media, format string, mode DownloadMode, headers http.Header) (http.Handler, error) {
	args := m.Called(ctx, media, format, mode, headers)
	if h, ok := args.Get(0).(http.Handler); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMediaProvider) ReferenceImage(media *Media) string {
	args := m.Called(media)
	return args.String(0)
}

func (m *MockMediaProvider) ReferenceFile(ctx context.Context, media *Media) (*BlobFile, error) {
	args := m.Called(ctx, media)
	if f, ok := args.Get(0).(*BlobFile); ok {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMediaProvider) AddFormat(name string, format Format) {
	m.Called(name, format)
}

func (m *MockMediaProvider) Format(name string) (Format, bool) {
	args := m.Called(name)
	if f, ok := args.Get(0).(Format); ok {
		return f, args.Bool(1)
	}
	return Format{}, args.Bool(1)
}

func (m *MockMediaProvider) Formats() map[string]Format {
	args := m.Called()
	if f, ok := args.Get(0).(map[string]Format); ok {
		return f
	}
	return nil
}

func (m *MockMediaProvider) FormatName(media *Media, format string) string {
	args := m.Called(media, format)
	return args.String(0)
}

func (m *MockMediaProvider) RequireThumbnails() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockMediaProvider) Filesystem() *Filesystem {
	args := m.Called()
	if fs, ok := args.Get(0).(*Filesystem); ok {
		return fs
	}
	return nil
}

func (m *MockMediaProvider) Resizer() Resizer {
	args := m.Called()
	if r, ok := args.Get(0).(Resizer); ok {
		return r
	}
	return nil
}

func (m *MockMediaProvider) CDN() CDN {
	args := m.Called()
	if c, ok := args.Get(0).(CDN); ok {
		return c
	}
	return nil
}

func stringSliceToInterface(slice []string) []any {
	res := make([]any, len(slice))
	for i, v := range slice {
		res[i] = v
	}
	return res
}
