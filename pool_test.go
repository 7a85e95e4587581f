package gomedia

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Provider(t *testing.T) {
	tests := []struct {
		name        string
		providers   []string
		lookup      string
		expectErr   error
		errContains string
	}{
		{
			name:      "should return empty name error regardless of pool contents",
			providers: []string{"image"},
			lookup:    "",
			expectErr: ErrEmptyProviderName,
		},
		{
			name:      "should return empty name error on empty pool",
			lookup:    "",
			expectErr: ErrEmptyProviderName,
		},
		{
			name:      "should return no providers error when pool is empty",
			lookup:    "x",
			expectErr: ErrNoProviders,
		},
		{
			name:        "should return unknown provider error naming available providers",
			providers:   []string{"image", "file"},
			lookup:      "x",
			expectErr:   ErrUnknownProvider,
			errContains: `available providers are "file", "image"`,
		},
		{
			name:      "should return registered provider",
			providers: []string{"image", "x"},
			lookup:    "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewPool("default")
			for _, name := range tt.providers {
				pool.AddProvider(name, new(MockMediaProvider))
			}

			provider, err := pool.Provider(tt.lookup)

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr, "expected error to match")
				assert.Nil(t, provider, "expected no provider on error")
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains, "expected error to list providers")
				}
			} else {
				assert.NoError(t, err, "expected no error")
				assert.NotNil(t, provider, "expected provider")
			}
		})
	}
}

func TestPool_AddContextUpserts(t *testing.T) {
	pool := NewPool("default")

	pool.AddContext("news", []string{"image"}, map[string]Format{"news_small": {Width: Dimension(100)}}, nil)
	pool.AddContext("news", []string{"file"}, nil, &DownloadPolicy{Strategy: "public", Mode: DownloadModeHTTP})

	assert.True(t, pool.HasContext("news"), "expected context to exist")

	c, err := pool.Context("news")
	require.NoError(t, err, "expected context lookup to succeed")
	assert.Equal(t, []string{"file"}, c.Providers, "expected providers to be replaced")
	assert.Empty(t, c.Formats, "expected formats to be replaced")
	assert.Equal(t, DownloadModeHTTP, c.Download.Mode, "expected download policy to be replaced")
}

func TestPool_Context(t *testing.T) {
	pool := NewPool("default")

	_, err := pool.Context("missing")
	assert.ErrorIs(t, err, ErrUnknownContext, "expected unknown context error")
	assert.False(t, pool.HasContext("missing"), "expected context to be absent")

	_, err = pool.ProviderNamesByContext("missing")
	assert.ErrorIs(t, err, ErrUnknownContext, "expected unknown context error")
}

func TestPool_ProvidersByContext(t *testing.T) {
	pool := NewPool("default")
	image := new(MockMediaProvider)
	pool.AddProvider("image", image)
	pool.AddContext("default", []string{"image"}, nil, nil)
	pool.AddContext("broken", []string{"image", "missing"}, nil, nil)

	providers, err := pool.ProvidersByContext("default")
	require.NoError(t, err, "expected providers to resolve")
	assert.Len(t, providers, 1, "expected one provider")
	assert.Same(t, image, providers[0], "expected registered provider")

	_, err = pool.ProvidersByContext("broken")
	assert.ErrorIs(t, err, ErrUnknownProvider, "expected unknown provider error")
}

func TestPool_DownloadStrategy(t *testing.T) {
	strategy := new(MockDownloadStrategy)

	pool := NewPool("default")
	pool.AddDownloadStrategy("public", strategy)
	pool.AddContext("default", nil, nil, &DownloadPolicy{Strategy: "public", Mode: DownloadModeXSendfile})
	pool.AddContext("nopolicy", nil, nil, nil)
	pool.AddContext("unregistered", nil, nil, &DownloadPolicy{Strategy: "roles", Mode: DownloadModeHTTP})

	tests := []struct {
		name         string
		context      string
		expectErr    error
		expectMode   DownloadMode
		modeFailsToo bool
	}{
		{
			name:       "should resolve registered strategy and mode",
			context:    "default",
			expectMode: DownloadModeXSendfile,
		},
		{
			name:         "should fail when media has no context",
			context:      "",
			expectErr:    ErrEmptyContext,
			modeFailsToo: true,
		},
		{
			name:         "should fail when context is unknown",
			context:      "missing",
			expectErr:    ErrUnknownContext,
			modeFailsToo: true,
		},
		{
			name:         "should fail when context has no download policy",
			context:      "nopolicy",
			expectErr:    ErrNoDownloadPolicy,
			modeFailsToo: true,
		},
		{
			name:       "should fail when strategy was never registered",
			context:    "unregistered",
			expectErr:  ErrUnknownDownloadStrategy,
			expectMode: DownloadModeHTTP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media := &Media{Context: tt.context}

			got, err := pool.DownloadStrategy(media)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr, "expected strategy error to match")
				assert.Nil(t, got, "expected no strategy on error")
			} else {
				assert.NoError(t, err, "expected no error")
				assert.Same(t, strategy, got, "expected registered strategy")
			}

			mode, err := pool.DownloadMode(media)
			if tt.modeFailsToo {
				assert.ErrorIs(t, err, tt.expectErr, "expected mode error to match")
			} else {
				assert.NoError(t, err, "expected mode to resolve")
				assert.Equal(t, tt.expectMode, mode, "expected mode to match")
			}
		})
	}
}

func TestPool_Validate(t *testing.T) {
	t.Run("should skip media without provider name", func(t *testing.T) {
		pool := NewPool("default")
		errs := &ErrorElement{}

		err := pool.Validate(errs, &Media{})

		assert.NoError(t, err, "expected no error")
		assert.False(t, errs.HasViolations(), "expected no violations")
	})

	t.Run("should delegate to provider", func(t *testing.T) {
		provider := new(MockMediaProvider)
		pool := NewPool("default")
		pool.AddProvider("file", provider)
		errs := &ErrorElement{}
		media := &Media{ProviderName: "file"}

		provider.On("Validate", errs, media).Once()

		assert.NoError(t, pool.Validate(errs, media), "expected no error")
		provider.AssertExpectations(t)
	})

	t.Run("should fail on unknown provider", func(t *testing.T) {
		pool := NewPool("default")
		pool.AddProvider("file", new(MockMediaProvider))

		err := pool.Validate(&ErrorElement{}, &Media{ProviderName: "image"})

		assert.ErrorIs(t, err, ErrUnknownProvider, "expected unknown provider error")
	})
}

func TestPool_DefaultContext(t *testing.T) {
	pool := NewPool("default")
	assert.Equal(t, "default", pool.DefaultContext(), "expected initial default context")

	pool.SetDefaultContext("news")
	assert.Equal(t, "news", pool.DefaultContext(), "expected updated default context")
}
