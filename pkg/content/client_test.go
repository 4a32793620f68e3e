package content_test

import (
	"testing"

	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseCredential(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		token   string
		want    content.Credential
		wantErr error
	}{
		{
			name:  "valid",
			token: "eu_site42_s3cr3t",
			want:  content.Credential{Raw: "eu_site42_s3cr3t", Routing: "eu", SiteID: "site42", Secret: "s3cr3t"},
		},
		{
			name:  "secret keeps delimiters",
			token: "us_site_abc_def",
			want:  content.Credential{Raw: "us_site_abc_def", Routing: "us", SiteID: "site", Secret: "abc_def"},
		},
		{
			name:  "surrounding whitespace",
			token: "  test_site_x \n",
			want:  content.Credential{Raw: "test_site_x", Routing: "test", SiteID: "site", Secret: "x"},
		},
		{name: "empty", token: "", wantErr: content.ErrMissingCredential},
		{name: "too few parts", token: "eu_site", wantErr: content.ErrInvalidCredential},
		{name: "empty routing", token: "_site_secret", wantErr: content.ErrInvalidCredential},
		{name: "empty secret", token: "eu_site_", wantErr: content.ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := content.ParseCredential(tt.token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, content.IsConfigError(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCredential_IsMock(t *testing.T) {
	t.Parallel()

	mock, err := content.ParseCredential("test_site_secret")
	require.NoError(t, err)
	assert.True(t, mock.IsMock())

	live, err := content.ParseCredential("eu_site_secret")
	require.NoError(t, err)
	assert.False(t, live.IsMock())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	config := &content.Config{Token: "eu_site_secret", Mode: content.ModeStaging}
	credential, err := config.Validate()
	require.NoError(t, err)
	assert.Equal(t, "site", credential.SiteID)

	config = &content.Config{Token: "eu_site_secret", Mode: "preview"}
	_, err = config.Validate()
	require.ErrorIs(t, err, content.ErrUnknownMode)

	config = &content.Config{}
	_, err = config.Validate()
	require.ErrorIs(t, err, content.ErrMissingCredential)
}

func TestConfig_EnvironmentOrDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "latest", (&content.Config{}).EnvironmentOrDefault())
	assert.Equal(t, "preview", (&content.Config{Environment: "preview"}).EnvironmentOrDefault())
}

func TestMode_Valid(t *testing.T) {
	t.Parallel()

	for _, mode := range []content.Mode{"", content.ModeProduction, content.ModeStaging, content.ModeLocal} {
		assert.True(t, mode.Valid(), "mode %q", mode)
	}

	assert.False(t, content.Mode("edge").Valid())
}

func TestZapLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	logger := content.NewZapLogger(zap.New(core))

	logger.Debug("fetching", map[string]interface{}{"url": "https://a.sitecontent.io/site/latest"})
	logger.Warn("cache write failed", map[string]interface{}{"error": errRejected})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "fetching", entries[0].Message)
	assert.Equal(t, "https://a.sitecontent.io/site/latest", entries[0].ContextMap()["url"])
	assert.Equal(t, "cache write failed", entries[1].Message)
	assert.Equal(t, errRejected.Error(), entries[1].ContextMap()["error"])
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	var logger content.Logger = content.NopLogger{}

	assert.NotPanics(t, func() {
		logger.Debug("x", nil)
		logger.Info("x", nil)
		logger.Warn("x", nil)
		logger.Error("x", nil)
	})

	assert.NotPanics(t, func() {
		content.NewZapLogger(nil).Info("x", nil)
	})
}
