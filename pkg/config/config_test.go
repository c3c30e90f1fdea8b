package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Enrichment.CandidateCap)
	assert.Equal(t, 5, cfg.Enrichment.ResultCap)
	assert.Equal(t, 10, cfg.Enrichment.MaxConcurrency)
	assert.Equal(t, 10*time.Second, cfg.Zendesk.SearchTimeout)
	assert.Equal(t, 0, cfg.Zendesk.MaxPages)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("ZENDESK_SUBDOMAIN", "acme")
	t.Setenv("ZENDESK_EMAIL", "agent@acme.test")
	t.Setenv("ZENDESK_API_TOKEN", "secret")
	t.Setenv("ZENDESK_PUBLIC_DOMAIN", "help.acme.test/")
	t.Setenv("PORT", "8081")
	t.Setenv("ZENDESK_SEARCH_TIMEOUT", "3s")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Zendesk.Subdomain)
	assert.Equal(t, "agent@acme.test", cfg.Zendesk.Email)
	assert.Equal(t, "secret", cfg.Zendesk.APIToken)
	assert.Equal(t, "https://help.acme.test", cfg.Zendesk.PublicDomain)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Zendesk.SearchTimeout)
	assert.True(t, cfg.HasCredentials())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := `
zendesk:
  subdomain: filecorp
  max_pages: 50
server:
  transport: HTTP
  port: 9090
enrichment:
  candidate_cap: 20
  result_cap: 8
  max_concurrency: 4
log:
  level: DEBUG
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "filecorp", cfg.Zendesk.Subdomain)
	assert.Equal(t, 50, cfg.Zendesk.MaxPages)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Enrichment.CandidateCap)
	assert.Equal(t, 8, cfg.Enrichment.ResultCap)
	assert.Equal(t, 4, cfg.Enrichment.MaxConcurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Zendesk.Timeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad transport", func(c *Config) { c.Server.Transport = "carrier-pigeon" }, "server.transport"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero result cap", func(c *Config) { c.Enrichment.ResultCap = 0 }, "result_cap"},
		{"negative pages", func(c *Config) { c.Zendesk.MaxPages = -1 }, "max_pages"},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad domain", func(c *Config) { c.Zendesk.PublicDomain = "https://" }, "public_domain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, cfg.SetDefaults())
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfigInvalid))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.SetDefaults())
	cfg.Server.Port = 0
	cfg.Enrichment.CandidateCap = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "candidate_cap")
}

func TestMissingCredentials(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.HasCredentials())
	assert.Equal(t, []string{"ZENDESK_SUBDOMAIN", "ZENDESK_EMAIL", "ZENDESK_API_TOKEN"}, cfg.MissingCredentials())

	cfg.Zendesk.Subdomain = "acme"
	cfg.Zendesk.APIToken = "token"
	assert.Equal(t, []string{"ZENDESK_EMAIL"}, cfg.MissingCredentials())
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "", NormalizeDomain("  "))
	assert.Equal(t, "https://help.acme.test", NormalizeDomain("help.acme.test"))
	assert.Equal(t, "http://localhost:8080", NormalizeDomain("http://localhost:8080/"))
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := DefaultConfig()
	cfg.Zendesk.Subdomain = "acme"

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "acme", loaded.Zendesk.Subdomain)
	assert.Equal(t, cfg.Server.Port, loaded.Server.Port)
	assert.Equal(t, cfg.Zendesk.SearchTimeout, loaded.Zendesk.SearchTimeout)
}
