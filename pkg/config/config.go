package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
)

// Transport names accepted by server.transport
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config represents the gateway configuration
type Config struct {
	Zendesk    ZendeskConfig    `yaml:"zendesk" mapstructure:"zendesk"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Enrichment EnrichmentConfig `yaml:"enrichment" mapstructure:"enrichment"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ZendeskConfig holds the Remote Collaborator settings. Subdomain, Email and
// APIToken gate whether a client is built at all.
type ZendeskConfig struct {
	Subdomain         string        `yaml:"subdomain" mapstructure:"subdomain"`
	Email             string        `yaml:"email" mapstructure:"email"`
	APIToken          string        `yaml:"api_token,omitempty" mapstructure:"api_token"`
	PublicDomain      string        `yaml:"public_domain,omitempty" mapstructure:"public_domain"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	SearchTimeout     time.Duration `yaml:"search_timeout" mapstructure:"search_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxPages          int           `yaml:"max_pages" mapstructure:"max_pages"`
}

// ServerConfig holds transport configuration
type ServerConfig struct {
	Host      string `yaml:"host" mapstructure:"host"`
	Port      int    `yaml:"port" mapstructure:"port"`
	Transport string `yaml:"transport" mapstructure:"transport"`
}

// EnrichmentConfig bounds the help center search fan-out
type EnrichmentConfig struct {
	CandidateCap   int `yaml:"candidate_cap" mapstructure:"candidate_cap"`
	ResultCap      int `yaml:"result_cap" mapstructure:"result_cap"`
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// envBindings maps config keys to the environment variables that may set them.
var envBindings = map[string][]string{
	"zendesk.subdomain":           {"ZENDESK_SUBDOMAIN"},
	"zendesk.email":               {"ZENDESK_EMAIL"},
	"zendesk.api_token":           {"ZENDESK_API_TOKEN"},
	"zendesk.public_domain":       {"ZENDESK_PUBLIC_DOMAIN", "ZENDESK_HELP_CENTER_DOMAIN"},
	"zendesk.timeout":             {"ZENDESK_TIMEOUT"},
	"zendesk.search_timeout":      {"ZENDESK_SEARCH_TIMEOUT"},
	"zendesk.requests_per_second": {"ZENDESK_REQUESTS_PER_SECOND"},
	"zendesk.max_pages":           {"ZENDESK_MAX_PAGES"},
	"server.host":                 {"MCP_HOST", "HOST"},
	"server.port":                 {"MCP_PORT", "PORT"},
	"server.transport":            {"MCP_TRANSPORT"},
	"enrichment.candidate_cap":    {"MCP_ENRICHMENT_CANDIDATE_CAP"},
	"enrichment.result_cap":       {"MCP_ENRICHMENT_RESULT_CAP"},
	"enrichment.max_concurrency":  {"MCP_ENRICHMENT_MAX_CONCURRENCY"},
	"log.level":                   {"LOG_LEVEL"},
}

// Load reads configuration from an optional YAML file, the environment and
// any flags already bound to v. A missing file is only an error when path
// was given explicitly.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.SetDefaults(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfig loads configuration from a YAML file and the environment
func LoadConfig(filePath string) (*Config, error) {
	return Load(viper.New(), filePath)
}

// SetDefaults fills every zero field from DefaultConfig
func (c *Config) SetDefaults() error {
	if err := mergo.Merge(c, DefaultConfig()); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}

	// Without an explicit limit every candidate is fetched at once.
	if c.Enrichment.MaxConcurrency == 0 {
		c.Enrichment.MaxConcurrency = c.Enrichment.CandidateCap
	}
	c.Zendesk.PublicDomain = NormalizeDomain(c.Zendesk.PublicDomain)
	c.Server.Transport = strings.ToLower(c.Server.Transport)
	c.Log.Level = strings.ToLower(c.Log.Level)
	return nil
}

// Validate validates the configuration. Missing credentials are not a
// validation failure; see HasCredentials.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		result = multierror.Append(result, fmt.Errorf("server.transport must be %q or %q, got %q",
			TransportStdio, TransportHTTP, c.Server.Transport))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Enrichment.CandidateCap < 1 {
		result = multierror.Append(result, fmt.Errorf("enrichment.candidate_cap must be positive"))
	}
	if c.Enrichment.ResultCap < 1 {
		result = multierror.Append(result, fmt.Errorf("enrichment.result_cap must be positive"))
	}
	if c.Enrichment.MaxConcurrency < 1 {
		result = multierror.Append(result, fmt.Errorf("enrichment.max_concurrency must be positive"))
	}
	if c.Zendesk.MaxPages < 0 {
		result = multierror.Append(result, fmt.Errorf("zendesk.max_pages must not be negative"))
	}
	if c.Zendesk.RequestsPerSecond < 0 {
		result = multierror.Append(result, fmt.Errorf("zendesk.requests_per_second must not be negative"))
	}
	if c.Zendesk.PublicDomain != "" {
		if u, err := url.Parse(c.Zendesk.PublicDomain); err != nil || u.Host == "" {
			result = multierror.Append(result, fmt.Errorf("zendesk.public_domain %q is not a valid origin", c.Zendesk.PublicDomain))
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	if err := result.ErrorOrNil(); err != nil {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "invalid configuration", err)
	}
	return nil
}

// HasCredentials reports whether every required Zendesk parameter is set
func (c *Config) HasCredentials() bool {
	return len(c.MissingCredentials()) == 0
}

// MissingCredentials lists the environment variables of unset credentials
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Zendesk.Subdomain == "" {
		missing = append(missing, "ZENDESK_SUBDOMAIN")
	}
	if c.Zendesk.Email == "" {
		missing = append(missing, "ZENDESK_EMAIL")
	}
	if c.Zendesk.APIToken == "" {
		missing = append(missing, "ZENDESK_API_TOKEN")
	}
	return missing
}

// NormalizeDomain turns a bare host into an https origin and drops any
// trailing slash.
func NormalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return ""
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	return strings.TrimRight(domain, "/")
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Zendesk: ZendeskConfig{
			Timeout:       30 * time.Second,
			SearchTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      3000,
			Transport: TransportStdio,
		},
		Enrichment: EnrichmentConfig{
			CandidateCap: 10,
			ResultCap:    5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
