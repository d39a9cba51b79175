package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/boardguru"
	ConfigFileName    = "boardguru.yml"
)

// ValidAIProviders lists the supported AI backends.
var ValidAIProviders = []string{"openrouter", "anthropic"}

// DefaultReservedSlugs may not be used as organization slugs.
var DefaultReservedSlugs = []string{
	"admin", "api", "app", "auth", "billing", "dashboard", "help", "login",
	"logout", "new", "settings", "signup", "support", "www", "organizations",
	"invitations",
}

// Config holds all BoardGuru configuration settings
type Config struct {
	// TrustedProxies is a list of CIDR ranges whose X-Forwarded-For is honoured
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// APIListLimitMax caps the limit parameter of list endpoints
	APIListLimitMax int `yaml:"api_list_limit_max" json:"api_list_limit_max"`

	// RateLimitRequests is the number of requests allowed per window and user
	RateLimitRequests int `yaml:"rate_limit_requests" json:"rate_limit_requests"`

	// RateLimitWindowSeconds is the rate limit window
	RateLimitWindowSeconds int `yaml:"rate_limit_window_seconds" json:"rate_limit_window_seconds"`

	// CacheTTLSeconds is the default TTL of cached API responses
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	// CacheDBFallback enables the database-backed cache layer
	CacheDBFallback bool `yaml:"cache_db_fallback" json:"cache_db_fallback"`

	// InvitationTTLHours is how long an invitation token stays valid
	InvitationTTLHours int `yaml:"invitation_ttl_hours" json:"invitation_ttl_hours"`

	// ReservedSlugs may not be used as organization slugs
	ReservedSlugs []string `yaml:"reserved_slugs" json:"reserved_slugs"`

	// AIProvider selects the AI backend (openrouter or anthropic)
	AIProvider string `yaml:"ai_provider" json:"ai_provider"`

	// AIModel is the model identifier passed to the provider
	AIModel string `yaml:"ai_model" json:"ai_model"`

	// AITimeoutSeconds bounds a single AI completion
	AITimeoutSeconds int `yaml:"ai_timeout_seconds" json:"ai_timeout_seconds"`

	// JobPollSchedule is the cron spec for polling ai_processing_jobs
	JobPollSchedule string `yaml:"job_poll_schedule" json:"job_poll_schedule"`

	// JobMaxAttempts is the number of attempts before a job fails
	JobMaxAttempts int `yaml:"job_max_attempts" json:"job_max_attempts"`

	// StorageBucket is the bucket holding asset blobs
	StorageBucket string `yaml:"storage_bucket" json:"storage_bucket"`

	// StorageRegion is the object storage region
	StorageRegion string `yaml:"storage_region" json:"storage_region"`

	// StorageEndpoint is an S3-compatible endpoint (Supabase Storage, MinIO)
	StorageEndpoint string `yaml:"storage_endpoint" json:"storage_endpoint"`

	// MaxUploadBytes caps asset uploads
	MaxUploadBytes int64 `yaml:"max_upload_bytes" json:"max_upload_bytes"`

	// NATSURL enables cross-instance realtime fan-out when set
	NATSURL string `yaml:"nats_url" json:"nats_url"`

	// CORSAllowedOrigins lists browser origins allowed to call the API
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" json:"cors_allowed_origins"`

	// AuditEnabled toggles audit logging
	AuditEnabled bool `yaml:"audit_enabled" json:"audit_enabled"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Set replaces the global configuration.
func Set(cfg *Config) {
	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	Set(cfg)
	return nil
}

// Default returns a config holding only default values.
func Default() *Config {
	return newDefault()
}

func newDefault() *Config {
	return &Config{
		TrustedProxies:         []string{},
		APIListLimitMax:        500,
		RateLimitRequests:      120,
		RateLimitWindowSeconds: 60,
		CacheTTLSeconds:        300,
		CacheDBFallback:        true,
		InvitationTTLHours:     168,
		ReservedSlugs:          append([]string(nil), DefaultReservedSlugs...),
		AIProvider:             "openrouter",
		AIModel:                "anthropic/claude-3.5-sonnet",
		AITimeoutSeconds:       60,
		JobPollSchedule:        "@every 15s",
		JobMaxAttempts:         3,
		StorageBucket:          "board-documents",
		StorageRegion:          "us-east-1",
		MaxUploadBytes:         50 << 20,
		CORSAllowedOrigins:     []string{},
		AuditEnabled:           true,
		sources:                make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*Config, error) {
	configPath := os.Getenv("BOARDGURU_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return LoadFile(filepath.Join(configPath, ConfigFileName))
}

// LoadFile loads configuration from the given file (which may be missing)
// and the environment.
func LoadFile(path string) (*Config, error) {
	config := newDefault()
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}
	config.configFilePath = path

	if data, err := os.ReadFile(path); err == nil {
		var fileConfig fileValues
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

// fileValues mirrors Config with pointer booleans so an explicit false in
// the file can be told apart from an absent key.
type fileValues struct {
	TrustedProxies         []string `yaml:"trusted_proxies"`
	APIListLimitMax        int      `yaml:"api_list_limit_max"`
	RateLimitRequests      int      `yaml:"rate_limit_requests"`
	RateLimitWindowSeconds int      `yaml:"rate_limit_window_seconds"`
	CacheTTLSeconds        int      `yaml:"cache_ttl_seconds"`
	CacheDBFallback        *bool    `yaml:"cache_db_fallback"`
	InvitationTTLHours     int      `yaml:"invitation_ttl_hours"`
	ReservedSlugs          []string `yaml:"reserved_slugs"`
	AIProvider             string   `yaml:"ai_provider"`
	AIModel                string   `yaml:"ai_model"`
	AITimeoutSeconds       int      `yaml:"ai_timeout_seconds"`
	JobPollSchedule        string   `yaml:"job_poll_schedule"`
	JobMaxAttempts         int      `yaml:"job_max_attempts"`
	StorageBucket          string   `yaml:"storage_bucket"`
	StorageRegion          string   `yaml:"storage_region"`
	StorageEndpoint        string   `yaml:"storage_endpoint"`
	MaxUploadBytes         int64    `yaml:"max_upload_bytes"`
	NATSURL                string   `yaml:"nats_url"`
	CORSAllowedOrigins     []string `yaml:"cors_allowed_origins"`
	AuditEnabled           *bool    `yaml:"audit_enabled"`
}

func attributeNames() []string {
	return []string{
		"trusted_proxies", "api_list_limit_max", "rate_limit_requests",
		"rate_limit_window_seconds", "cache_ttl_seconds", "cache_db_fallback",
		"invitation_ttl_hours", "reserved_slugs", "ai_provider", "ai_model",
		"ai_timeout_seconds", "job_poll_schedule", "job_max_attempts",
		"storage_bucket", "storage_region", "storage_endpoint",
		"max_upload_bytes", "nats_url", "cors_allowed_origins", "audit_enabled",
	}
}

func (c *Config) applyFileConfig(file *fileValues) {
	setStrings := func(name string, dst *[]string, v []string) {
		if len(v) > 0 {
			*dst = v
			c.sources[name] = "file"
		}
	}
	setInt := func(name string, dst *int, v int) {
		if v != 0 {
			*dst = v
			c.sources[name] = "file"
		}
	}
	setString := func(name string, dst *string, v string) {
		if v != "" {
			*dst = v
			c.sources[name] = "file"
		}
	}
	setBool := func(name string, dst *bool, v *bool) {
		if v != nil {
			*dst = *v
			c.sources[name] = "file"
		}
	}

	setStrings("trusted_proxies", &c.TrustedProxies, file.TrustedProxies)
	setInt("api_list_limit_max", &c.APIListLimitMax, file.APIListLimitMax)
	setInt("rate_limit_requests", &c.RateLimitRequests, file.RateLimitRequests)
	setInt("rate_limit_window_seconds", &c.RateLimitWindowSeconds, file.RateLimitWindowSeconds)
	setInt("cache_ttl_seconds", &c.CacheTTLSeconds, file.CacheTTLSeconds)
	setBool("cache_db_fallback", &c.CacheDBFallback, file.CacheDBFallback)
	setInt("invitation_ttl_hours", &c.InvitationTTLHours, file.InvitationTTLHours)
	setStrings("reserved_slugs", &c.ReservedSlugs, file.ReservedSlugs)
	setString("ai_provider", &c.AIProvider, file.AIProvider)
	setString("ai_model", &c.AIModel, file.AIModel)
	setInt("ai_timeout_seconds", &c.AITimeoutSeconds, file.AITimeoutSeconds)
	setString("job_poll_schedule", &c.JobPollSchedule, file.JobPollSchedule)
	setInt("job_max_attempts", &c.JobMaxAttempts, file.JobMaxAttempts)
	setString("storage_bucket", &c.StorageBucket, file.StorageBucket)
	setString("storage_region", &c.StorageRegion, file.StorageRegion)
	setString("storage_endpoint", &c.StorageEndpoint, file.StorageEndpoint)
	if file.MaxUploadBytes != 0 {
		c.MaxUploadBytes = file.MaxUploadBytes
		c.sources["max_upload_bytes"] = "file"
	}
	setString("nats_url", &c.NATSURL, file.NATSURL)
	setStrings("cors_allowed_origins", &c.CORSAllowedOrigins, file.CORSAllowedOrigins)
	setBool("audit_enabled", &c.AuditEnabled, file.AuditEnabled)
}

func (c *Config) applyEnvConfig() {
	envStrings := func(name, env string, dst *[]string) {
		if val := os.Getenv(env); val != "" {
			*dst = splitAndTrim(val)
			c.sources[name] = "environment"
		}
	}
	envInt := func(name, env string, dst *int) {
		if val := os.Getenv(env); val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				*dst = i
				c.sources[name] = "environment"
			}
		}
	}
	envString := func(name, env string, dst *string) {
		if val := os.Getenv(env); val != "" {
			*dst = val
			c.sources[name] = "environment"
		}
	}
	envBool := func(name, env string, dst *bool) {
		if val := os.Getenv(env); val != "" {
			*dst = val == "true" || val == "1"
			c.sources[name] = "environment"
		}
	}

	envStrings("trusted_proxies", "BOARDGURU_TRUSTED_PROXIES", &c.TrustedProxies)
	envInt("api_list_limit_max", "BOARDGURU_API_LIST_LIMIT_MAX", &c.APIListLimitMax)
	envInt("rate_limit_requests", "BOARDGURU_RATE_LIMIT_REQUESTS", &c.RateLimitRequests)
	envInt("rate_limit_window_seconds", "BOARDGURU_RATE_LIMIT_WINDOW_SECONDS", &c.RateLimitWindowSeconds)
	envInt("cache_ttl_seconds", "BOARDGURU_CACHE_TTL_SECONDS", &c.CacheTTLSeconds)
	envBool("cache_db_fallback", "BOARDGURU_CACHE_DB_FALLBACK", &c.CacheDBFallback)
	envInt("invitation_ttl_hours", "BOARDGURU_INVITATION_TTL_HOURS", &c.InvitationTTLHours)
	envStrings("reserved_slugs", "BOARDGURU_RESERVED_SLUGS", &c.ReservedSlugs)
	envString("ai_provider", "BOARDGURU_AI_PROVIDER", &c.AIProvider)
	envString("ai_model", "BOARDGURU_AI_MODEL", &c.AIModel)
	envInt("ai_timeout_seconds", "BOARDGURU_AI_TIMEOUT_SECONDS", &c.AITimeoutSeconds)
	envString("job_poll_schedule", "BOARDGURU_JOB_POLL_SCHEDULE", &c.JobPollSchedule)
	envInt("job_max_attempts", "BOARDGURU_JOB_MAX_ATTEMPTS", &c.JobMaxAttempts)
	envString("storage_bucket", "BOARDGURU_STORAGE_BUCKET", &c.StorageBucket)
	envString("storage_region", "BOARDGURU_STORAGE_REGION", &c.StorageRegion)
	envString("storage_endpoint", "BOARDGURU_STORAGE_ENDPOINT", &c.StorageEndpoint)
	if val := os.Getenv("BOARDGURU_MAX_UPLOAD_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.MaxUploadBytes = i
			c.sources["max_upload_bytes"] = "environment"
		}
	}
	envString("nats_url", "BOARDGURU_NATS_URL", &c.NATSURL)
	envStrings("cors_allowed_origins", "BOARDGURU_CORS_ALLOWED_ORIGINS", &c.CORSAllowedOrigins)
	envBool("audit_enabled", "BOARDGURU_AUDIT_ENABLED", &c.AuditEnabled)
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// RateLimitWindow returns the rate limit window as a duration
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// CacheTTL returns the default cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// InvitationTTL returns the invitation validity as a duration
func (c *Config) InvitationTTL() time.Duration {
	return time.Duration(c.InvitationTTLHours) * time.Hour
}

// AITimeout returns the AI completion timeout as a duration
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

// IsReservedSlug reports whether slug is reserved (case-insensitive)
func (c *Config) IsReservedSlug(slug string) bool {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, r := range c.ReservedSlugs {
		if strings.ToLower(r) == slug {
			return true
		}
	}
	return false
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *Config) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}

	validProvider := false
	for _, p := range ValidAIProviders {
		if c.AIProvider == p {
			validProvider = true
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid ai_provider: %s", c.AIProvider)
	}

	positives := map[string]int{
		"api_list_limit_max":        c.APIListLimitMax,
		"rate_limit_requests":       c.RateLimitRequests,
		"rate_limit_window_seconds": c.RateLimitWindowSeconds,
		"cache_ttl_seconds":         c.CacheTTLSeconds,
		"invitation_ttl_hours":      c.InvitationTTLHours,
		"ai_timeout_seconds":        c.AITimeoutSeconds,
		"job_max_attempts":          c.JobMaxAttempts,
	}
	for _, name := range attributeNames() {
		if v, ok := positives[name]; ok && v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}

	if _, err := cron.ParseStandard(c.JobPollSchedule); err != nil {
		return fmt.Errorf("invalid job_poll_schedule %q: %w", c.JobPollSchedule, err)
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *Config) Attributes() []Attribute {
	attr := func(name, value string) Attribute {
		return Attribute{Name: name, Value: value, Source: c.Source(name)}
	}
	return []Attribute{
		attr("trusted_proxies", strings.Join(c.TrustedProxies, ",")),
		attr("api_list_limit_max", strconv.Itoa(c.APIListLimitMax)),
		attr("rate_limit_requests", strconv.Itoa(c.RateLimitRequests)),
		attr("rate_limit_window_seconds", strconv.Itoa(c.RateLimitWindowSeconds)),
		attr("cache_ttl_seconds", strconv.Itoa(c.CacheTTLSeconds)),
		attr("cache_db_fallback", strconv.FormatBool(c.CacheDBFallback)),
		attr("invitation_ttl_hours", strconv.Itoa(c.InvitationTTLHours)),
		attr("reserved_slugs", strings.Join(c.ReservedSlugs, ",")),
		attr("ai_provider", c.AIProvider),
		attr("ai_model", c.AIModel),
		attr("ai_timeout_seconds", strconv.Itoa(c.AITimeoutSeconds)),
		attr("job_poll_schedule", c.JobPollSchedule),
		attr("job_max_attempts", strconv.Itoa(c.JobMaxAttempts)),
		attr("storage_bucket", c.StorageBucket),
		attr("storage_region", c.StorageRegion),
		attr("storage_endpoint", c.StorageEndpoint),
		attr("max_upload_bytes", strconv.FormatInt(c.MaxUploadBytes, 10)),
		attr("nats_url", c.NATSURL),
		attr("cors_allowed_origins", strings.Join(c.CORSAllowedOrigins, ",")),
		attr("audit_enabled", strconv.FormatBool(c.AuditEnabled)),
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
