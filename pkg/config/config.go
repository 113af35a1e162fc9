package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/permhub"
	ConfigFileName    = "permhub.yml"
)

// ValidMaskTypes is the set of mask types accepted for column permissions.
var ValidMaskTypes = []string{"MASK_HASH", "MASK_NONE", "CUSTOM"}

// Ranger holds connection settings for the policy authority.
type Ranger struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Services is the list of backend services every intent fans out to.
	Services []string `yaml:"services"`

	// Catalogs lists the catalogs for catalog-aware services (doris).
	Catalogs []string `yaml:"catalogs"`
}

// Directory holds connection settings for the LDAP directory service.
type Directory struct {
	Servers         []string `yaml:"servers"`
	BindDN          string   `yaml:"bind_dn"`
	BindPassword    string   `yaml:"bind_password"`
	UserBaseDN      string   `yaml:"user_base_dn"`
	GroupBaseDN     string   `yaml:"group_base_dn"`
	DefaultPassword string   `yaml:"default_password"`
}

// Config holds all permission-hub settings. It is constructed once at
// process start and passed by reference into every constructor that needs
// it; nothing in this repo reads the environment after startup.
type Config struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`

	JWTSecret   string `yaml:"jwt_secret"`
	TokenTTLMin int    `yaml:"token_ttl_minutes"`

	Ranger    Ranger    `yaml:"ranger"`
	Directory Directory `yaml:"directory"`

	// SyncAttempts is the attempt budget for one sync job.
	SyncAttempts int `yaml:"sync_attempts"`
	// SyncRetryDelaySec is the fixed delay between attempts.
	SyncRetryDelaySec int `yaml:"sync_retry_delay_seconds"`

	// DefaultQuotaGB is applied to databases of newly provisioned
	// directory users when no quota is given.
	DefaultQuotaGB float64 `yaml:"default_quota_gb"`
}

func newDefault() *Config {
	return &Config{
		Host:              "0.0.0.0",
		Port:              "8000",
		TokenTTLMin:       60 * 24 * 7,
		SyncAttempts:      3,
		SyncRetryDelaySec: 2,
		DefaultQuotaGB:    100,
		Ranger: Ranger{
			Services: []string{"cm_hive"},
		},
	}
}

// Load builds the configuration from the optional config file and the
// environment. Environment variables take precedence over file values.
func Load() (*Config, error) {
	cfg := newDefault()

	configPath := os.Getenv("PERMHUB_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	file := filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(file); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if val := os.Getenv("PERMHUB_HOST"); val != "" {
		c.Host = val
	}
	if val := os.Getenv("PERMHUB_PORT"); val != "" {
		c.Port = val
	}
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.DatabaseURL = val
	}
	if val := os.Getenv("SECRET_KEY"); val != "" {
		c.JWTSecret = val
	}
	if val := os.Getenv("RANGER_URL"); val != "" {
		c.Ranger.URL = val
	}
	if val := os.Getenv("RANGER_USER"); val != "" {
		c.Ranger.User = val
	}
	if val := os.Getenv("RANGER_PASSWORD"); val != "" {
		c.Ranger.Password = val
	}
	if val := os.Getenv("RANGER_SERVICES"); val != "" {
		c.Ranger.Services = splitAndTrim(val)
	}
	if val := os.Getenv("RANGER_CATALOGS"); val != "" {
		c.Ranger.Catalogs = splitAndTrim(val)
	}
	if val := os.Getenv("LDAP_SERVER"); val != "" {
		c.Directory.Servers = splitAndTrim(val)
	}
	if val := os.Getenv("LDAP_USER_DN"); val != "" {
		c.Directory.BindDN = val
	}
	if val := os.Getenv("LDAP_DEFAULT_PASSWORD"); val != "" {
		c.Directory.DefaultPassword = val
	}
	if val := os.Getenv("PERMHUB_SYNC_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SyncAttempts = i
		}
	}
	if val := os.Getenv("PERMHUB_SYNC_RETRY_DELAY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SyncRetryDelaySec = i
		}
	}
}

// Validate checks settings that every subsystem depends on.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required (or set DATABASE_URL)")
	}
	if c.Ranger.URL == "" {
		return fmt.Errorf("ranger.url is required (or set RANGER_URL)")
	}
	if len(c.Ranger.Services) == 0 {
		return fmt.Errorf("ranger.services must list at least one service")
	}
	for _, service := range c.Ranger.Services {
		if service == "doris" && len(c.Ranger.Catalogs) == 0 {
			return fmt.Errorf("ranger.catalogs is required when the doris service is configured")
		}
	}
	return nil
}

// TokenTTL returns the admin token TTL as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMin) * time.Minute
}

// SyncRetryDelay returns the fixed inter-attempt delay as a duration.
func (c *Config) SyncRetryDelay() time.Duration {
	return time.Duration(c.SyncRetryDelaySec) * time.Second
}

// Addr returns the host:port the API server listens on.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
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
