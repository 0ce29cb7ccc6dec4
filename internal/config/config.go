package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "config.yaml"
	defaultPort       = 8080
)

type Config struct {
	Server     Server     `yaml:"server"`
	Database   Database   `yaml:"database"`
	Auth       Auth       `yaml:"auth"`
	Redis      Redis      `yaml:"redis"`
	Images     Images     `yaml:"images"`
	Engagement Engagement `yaml:"engagement"`
	Limits     Limits     `yaml:"limits"`
	Log        Log        `yaml:"log"`
}

type Server struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type Database struct {
	// Driver is one of sqlite, postgres, mysql
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlite_path"`
	MaxConns   int    `yaml:"max_conns"`
}

type Auth struct {
	// Mode is firebase or static
	Mode            string                    `yaml:"mode"`
	ProjectID       string                    `yaml:"project_id"`
	CredentialsFile string                    `yaml:"credentials_file"`
	StaticTokens    map[string]StaticIdentity `yaml:"static_tokens"`
	CacheTTL        time.Duration             `yaml:"cache_ttl"`
}

type StaticIdentity struct {
	ID    string `yaml:"id"`
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
}

// Redis enables the token cache when Addr is set
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Images struct {
	// Store is local or firebase
	Store         string `yaml:"store"`
	Dir           string `yaml:"dir"`
	PublicBaseURL string `yaml:"public_base_url"`
	Bucket        string `yaml:"bucket"`
	MaxBytes      int64  `yaml:"max_bytes"`
}

type Engagement struct {
	UniqueLikes bool `yaml:"unique_likes"`
}

// Limits are character ceilings on user input. Zero means unlimited.
type Limits struct {
	MaxTitleLength   int `yaml:"max_title_length"`
	MaxContentLength int `yaml:"max_content_length"`
	MaxCommentLength int `yaml:"max_comment_length"`
	MaxNameLength    int `yaml:"max_name_length"`
	MaxBioLength     int `yaml:"max_bio_length"`
	MaxTagLength     int `yaml:"max_tag_length"`
	MaxTags          int `yaml:"max_tags"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: Server{
			Port:            defaultPort,
			ShutdownTimeout: 5 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: Database{
			Driver:     "sqlite",
			SQLitePath: "./blogsphere.db",
			MaxConns:   20,
		},
		Auth: Auth{
			Mode:     "static",
			CacheTTL: 5 * time.Minute,
		},
		Images: Images{
			Store:         "local",
			Dir:           "./images",
			PublicBaseURL: "/images",
			MaxBytes:      5 << 20,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads the YAML file named by BLOGSPHERE_CONFIG (default config.yaml) over
// the defaults, applies environment overrides, and validates the result.
// A missing file is not an error.
func Load() (*Config, error) {
	path := os.Getenv("BLOGSPHERE_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()

	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")
	setString(&c.Database.SQLitePath, "SQLITE_DB_PATH")
	setString(&c.Auth.Mode, "AUTH_MODE")
	setString(&c.Auth.ProjectID, "FIREBASE_PROJECT_ID")
	setString(&c.Auth.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Images.Store, "IMAGE_STORE")
	setString(&c.Images.Dir, "IMAGE_DIR")
	setString(&c.Images.Bucket, "IMAGE_BUCKET")
	setString(&c.Log.Level, "LOG_LEVEL")

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate rejects unknown drivers and modes and missing required values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required for sqlite")
		}
	case "postgres", "mysql":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	switch c.Auth.Mode {
	case "firebase":
		if c.Auth.ProjectID == "" {
			return fmt.Errorf("auth.project_id is required for firebase")
		}
	case "static":
		for token, identity := range c.Auth.StaticTokens {
			if token == "" || identity.ID == "" {
				return fmt.Errorf("auth.static_tokens entries need a token and an id")
			}
		}
	default:
		return fmt.Errorf("unknown auth.mode %q", c.Auth.Mode)
	}

	switch c.Images.Store {
	case "local":
		if c.Images.Dir == "" {
			return fmt.Errorf("images.dir is required for the local store")
		}
	case "firebase":
		if c.Images.Bucket == "" {
			return fmt.Errorf("images.bucket is required for the firebase store")
		}
		if c.Auth.ProjectID == "" {
			return fmt.Errorf("auth.project_id is required for the firebase store")
		}
	default:
		return fmt.Errorf("unknown images.store %q", c.Images.Store)
	}

	if c.Images.MaxBytes <= 0 {
		return fmt.Errorf("images.max_bytes must be positive")
	}

	limits := []int{
		c.Limits.MaxTitleLength, c.Limits.MaxContentLength, c.Limits.MaxCommentLength,
		c.Limits.MaxNameLength, c.Limits.MaxBioLength, c.Limits.MaxTagLength, c.Limits.MaxTags,
	}
	for _, l := range limits {
		if l < 0 {
			return fmt.Errorf("limits must not be negative")
		}
	}

	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
