// Package config loads process configuration for the uniquefile server.
//
// Values are layered: built-in defaults, then an optional YAML file named by
// --config (or UNIQUEFILE_CONFIG), then environment variables, then
// command-line flags. Later layers win.
//
// The dedup behaviour flags are not configured here; they live in the
// option store and are edited through the settings API.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/tinoosan/uniquefile/internal/fp"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Addr           string `yaml:"addr"`
	UploadsDir     string `yaml:"uploads_dir"`
	UploadsURL     string `yaml:"uploads_url"`
	SiteID         int    `yaml:"site_id"`
	TmpDir         string `yaml:"tmp_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	// FingerprintAlgorithm is one of md5, sha256 or blake3.
	FingerprintAlgorithm string `yaml:"fingerprint_algorithm"`

	Storage  string         `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	// LogFile, when set, sends logs to a rotated file instead of stdout.
	LogFile string `yaml:"log_file"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	DB       string `yaml:"db"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN builds a postgres URL. Credentials and db name are URL-encoded.
func (p PostgresConfig) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, p.Port),
		Path:   "/" + p.DB,
	}
	q := url.Values{}
	q.Set("sslmode", p.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func Default() Config {
	return Config{
		Addr:                 ":9090",
		UploadsDir:           "./uploads",
		UploadsURL:           "http://localhost:9090/uploads",
		TmpDir:               os.TempDir(),
		MaxUploadBytes:       64 << 20,
		FingerprintAlgorithm: string(fp.MD5),
		Storage:              StorageMemory,
		Postgres: PostgresConfig{
			Host:    "postgres",
			Port:    "5432",
			DB:      "uniquefile",
			User:    "uniquefile",
			SSLMode: "disable",
		},
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Load resolves the configuration for args (without the program name).
func Load(args []string) (Config, error) {
	cfg := Default()

	fs := pflag.NewFlagSet("uniquefile", pflag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("UNIQUEFILE_CONFIG"), "path to a YAML config file")
	addr := fs.String("addr", "", "listen address")
	uploadsDir := fs.String("uploads-dir", "", "directory uploads are stored under")
	uploadsURL := fs.String("uploads-url", "", "public URL the uploads directory is served at")
	siteID := fs.Int("site-id", 0, "site id; > 0 places uploads under sites/<id>")
	tmpDir := fs.String("tmp-dir", "", "directory incoming payloads are spooled to")
	maxUpload := fs.Int64("max-upload-bytes", 0, "maximum request body size for uploads")
	alg := fs.String("fingerprint", "", "fingerprint algorithm: md5, sha256 or blake3")
	storage := fs.String("storage", "", "attachment store: memory or postgres")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	logFormat := fs.String("log-format", "", "text or json")
	logFile := fs.String("log-file", "", "write logs to this rotated file")
	shutdown := fs.Duration("shutdown-timeout", 0, "graceful shutdown timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return Config{}, err
	}

	// Only flags given on the command line override earlier layers.
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "uploads-dir":
			cfg.UploadsDir = *uploadsDir
		case "uploads-url":
			cfg.UploadsURL = *uploadsURL
		case "site-id":
			cfg.SiteID = *siteID
		case "tmp-dir":
			cfg.TmpDir = *tmpDir
		case "max-upload-bytes":
			cfg.MaxUploadBytes = *maxUpload
		case "fingerprint":
			cfg.FingerprintAlgorithm = *alg
		case "storage":
			cfg.Storage = *storage
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "log-file":
			cfg.LogFile = *logFile
		case "shutdown-timeout":
			cfg.ShutdownTimeout = *shutdown
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.Addr, "UNIQUEFILE_ADDR")
	setString(&c.UploadsDir, "UNIQUEFILE_UPLOADS_DIR")
	setString(&c.UploadsURL, "UNIQUEFILE_UPLOADS_URL")
	setString(&c.TmpDir, "UNIQUEFILE_TMP_DIR")
	setString(&c.FingerprintAlgorithm, "UNIQUEFILE_FINGERPRINT")
	setString(&c.Storage, "UNIQUEFILE_STORAGE")
	setString(&c.LogLevel, "UNIQUEFILE_LOG_LEVEL")
	setString(&c.LogFormat, "UNIQUEFILE_LOG_FORMAT")
	setString(&c.LogFile, "UNIQUEFILE_LOG_FILE")

	setString(&c.Postgres.Host, "POSTGRES_HOST")
	setString(&c.Postgres.Port, "POSTGRES_PORT")
	setString(&c.Postgres.DB, "POSTGRES_DB")
	setString(&c.Postgres.User, "POSTGRES_USER")
	setString(&c.Postgres.Password, "POSTGRES_PASSWORD")
	setString(&c.Postgres.SSLMode, "POSTGRES_SSLMODE")

	if v := os.Getenv("UNIQUEFILE_SITE_ID"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("UNIQUEFILE_SITE_ID: %w", err)
		}
		c.SiteID = n
	}
	if v := os.Getenv("UNIQUEFILE_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("UNIQUEFILE_MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v := os.Getenv("UNIQUEFILE_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("UNIQUEFILE_SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.UploadsDir) == "" {
		errs = append(errs, errors.New("uploads_dir is required"))
	}
	if c.SiteID < 0 {
		errs = append(errs, fmt.Errorf("site_id must not be negative, got %d", c.SiteID))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes))
	}
	if _, err := fp.ParseAlgorithm(c.FingerprintAlgorithm); err != nil {
		errs = append(errs, err)
	}
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		errs = append(errs, fmt.Errorf("storage must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
