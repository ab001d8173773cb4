// Package config provides functionality for managing configuration options
// for the application using command-line flags, a config file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/PassKeeper/internal/secure"
	"gopkg.in/yaml.v3"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address" yaml:"server_address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`

	// Config is the path to the config file.
	Config string `json:"-" yaml:"-"`

	// LogLevel is the minimum level written by the logger.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `json:"tls_key" yaml:"tls_key"`

	// SecretKey is the base64 encoded key sealing stored secrets.
	SecretKey string `json:"secret_key" yaml:"secret_key"`

	// SecretKeyFile is a file holding the base64 encoded key. It takes
	// precedence over SecretKey.
	SecretKeyFile string `json:"secret_key_file" yaml:"secret_key_file"`

	// CleanupInterval is how often inactive accounts are purged; zero
	// disables the cleaner. Config files spell durations as "1h30m".
	CleanupInterval time.Duration `json:"-" yaml:"-"`

	// CleanupRetention is how long an inactive account is kept.
	CleanupRetention time.Duration `json:"-" yaml:"-"`
}

// fileDurations holds the duration settings of a config file in their
// textual form.
type fileDurations struct {
	CleanupInterval  string `json:"cleanup_interval" yaml:"cleanup_interval"`
	CleanupRetention string `json:"cleanup_retention" yaml:"cleanup_retention"`
}

// ErrNoKey is returned by KeyProvider when no key is configured.
var ErrNoKey = errors.New("no secret key configured: set SECRET_KEY or SECRET_KEY_FILE")

// Parse builds Options from args (without the program name). Precedence,
// lowest first: defaults, config file, flags, environment.
func Parse(args []string) (*Options, error) {
	opts := &Options{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&opts.Config, "config", "config.json", "path to config file")
	fs.StringVar(&opts.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&opts.LogLevel, "l", "info", "log level")
	fs.StringVar(&opts.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&opts.TLSKey, "tls-key", "", "TLS private key file")
	fs.StringVar(&opts.SecretKeyFile, "key-file", "", "file holding the base64 secret key")
	fs.DurationVar(&opts.CleanupInterval, "cleanup-interval", time.Hour, "inactive account purge interval, 0 disables")
	fs.DurationVar(&opts.CleanupRetention, "cleanup-retention", 30*24*time.Hour, "inactive account retention")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		opts.Config = configPath
	}

	if opts.Config != "" {
		if _, err := os.Stat(opts.Config); err == nil {
			if err := loadFile(opts); err != nil {
				return nil, err
			}
			// Flags given explicitly win over the file.
			if err := fs.Parse(args); err != nil {
				return nil, err
			}
		}
	}

	applyEnv(opts)
	return opts, nil
}

func loadFile(opts *Options) error {
	data, err := os.ReadFile(opts.Config)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	path := opts.Config
	unmarshal := json.Unmarshal
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		unmarshal = yaml.Unmarshal
	}

	var durations fileDurations
	if err := unmarshal(data, opts); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	if err := unmarshal(data, &durations); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	if err := setDuration(&opts.CleanupInterval, "cleanup_interval", durations.CleanupInterval); err != nil {
		return err
	}
	if err := setDuration(&opts.CleanupRetention, "cleanup_retention", durations.CleanupRetention); err != nil {
		return err
	}
	opts.Config = path
	return nil
}

func setDuration(dst *time.Duration, name, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("error while parsing config file: %s: %w", name, err)
	}
	*dst = d
	return nil
}

func applyEnv(opts *Options) {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		opts.Port = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		opts.DatabaseDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		opts.LogLevel = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		opts.SecretKey = v
	}
	if v := os.Getenv("SECRET_KEY_FILE"); v != "" {
		opts.SecretKeyFile = v
	}
}

// KeyProvider returns the configured source of the secret key.
func (o *Options) KeyProvider() (secure.KeyProvider, error) {
	switch {
	case o.SecretKeyFile != "":
		return secure.FileKey(o.SecretKeyFile), nil
	case o.SecretKey != "":
		return secure.Base64Key(o.SecretKey), nil
	default:
		return nil, ErrNoKey
	}
}

// TLSEnabled reports whether both TLS files are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}
