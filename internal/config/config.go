package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriveBackendGoogle = "google"
	DriveBackendMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Telemetry Telemetry `yaml:"telemetry"`
	Database  Database  `yaml:"database"`
	Drive     Drive     `yaml:"drive"`
	Mail      Mail      `yaml:"mail"`
}

// Server settings
type Server struct {
	Port        string `yaml:"port"`
	ActorHeader string `yaml:"actor_header"`
}

// Telemetry holds the OpenTelemetry settings.
type Telemetry struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
	Environment  string `yaml:"environment"`
}

// Database selects the SQL backend. Driver is "sqlite3" or "postgres".
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Drive configures the document store.
type Drive struct {
	Backend         string        `yaml:"backend"`
	CredentialsFile string        `yaml:"credentials_file"`
	RootFolderID    string        `yaml:"root_folder_id"`
	SharedDriveID   string        `yaml:"shared_drive_id"`
	FolderCacheSize int           `yaml:"folder_cache_size"`
	FolderCacheTTL  time.Duration `yaml:"folder_cache_ttl"`
}

// Mail configures outgoing notifications. With no SMTP host set, messages
// are only logged.
type Mail struct {
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	NotifyTo []string `yaml:"notify_to"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Port:        "8080",
			ActorHeader: "X-User-ID",
		},
		Telemetry: Telemetry{
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "fonnetapp",
			Environment:  "development",
		},
		Database: Database{
			Driver: "sqlite3",
			DSN:    "file:fonnetapp.db?_foreign_keys=on",
		},
		Drive: Drive{
			Backend:         DriveBackendMemory,
			RootFolderID:    "root",
			FolderCacheSize: 256,
			FolderCacheTTL:  10 * time.Minute,
		},
		Mail: Mail{
			SMTPPort: 587,
			From:     "no-reply@fonnet.co",
		},
	}
}

// Load builds the configuration from the defaults, then the YAML file at
// path when one is given, then a .env file and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load(".env")

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "SERVER_PORT")
	setString(&c.Server.ActorHeader, "AUTH_ACTOR_HEADER")

	setString(&c.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
	setString(&c.Telemetry.Environment, "ENVIRONMENT")

	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_DSN")

	setString(&c.Drive.Backend, "DRIVE_BACKEND")
	setString(&c.Drive.CredentialsFile, "DRIVE_CREDENTIALS_FILE")
	setString(&c.Drive.RootFolderID, "DRIVE_ROOT_FOLDER_ID")
	setString(&c.Drive.SharedDriveID, "DRIVE_SHARED_DRIVE_ID")

	setString(&c.Mail.SMTPHost, "SMTP_HOST")
	setString(&c.Mail.Username, "SMTP_USERNAME")
	setString(&c.Mail.Password, "SMTP_PASSWORD")
	setString(&c.Mail.From, "MAIL_FROM")
	if v, ok := lookupEnv("NOTIFY_ADDRESSES"); ok {
		c.Mail.NotifyTo = splitList(v)
	}

	return errors.Join(
		setBool(&c.Telemetry.Enabled, "TELEMETRY_ENABLED"),
		setInt(&c.Drive.FolderCacheSize, "DRIVE_FOLDER_CACHE_SIZE"),
		setDuration(&c.Drive.FolderCacheTTL, "DRIVE_FOLDER_CACHE_TTL"),
		setInt(&c.Mail.SMTPPort, "SMTP_PORT"),
	)
}

// Validate reports every setting that would prevent startup.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.ActorHeader == "" {
		errs = append(errs, errors.New("server.actor_header is required"))
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, errors.New("telemetry.otlp_endpoint is required when telemetry is enabled"))
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported (valid: sqlite3, postgres)", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	switch c.Drive.Backend {
	case DriveBackendMemory:
	case DriveBackendGoogle:
		if c.Drive.CredentialsFile == "" {
			errs = append(errs, errors.New("drive.credentials_file is required for the google backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("drive.backend %q is not supported (valid: google, memory)", c.Drive.Backend))
	}
	if c.Drive.RootFolderID == "" {
		errs = append(errs, errors.New("drive.root_folder_id is required"))
	}
	if c.Drive.FolderCacheSize < 0 {
		errs = append(errs, errors.New("drive.folder_cache_size must not be negative"))
	}
	if c.Mail.SMTPHost != "" && c.Mail.From == "" {
		errs = append(errs, errors.New("mail.from is required when smtp_host is set"))
	}
	return errors.Join(errs...)
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookupEnv(key); ok {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
