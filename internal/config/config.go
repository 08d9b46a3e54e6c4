package config

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/stateart/internal/errors"
)

const (
	// DefaultPort is the default devtools port.
	DefaultPort = 7345

	// DefaultHost is the default devtools host.
	DefaultHost = "localhost"

	// DefaultBackend is the default storage backend.
	DefaultBackend = "memory"

	// DefaultSaveTimeout is the default timeout of the save after a dispatch.
	DefaultSaveTimeout = "5s"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "stateart"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "STATEART_"
)

// FileNames are the configuration file names Load looks for, in order.
var FileNames = []string{"stateart.yaml", "stateart.yml", "stateart.json"}

// Backends lists the storage backends Persist.Backend accepts.
var Backends = []string{"memory", "file", "bolt", "sqlite", "s3"}

// Config is the stateart configuration file.
type Config struct {
	// Name is the application name. It is used as the tracing service name.
	Name string `json:"name,omitempty" yaml:"name,omitempty" env:"NAME"`

	// Stores configures store definition and persistence behaviour.
	Stores StoresConfig `json:"stores,omitempty" yaml:"stores,omitempty" envPrefix:"STORES_"`

	// Persist selects and configures the storage backend.
	Persist PersistConfig `json:"persist,omitempty" yaml:"persist,omitempty" envPrefix:"PERSIST_"`

	// Devtools configures the devtools HTTP server.
	Devtools DevtoolsConfig `json:"devtools,omitempty" yaml:"devtools,omitempty" envPrefix:"DEVTOOLS_"`

	// Log configures logging.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty" envPrefix:"LOG_"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty" envPrefix:"METRICS_"`

	// Tracing configures OpenTelemetry spans.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty" envPrefix:"TRACING_"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StoresConfig configures the store registry.
type StoresConfig struct {
	// MergeDuplicates returns the existing store when a name is defined
	// twice instead of failing.
	MergeDuplicates bool `json:"mergeDuplicates,omitempty" yaml:"mergeDuplicates,omitempty" env:"MERGE_DUPLICATES"`

	// SaveTimeout bounds the save that follows a dispatch (e.g. "5s").
	SaveTimeout string `json:"saveTimeout,omitempty" yaml:"saveTimeout,omitempty" env:"SAVE_TIMEOUT"`
}

// PersistConfig selects the storage backend.
type PersistConfig struct {
	// Backend is one of memory, file, bolt, sqlite or s3.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" env:"BACKEND"`

	// Dir is the snapshot directory of the file backend.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" env:"DIR"`

	// Path is the database file of the bolt and sqlite backends.
	Path string `json:"path,omitempty" yaml:"path,omitempty" env:"PATH"`

	// Bucket, Prefix, Region and Endpoint configure the s3 backend.
	Bucket   string `json:"bucket,omitempty" yaml:"bucket,omitempty" env:"BUCKET"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty" env:"PREFIX"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty" env:"REGION"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"ENDPOINT"`
}

// DevtoolsConfig configures the devtools server.
type DevtoolsConfig struct {
	// Enabled starts the devtools server with serve.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty" env:"ENABLED"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty" env:"HOST"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty" env:"PORT"`

	// JWTSecret enables HS256 bearer authentication when set.
	JWTSecret string `json:"jwtSecret,omitempty" yaml:"jwtSecret,omitempty" env:"JWT_SECRET"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty" env:"LEVEL"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty" env:"FORMAT"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty" env:"ENABLED"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" env:"NAMESPACE"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty" env:"ENABLED"`

	// Endpoint is an OTLP/HTTP collector URL. Spans are only recorded
	// in-process when it is empty.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"ENDPOINT"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name: "stateart",
		Stores: StoresConfig{
			SaveTimeout: DefaultSaveTimeout,
		},
		Persist: PersistConfig{
			Backend: DefaultBackend,
		},
		Devtools: DevtoolsConfig{
			Enabled: true,
			Host:    DefaultHost,
			Port:    DefaultPort,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads the first configuration file of FileNames found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E121").
		WithDetail("No stateart.yaml, stateart.yml or stateart.json found in " + dir).
		WithSuggestion("Create stateart.yaml, or run without a configuration file to use the defaults")
}

// LoadFile reads configuration from the specified file path. Files ending
// in .json are decoded as JSON, everything else as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").WithDetail(path + " does not exist")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if isJSON(path) {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOrDefault loads the configuration in dir, falling back to New when
// dir has none. Environment overrides are applied and the result is
// validated.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if stderrors.Is(err, errors.New("E121")) {
		cfg, err = New(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// ApplyEnv overrides fields from STATEART_* environment variables, e.g.
// STATEART_DEVTOOLS_PORT or STATEART_PERSIST_BACKEND. Unset variables leave
// the fields untouched.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New("E124").Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as JSON or YAML
// depending on the extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "stateart"
	}
	if c.Stores.SaveTimeout == "" {
		c.Stores.SaveTimeout = DefaultSaveTimeout
	}

	if c.Persist.Backend == "" {
		c.Persist.Backend = DefaultBackend
	}
	switch c.Persist.Backend {
	case "file":
		if c.Persist.Dir == "" {
			c.Persist.Dir = ".stateart"
		}
	case "bolt":
		if c.Persist.Path == "" {
			c.Persist.Path = "stateart.db"
		}
	case "sqlite":
		if c.Persist.Path == "" {
			c.Persist.Path = "stateart.sqlite"
		}
	case "s3":
		if c.Persist.Prefix == "" {
			c.Persist.Prefix = "stateart/"
		}
	}

	if c.Devtools.Host == "" {
		c.Devtools.Host = DefaultHost
	}
	if c.Devtools.Port == 0 {
		c.Devtools.Port = DefaultPort
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Devtools.Port < 0 || c.Devtools.Port > 65535 {
		return errors.New("E122").
			WithDetailf("devtools port %d is out of range", c.Devtools.Port)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E123").WithDetailf("unknown log format %q", c.Log.Format)
	}
	if !knownBackend(c.Persist.Backend) {
		return errors.New("E084").WithDetailf("backend %q", c.Persist.Backend)
	}
	if c.Persist.Backend == "s3" && c.Persist.Bucket == "" {
		return errors.New("E120").WithDetail("persist.bucket is required for the s3 backend")
	}
	if d, err := time.ParseDuration(c.Stores.SaveTimeout); err != nil || d <= 0 {
		return errors.New("E120").WithDetailf("stores.saveTimeout %q is not a positive duration", c.Stores.SaveTimeout)
	}
	return nil
}

func knownBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// SaveTimeout returns Stores.SaveTimeout as a duration, or the default when
// it does not parse.
func (c *Config) SaveTimeout() time.Duration {
	d, err := time.ParseDuration(c.Stores.SaveTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultSaveTimeout)
	}
	return d
}

// LogLevel returns the slog level named by Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.New("E123").WithDetailf("unknown log level %q", c.Log.Level)
}

// DevtoolsAddress returns the listen address of the devtools server.
func (c *Config) DevtoolsAddress() string {
	return c.Devtools.Host + ":" + strconv.Itoa(c.Devtools.Port)
}

// DevtoolsURL returns the base URL of the devtools server.
func (c *Config) DevtoolsURL() string {
	return "http://" + c.DevtoolsAddress()
}

// ResolvePath returns path relative to the config directory unless it is
// absolute.
func (c *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a configuration file, or an error if not
// found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E121").
				WithDetail("No configuration found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
