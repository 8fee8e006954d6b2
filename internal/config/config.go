package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/lc/confkit/internal/binding"
	"github.com/lc/confkit/internal/filesys"
	"github.com/lc/confkit/internal/log"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// DefaultSocketPath is the default path for the Unix socket.
	DefaultSocketPath = "/var/run/confkitd.socket"
	// DefaultConfigPath is the default path for the configuration file,
	// relative to the user's home directory.
	DefaultConfigPath = ".confkit/config.yaml"
	// DefaultCheckInterval is how often the daemon re-reads its bindings.
	DefaultCheckInterval = time.Minute
	// EnvConfigPath overrides the configuration file location.
	EnvConfigPath = "CONFKIT_CONFIG"
)

// Config holds the application configuration.
type Config struct {
	Socket   SocketConfig   `yaml:"socket"`
	Engine   EngineConfig   `yaml:"engine"`
	Bindings []binding.Spec `yaml:"bindings,omitempty"`
}

// SocketConfig holds socket-related configuration.
type SocketConfig struct {
	Path string `yaml:"path"`
}

// EngineConfig holds daemon engine configuration.
type EngineConfig struct {
	// CheckInterval is how often bindings are re-read so that broken sources
	// show up in the log. Zero disables the check.
	CheckInterval time.Duration `yaml:"check_interval"`
}

// Provider loads and stores configuration.
type Provider interface {
	Load() (*Config, error)
	Save(*Config) error
	Path() string
}

// FSProvider implements Provider on an afero file system.
type FSProvider struct {
	fs   afero.Fs
	path string
}

// Verify FSProvider implements Provider interface.
var _ Provider = (*FSProvider)(nil)

// New creates a provider for $CONFKIT_CONFIG, or ~/.confkit/config.yaml on
// the OS file system. If the home directory cannot be determined, it falls
// back to the current directory.
func New() Provider {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return NewWithPath(filesys.OS(), filesys.Expand(p))
	}
	home, err := os.UserHomeDir()
	if err != nil {
		log.Warn("config: could not determine home directory", "error", err)
		home = ""
	}
	return NewWithPath(filesys.OS(), filepath.Join(home, DefaultConfigPath))
}

// NewWithPath creates a new provider with a specific file system and path.
func NewWithPath(fs afero.Fs, path string) Provider {
	return &FSProvider{
		fs:   fs,
		path: path,
	}
}

// Default returns a default configuration with preset values.
// This is used when no configuration file exists.
func Default() *Config {
	return &Config{
		Socket: SocketConfig{
			Path: DefaultSocketPath,
		},
		Engine: EngineConfig{
			CheckInterval: DefaultCheckInterval,
		},
	}
}

// Path returns the configuration file location.
func (p *FSProvider) Path() string { return p.path }

// Load loads the configuration from the provider's path. A missing file
// yields the defaults.
func (p *FSProvider) Load() (*Config, error) {
	cfg, err := p.loadAndParse()
	if err != nil {
		if errors.Is(err, ErrNoConfig) {
			log.Debug("config: no configuration file, using defaults", "path", p.path)
			return Default(), nil
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Save validates cfg and writes it atomically, creating the directory if
// needed.
func (p *FSProvider) Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding config file: %w", err)
	}

	if err := filesys.AtomicWrite(p.fs, p.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	log.Debug("config: saved", "path", p.path, "bindings", len(cfg.Bindings))
	return nil
}

// Validate checks the configuration to ensure all required fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Socket.Path) == "" {
		return errors.New("socket path cannot be empty")
	}
	if c.Engine.CheckInterval < 0 {
		return errors.New("check interval cannot be negative")
	}
	if c.Engine.CheckInterval > 0 && c.Engine.CheckInterval < time.Second {
		return errors.New("check interval must be at least 1 second")
	}

	seen := make(map[string]struct{}, len(c.Bindings))
	for _, spec := range c.Bindings {
		if err := spec.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(spec.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate binding name %q", spec.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Upsert adds spec to the configuration, replacing a binding with the same
// name. It reports whether an existing entry was replaced.
func (c *Config) Upsert(spec binding.Spec) (replaced bool) {
	for i := range c.Bindings {
		if strings.EqualFold(c.Bindings[i].Name, spec.Name) {
			c.Bindings[i] = spec
			return true
		}
	}
	c.Bindings = append(c.Bindings, spec)
	return false
}

// Remove deletes the binding with the given name.
func (c *Config) Remove(name string) bool {
	for i := range c.Bindings {
		if strings.EqualFold(c.Bindings[i].Name, name) {
			c.Bindings = append(c.Bindings[:i], c.Bindings[i+1:]...)
			return true
		}
	}
	return false
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	cfg := Default()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	return cfg, nil
}
