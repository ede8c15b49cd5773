package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	EnvAPIURL   = "DOCCHAT_API_URL"
	EnvAPIToken = "DOCCHAT_API_TOKEN"
	EnvDataDir  = "DOCCHAT_DATA_DIR"
	EnvDebug    = "DOCCHAT_DEBUG"
)

type SystemConfig struct {
	DataDirectory string         `toml:"data_directory"`
	Security      SecurityConfig `toml:"security"`
}

type SecurityConfig struct {
	// "plaintext" or "ssh_key"
	Method     string `toml:"method"`
	SSHKeyPath string `toml:"ssh_key_path"`
}

type BackendConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type RevealConfig struct {
	Enabled    bool `toml:"enabled"`
	DurationMs int  `toml:"duration_ms"`
	StaggerMs  int  `toml:"stagger_ms"`
}

type FilesConfig struct {
	MaxFiles int `toml:"max_files"`
}

type UserConfig struct {
	Backend BackendConfig `toml:"backend"`
	Reveal  RevealConfig  `toml:"reveal"`
	Files   FilesConfig   `toml:"files"`
}

type Config struct {
	DataDirectory    string
	APIURL           string
	APIToken         string
	TimeoutSeconds   int
	RevealEnabled    bool
	RevealDurationMs int
	RevealStaggerMs  int
	MaxFiles         int
	SecurityMethod   SecurityMethod
	SSHKeyPath       string
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// Timeout is the per-request deadline for the processing endpoint
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) RevealDuration() time.Duration {
	return time.Duration(c.RevealDurationMs) * time.Millisecond
}

func (c *Config) RevealStagger() time.Duration {
	return time.Duration(c.RevealStaggerMs) * time.Millisecond
}

func (c *Config) applyUserConfig(userCfg *UserConfig) {
	if userCfg.Backend.URL != "" {
		c.APIURL = userCfg.Backend.URL
	}
	if userCfg.Backend.TimeoutSeconds > 0 {
		c.TimeoutSeconds = userCfg.Backend.TimeoutSeconds
	}
	c.RevealEnabled = userCfg.Reveal.Enabled
	if userCfg.Reveal.DurationMs > 0 {
		c.RevealDurationMs = userCfg.Reveal.DurationMs
	}
	if userCfg.Reveal.StaggerMs >= 0 {
		c.RevealStaggerMs = userCfg.Reveal.StaggerMs
	}
	if userCfg.Files.MaxFiles > 0 {
		c.MaxFiles = userCfg.Files.MaxFiles
	}
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv(EnvAPIURL); url != "" {
		c.APIURL = url
	}
	if token := os.Getenv(EnvAPIToken); token != "" {
		c.APIToken = token
	}
	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func CheckDebug() bool {
	debug := os.Getenv(EnvDebug)
	if b, err := strconv.ParseBool(debug); err == nil {
		return b
	}
	return false
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: requests and answers end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (%s=%s) ===", EnvDebug, os.Getenv(EnvDebug))
	DebugLog.Printf("Log path: %s", logPath)
}

// HasEnvDataDir reports whether the data directory comes from the environment,
// in which case settings.toml is neither read nor created.
func HasEnvDataDir() bool {
	return os.Getenv(EnvDataDir) != ""
}

func defaultConfig() *Config {
	sys := DefaultSystemConfig()
	user := DefaultUserConfig()
	return &Config{
		DataDirectory:    sys.DataDirectory,
		APIURL:           user.Backend.URL,
		TimeoutSeconds:   user.Backend.TimeoutSeconds,
		RevealEnabled:    user.Reveal.Enabled,
		RevealDurationMs: user.Reveal.DurationMs,
		RevealStaggerMs:  user.Reveal.StaggerMs,
		MaxFiles:         user.Files.MaxFiles,
		SecurityMethod:   SecurityPlainText,
	}
}

// Load resolves the configuration: settings.toml picks the data directory,
// <data>/config.toml holds the user settings and DOCCHAT_* variables win over both.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if !HasEnvDataDir() {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory
		method, err := ParseSecurityMethod(systemCfg.Security.Method)
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.SecurityMethod = method
		cfg.SSHKeyPath = ExpandPath(systemCfg.Security.SSHKeyPath)
	}
	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)

	// The environment beats the file for the backend too
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Credentials opens the token store configured in settings.toml
func (c *Config) Credentials(passphrase string) (*CredentialStore, error) {
	store := NewCredentialStore(c.SecurityMethod, c.SSHKeyPath)
	if passphrase != "" {
		store.SetPassphrase(passphrase)
	}
	if err := store.Load(c.DataDir()); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	return store, nil
}

// ResolveToken fills APIToken from the credential store unless DOCCHAT_API_TOKEN
// already set it
func (c *Config) ResolveToken(store *CredentialStore) {
	if c.APIToken != "" || store == nil {
		return
	}
	c.APIToken = store.Token(c.APIURL)
}
