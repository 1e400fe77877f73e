package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jask/carton/internal/provider"
)

// Config holds application configuration.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Create   CreateConfig   `mapstructure:"create"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
	Session  SessionConfig  `mapstructure:"session"`

	// Runtime holds command-line switches that are never persisted.
	Runtime Runtime `mapstructure:"-"`
}

// ProviderConfig selects the cloud account.
type ProviderConfig struct {
	Auth     string `mapstructure:"auth"`
	Token    string `mapstructure:"token"`
	TokenEnv string `mapstructure:"token_env"`
}

// CreateConfig holds defaults for new servers.
type CreateConfig struct {
	Image       string   `mapstructure:"image"`
	Location    string   `mapstructure:"location"`
	ServerType  string   `mapstructure:"server_type"`
	ServerTypes []string `mapstructure:"server_types"`
	EnableIPv4  bool     `mapstructure:"enable_ipv4"`
}

// UIConfig holds loop timing.
type UIConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	NoticeTicks  int           `mapstructure:"notice_ticks"`
}

// LogConfig holds log file settings. The terminal belongs to the TUI, so
// logs always go to a file.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// SessionConfig holds the in-memory task journal settings.
type SessionConfig struct {
	JournalDSN  string `mapstructure:"journal_dsn"`
	JournalKeep int    `mapstructure:"journal_keep"`
}

// Runtime holds one-shot switches.
type Runtime struct {
	Mock       bool
	Verbose    bool
	StoreToken bool
	SaveConfig bool
	Version    bool
	// ConfigPath is the file Load read from, or would have read from.
	ConfigPath string
}

// DefaultServerTypes are offered as suggestions when the create form gets an
// unknown type.
var DefaultServerTypes = []string{"cx22", "cx32", "cx42", "cx52", "cpx11", "cpx21", "cpx31", "cax11", "cax21", "cax31", "ccx13"}

// Flags returns the command-line flag set understood by Load.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("carton", pflag.ContinueOnError)
	flags.StringP("auth", "a", "", "cloud platform: google, amazon or hetzner")
	flags.StringP("token", "t", "", "API token (overrides env and stored token)")
	flags.String("config", "", "path to config.toml")
	flags.Bool("mock", false, "use an in-memory demo provider")
	flags.BoolP("verbose", "v", false, "debug logging")
	flags.Bool("store-token", false, "save the resolved token in the local secret store")
	flags.Bool("save-config", false, "write the effective settings (without token) to the config file")
	flags.Bool("version", false, "print version and exit")
	return flags
}

// Load reads configuration from .env, file, env and flags. Env var overrides
// use prefix CARTON_. flags may be nil.
func Load(flags *pflag.FlagSet) (Config, error) {
	// .env never overrides variables already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	// default values
	v.SetDefault("provider.auth", string(provider.Hetzner))
	v.SetDefault("provider.token", "")
	v.SetDefault("provider.token_env", "HCLOUD_TOKEN")
	v.SetDefault("create.image", "fedora-41")
	v.SetDefault("create.location", "fsn1")
	v.SetDefault("create.server_type", "cx22")
	v.SetDefault("create.server_types", DefaultServerTypes)
	v.SetDefault("create.enable_ipv4", false)
	v.SetDefault("ui.tick_interval", 100*time.Millisecond)
	v.SetDefault("ui.notice_ticks", 30)
	v.SetDefault("log.file", defaultLogFile())
	v.SetDefault("log.level", "info")
	v.SetDefault("session.journal_dsn", "file:carton-session?mode=memory&cache=shared")
	v.SetDefault("session.journal_keep", 500)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("CARTON_CONFIG")
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed {
			cfgPath = f.Value.String()
		}
	}
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "carton"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CARTON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if flags != nil {
		for key, name := range map[string]string{"provider.auth": "auth", "provider.token": "token"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	// config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if flags != nil {
		c.Runtime = Runtime{
			Mock:       boolFlag(flags, "mock"),
			Verbose:    boolFlag(flags, "verbose"),
			StoreToken: boolFlag(flags, "store-token"),
			SaveConfig: boolFlag(flags, "save-config"),
			Version:    boolFlag(flags, "version"),
		}
	}
	c.Runtime.ConfigPath = cfgPath
	if c.Runtime.ConfigPath == "" {
		c.Runtime.ConfigPath = v.ConfigFileUsed()
	}
	if c.Runtime.ConfigPath == "" {
		c.Runtime.ConfigPath = Path()
	}
	return c, nil
}

// Validate rejects settings the app cannot run with.
func (c Config) Validate() error {
	var errs []error
	if _, err := provider.ParsePlatform(c.Provider.Auth); err != nil {
		errs = append(errs, err)
	}
	if c.UI.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("ui.tick_interval must be positive, got %s", c.UI.TickInterval))
	}
	if c.UI.NoticeTicks < 0 {
		errs = append(errs, fmt.Errorf("ui.notice_ticks must not be negative"))
	}
	if strings.TrimSpace(c.Create.Image) == "" {
		errs = append(errs, fmt.Errorf("create.image is required"))
	}
	if c.Session.JournalKeep < 0 {
		errs = append(errs, fmt.Errorf("session.journal_keep must not be negative"))
	}
	return errors.Join(errs...)
}

// Platform returns the parsed auth platform.
func (c Config) Platform() provider.Platform {
	p, _ := provider.ParsePlatform(c.Provider.Auth)
	return p
}

// Level maps log.level (or --verbose) to a slog level name.
func (c Config) Level() string {
	if c.Runtime.Verbose {
		return "debug"
	}
	return strings.ToLower(strings.TrimSpace(c.Log.Level))
}

// Path is where Save writes the config file.
func Path() string {
	if p := os.Getenv("CARTON_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "carton", "config.toml")
}

// Save writes the provided config to path, creating the directory if needed.
// The token is never written; prefer the env var or the secret store.
func Save(cfg Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("provider.auth", cfg.Provider.Auth)
	v.Set("provider.token_env", cfg.Provider.TokenEnv)
	v.Set("create.image", cfg.Create.Image)
	v.Set("create.location", cfg.Create.Location)
	v.Set("create.server_type", cfg.Create.ServerType)
	v.Set("create.server_types", cfg.Create.ServerTypes)
	v.Set("create.enable_ipv4", cfg.Create.EnableIPv4)
	v.Set("ui.tick_interval", cfg.UI.TickInterval.String())
	v.Set("ui.notice_ticks", cfg.UI.NoticeTicks)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.level", cfg.Log.Level)
	v.Set("session.journal_keep", cfg.Session.JournalKeep)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "carton", "carton.log")
}

func boolFlag(flags *pflag.FlagSet, name string) bool {
	b, err := flags.GetBool(name)
	return err == nil && b
}
