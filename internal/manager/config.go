package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/hoppxi/luxflex/internal/dimmer"
	"github.com/hoppxi/luxflex/internal/schedule"
)

const (
	AppName        = "luxflex"
	ConfigFileName = "luxflex.yaml"

	DefaultTick = 50 * time.Millisecond
	DefaultStep = 5
)

type StoreSettings struct {
	Type string `mapstructure:"type" yaml:"type"`
	Path string `mapstructure:"path" yaml:"path"`
}

type MQTTSettings struct {
	Broker   string `mapstructure:"broker" yaml:"broker"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Name     string `mapstructure:"name" yaml:"name"`
}

// Settings is the decoded luxflex.yaml.
type Settings struct {
	Backend     string           `mapstructure:"backend" yaml:"backend"`
	Device      string           `mapstructure:"device" yaml:"device"`
	SysfsRoot   string           `mapstructure:"sysfs_root" yaml:"sysfs_root"`
	Overlay     string           `mapstructure:"overlay" yaml:"overlay"`
	OverlayVar  string           `mapstructure:"overlay_var" yaml:"overlay_var"`
	Floor       int              `mapstructure:"floor" yaml:"floor"`
	Curve       string           `mapstructure:"curve" yaml:"curve"`
	Tick        time.Duration    `mapstructure:"tick" yaml:"tick"`
	Step        int              `mapstructure:"step" yaml:"step"`
	Store       StoreSettings    `mapstructure:"store" yaml:"store"`
	Tray        bool             `mapstructure:"tray" yaml:"tray"`
	LogLevel    string           `mapstructure:"log_level" yaml:"log_level"`
	MetricsAddr string           `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	Schedule    []schedule.Entry `mapstructure:"schedule" yaml:"schedule"`
	MQTT        MQTTSettings     `mapstructure:"mqtt" yaml:"mqtt"`
}

// ConfigDir is where luxflex.yaml and the state file live by default.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName)
}

func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", "logind")
	v.SetDefault("device", "")
	v.SetDefault("sysfs_root", "/sys/class/backlight")
	v.SetDefault("overlay", "eww")
	v.SetDefault("overlay_var", "DIMMER_ALPHA")
	v.SetDefault("floor", dimmer.DefaultFloor)
	v.SetDefault("curve", "")
	v.SetDefault("tick", DefaultTick)
	v.SetDefault("step", DefaultStep)
	v.SetDefault("store.type", "yaml")
	v.SetDefault("store.path", "")
	v.SetDefault("tray", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.name", AppName)
}

// ConfigManager reads luxflex.yaml through viper and watches it for edits.
type ConfigManager struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// NewConfigManager uses path, or DefaultConfigPath when path is empty.
func NewConfigManager(path string) *ConfigManager {
	if path == "" {
		path = DefaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LUXFLEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &ConfigManager{v: v, path: path}
}

func (c *ConfigManager) Path() string {
	return c.path
}

// Load reads the file if it exists and decodes the settings. A missing file
// is not an error; defaults and environment still apply.
func (c *ConfigManager) Load() (Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return c.decode()
}

func (c *ConfigManager) decode() (Settings, error) {
	var s Settings
	if err := c.v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Watch calls onChange with the re-decoded settings whenever the file changes.
func (c *ConfigManager) Watch(onChange func(Settings, error)) {
	c.v.OnConfigChange(func(e fsnotify.Event) {
		c.mu.Lock()
		s, err := c.decode()
		c.mu.Unlock()
		onChange(s, err)
	})
	c.v.WatchConfig()
}

// Validate rejects settings the daemon cannot run with.
func (s Settings) Validate() error {
	if s.Floor < dimmer.MinBrightness || s.Floor > dimmer.MaxBrightness {
		return fmt.Errorf("floor must be within 0..100, got %d", s.Floor)
	}
	if s.Tick < 0 {
		return fmt.Errorf("tick must not be negative, got %s", s.Tick)
	}
	if s.Step <= 0 || s.Step > dimmer.MaxBrightness {
		return fmt.Errorf("step must be within 1..100, got %d", s.Step)
	}
	if _, err := s.BuildCurve(); err != nil {
		return err
	}
	for i, e := range s.Schedule {
		if _, _, err := schedule.ParseClock(e.At); err != nil {
			return fmt.Errorf("schedule[%d]: %w", i, err)
		}
	}
	return nil
}

// BuildCurve returns the overlay curve the settings describe.
func (s Settings) BuildCurve() (dimmer.Curve, error) {
	c, err := dimmer.ParseCurve(s.Curve, s.Floor)
	if err != nil {
		return nil, fmt.Errorf("invalid curve: %w", err)
	}
	return c, nil
}

// StorePath resolves the state file location, defaulting next to the config.
func (s Settings) StorePath() string {
	if s.Store.Path != "" {
		return s.Store.Path
	}
	switch s.Store.Type {
	case "sqlite":
		return filepath.Join(ConfigDir(), "state.db")
	default:
		return filepath.Join(ConfigDir(), "state.yaml")
	}
}
