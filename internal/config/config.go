package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix    = "TWEAKCTL"
	DefaultLogLevel     = LogLevelWarning
	DefaultWorkers      = 1
	DefaultQueueSize    = 16
	DefaultProbeLimit   = 4
	DefaultBatchSize    = 1
	DefaultBatchTimeout = 5

	configName = "tweakctl"
	configType = "toml"
)

type Config struct {
	Debug    bool          `mapstructure:"debug"`
	Verbose  bool          `mapstructure:"verbose"`
	LogLevel LogLevel      `mapstructure:"log_level"`
	Simulate bool          `mapstructure:"simulate"`
	MSR      MSRConfig     `mapstructure:"msr"`
	Engine   EngineConfig  `mapstructure:"engine"`
	Journal  JournalConfig `mapstructure:"journal"`
}

type MSRConfig struct {
	Backend MSRBackend `mapstructure:"backend"`
	// Driver is the path of the WinRing0 library on Windows
	Driver string `mapstructure:"driver"`
}

type EngineConfig struct {
	Workers    int `mapstructure:"workers"`
	QueueSize  int `mapstructure:"queue_size"`
	ProbeLimit int `mapstructure:"probe_limit"`
}

type JournalConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Path         string `mapstructure:"path"`
	BatchSize    int    `mapstructure:"batch_size"`
	BatchTimeout int    `mapstructure:"batch_timeout"`
}

// Load reads configuration from defaults, the config file, the environment
// and flags, in increasing order of precedence.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.configPath == "" {
		o.configPath = os.Getenv(o.envPrefix + "_CONFIG")
	}

	v.SetConfigType(configType)
	if o.configPath != "" {
		v.SetConfigFile(o.configPath)
	} else {
		v.SetConfigName(configName)
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err).
				WithMessage("Failed to read config file")
		}
	}

	if o.flags != nil {
		if err := bindFlags(v, o.flags); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if cfg.Debug {
		cfg.LogLevel = LogLevelDebug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if !c.MSR.Backend.IsValid() {
		return errFactory.WithData(errors.ErrInvalidConfig, "unknown msr.backend "+string(c.MSR.Backend))
	}
	if c.Engine.Workers < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, "engine.workers must be at least 1")
	}
	if c.Engine.QueueSize < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, "engine.queue_size must be at least 1")
	}
	if c.Engine.ProbeLimit < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, "engine.probe_limit must be at least 1")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "journal.path")
	}
	if c.Journal.BatchSize < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, "journal.batch_size must be at least 1")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", string(DefaultLogLevel))
	v.SetDefault("simulate", false)
	v.SetDefault("msr.backend", string(MSRBackendAuto))
	v.SetDefault("msr.driver", "WinRing0x64.dll")
	v.SetDefault("engine.workers", DefaultWorkers)
	v.SetDefault("engine.queue_size", DefaultQueueSize)
	v.SetDefault("engine.probe_limit", DefaultProbeLimit)
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", filepath.Join(DataDir(), "journal.db"))
	v.SetDefault("journal.batch_size", DefaultBatchSize)
	v.SetDefault("journal.batch_timeout", DefaultBatchTimeout)
}

// bindFlags copies flags the user actually set, so unset flag defaults never
// shadow file values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.Visit(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		for _, section := range []string{"msr", "engine", "journal"} {
			if strings.HasPrefix(key, section+"_") {
				key = section + "." + strings.TrimPrefix(key, section+"_")
				break
			}
		}
		bindErr = v.BindPFlag(key, f)
	})

	return bindErr
}

func searchPaths() []string {
	paths := []string{DataDir()}
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/tweakctl", "/etc")
	}

	return append(paths, ".")
}

// DataDir returns the directory holding the config file and journal
func DataDir() string {
	if runtime.GOOS == "windows" {
		if programData := os.Getenv("ProgramData"); programData != "" {
			return filepath.Join(programData, "tweakctl")
		}
	}

	return "/var/lib/tweakctl"
}
