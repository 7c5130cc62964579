package config

import "github.com/spf13/pflag"

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
	envPrefix  string
	flags      *pflag.FlagSet
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "TWEAKCTL"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) error {
		o.envPrefix = prefix
		return nil
	}
}

// WithFlags binds command-line flags; flags that were set override file and
// environment values. Flag names map to keys with '-' replaced by '.'
// for the nested sections, e.g. --msr-backend sets msr.backend.
func WithFlags(flags *pflag.FlagSet) Option {
	return func(o *options) error {
		o.flags = flags
		return nil
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// MSRBackend selects the hardware access channel implementation
type MSRBackend string

const (
	MSRBackendAuto     MSRBackend = "auto"
	MSRBackendWinRing0 MSRBackend = "winring0"
	MSRBackendDevMSR   MSRBackend = "devmsr"
	MSRBackendMemory   MSRBackend = "memory"
)

// IsValid returns whether the backend name is known
func (b MSRBackend) IsValid() bool {
	switch b {
	case MSRBackendAuto, MSRBackendWinRing0, MSRBackendDevMSR, MSRBackendMemory:
		return true
	default:
		return false
	}
}
