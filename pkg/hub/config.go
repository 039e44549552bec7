package hub

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/clara-assistant/modelpull/pkg/configutils"
	"github.com/clara-assistant/modelpull/pkg/logging"
)

// Config represents the configuration for the acquisition client.
type Config struct {
	Logger logging.Interface

	Endpoint       string        `mapstructure:"endpoint" validate:"required"`
	Token          string        `mapstructure:"hf_token"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ChunkSize      int64         `mapstructure:"chunk_size" validate:"gt=0"`

	// ModelDir is the default directory acquisitions land in; together with
	// CustomModelDirs it forms the allow-list for local deletions.
	ModelDir        string   `mapstructure:"model_dir" validate:"required"`
	CustomModelDirs []string `mapstructure:"custom_model_dirs"`

	// ReloadURL, when set, is signalled after the primary artifact of a set
	// completes so the inference service picks up the new files.
	ReloadURL string `mapstructure:"reload_url"`

	DisableProgressBars bool `mapstructure:"disable_progress_bars"`
	EnableDetailedLogs  bool `mapstructure:"enable_detailed_logs"`
}

func defaultConfig() *Config {
	return &Config{
		Endpoint:       DefaultEndpoint,
		Token:          GetHfToken(),
		UserAgent:      DefaultUserAgent,
		RequestTimeout: DefaultRequestTimeout,
		ChunkSize:      DefaultChunkSize,
		ModelDir:       DefaultModelDir(),
	}
}

// Option represents a configuration option function.
type Option func(*Config) error

// Apply applies the given options to the configuration.
func (c *Config) Apply(opts ...Option) error {
	for _, o := range opts {
		if o == nil {
			continue
		}

		if err := o(c); err != nil {
			return err
		}
	}
	return nil
}

// NewConfig builds and returns a new configuration from the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// WithLogger specifies the logger.
func WithLogger(logger logging.Interface) Option {
	return func(c *Config) error {
		if logger == nil {
			return errors.New("invalid logger nil")
		}

		c.Logger = logger
		return nil
	}
}

// WithEndpoint specifies the hub endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Config) error {
		if endpoint == "" {
			return errors.New("endpoint cannot be empty")
		}
		c.Endpoint = endpoint
		return nil
	}
}

// WithToken specifies the hub token.
func WithToken(token string) Option {
	return func(c *Config) error {
		c.Token = token
		return nil
	}
}

// WithUserAgent specifies the user agent.
func WithUserAgent(userAgent string) Option {
	return func(c *Config) error {
		c.UserAgent = userAgent
		return nil
	}
}

// WithModelDir specifies the default model directory.
func WithModelDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return errors.New("model directory cannot be empty")
		}
		c.ModelDir = dir
		return nil
	}
}

// WithCustomModelDirs specifies additional allow-listed model directories.
func WithCustomModelDirs(dirs ...string) Option {
	return func(c *Config) error {
		c.CustomModelDirs = append(c.CustomModelDirs, dirs...)
		return nil
	}
}

// WithReloadURL specifies the collaborator reload endpoint.
func WithReloadURL(url string) Option {
	return func(c *Config) error {
		c.ReloadURL = url
		return nil
	}
}

// WithChunkSize specifies the streaming chunk size.
func WithChunkSize(size int64) Option {
	return func(c *Config) error {
		if size <= 0 {
			return errors.New("chunk size must be positive")
		}
		c.ChunkSize = size
		return nil
	}
}

// WithRequestTimeout specifies the metadata request timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout > 0 {
			c.RequestTimeout = timeout
		}
		return nil
	}
}

// WithProgressBars enables or disables progress bars.
func WithProgressBars(enabled bool) Option {
	return func(c *Config) error {
		c.DisableProgressBars = !enabled
		return nil
	}
}

// WithDetailedLogs enables or disables detailed logging.
func WithDetailedLogs(enabled bool) Option {
	return func(c *Config) error {
		c.EnableDetailedLogs = enabled
		return nil
	}
}

// WithViper attempts to resolve the configuration using Viper.
func WithViper(v *viper.Viper) Option {
	return func(c *Config) error {
		// Initialize with defaults first
		*c = *defaultConfig()

		if err := configutils.BindEnvsRecursive(v, c, ""); err != nil {
			return fmt.Errorf("error occurred when binding envs: %+v", err)
		}

		if err := v.Unmarshal(c); err != nil {
			return fmt.Errorf("error occurred when unmarshalling config: %+v", err)
		}

		if v.IsSet("hf_token") {
			c.Token = v.GetString("hf_token")
		}
		if v.IsSet("endpoint") {
			c.Endpoint = v.GetString("endpoint")
		}
		if v.IsSet("model_dir") {
			c.ModelDir = v.GetString("model_dir")
		}

		return nil
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}

	return nil
}

// AllowedDirs returns the allow-listed model directories: the default
// directory plus any configured custom directories.
func (c *Config) AllowedDirs() []string {
	dirs := make([]string, 0, len(c.CustomModelDirs)+1)
	dirs = append(dirs, c.ModelDir)
	dirs = append(dirs, c.CustomModelDirs...)
	return dirs
}
