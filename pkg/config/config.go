package config

import (
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Compositing modes. Fixed renders the overlay at a fixed canvas size; crop
// derives the canvas from the annotation geometry's bounding box.
const (
	ModeFixed = "fixed"
	ModeCrop  = "crop"
)

type Config struct {
	DatabasePath string `koanf:"database_path"`
	InputDir     string `koanf:"input_dir"`
	OutputDir    string `koanf:"output_dir"`

	Mode          string  `koanf:"mode" default:"fixed" validate:"oneof=fixed crop"`
	CanvasWidth   int     `koanf:"canvas_width" default:"1264" validate:"min=1"`
	CanvasHeight  int     `koanf:"canvas_height" default:"1680" validate:"min=1"`
	PaddingMargin float64 `koanf:"padding_margin" default:"50" validate:"min=0"`
	JPEGQuality   int     `koanf:"jpeg_quality" default:"85" validate:"min=1,max=100"`

	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5" validate:"min=1"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"500ms"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"3" validate:"min=0"`
}

const envPrefix = "MARKUP_"

// New builds a Config from defaults, an optional YAML file, and MARKUP_*
// environment variables, in that order of precedence (lowest first). Paths are
// expected to be filled in afterwards by the host (e.g. from CLI flags) before
// Validate is called.
func New(configFilePath string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, "load config file")
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
