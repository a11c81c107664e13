package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/sadopc/classcal/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. CLASSCAL_DATA_FILE.
const EnvPrefix = "CLASSCAL"

type Config struct {
	// DataFile is the JSON document holding all semesters and settings.
	DataFile string `mapstructure:"data_file" validate:"required"`
	// OutputDir is where generated assignments go when no path is given.
	OutputDir string `mapstructure:"output_dir"`
	// ExportDir receives CSV/JSON exports. Empty means the home directory.
	ExportDir string    `mapstructure:"export_dir"`
	Log       LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	// File receives JSON log lines. Empty disables logging, since the
	// terminal belongs to the UI.
	File string `mapstructure:"file"`
}

// Load reads configuration with this precedence: environment (including a
// .env file in the working directory) > config file > defaults. An empty
// path searches for classcal.yaml in . and the user config directory.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetDefault("data_file", store.DefaultFileName)
	v.SetDefault("output_dir", ".")
	v.SetDefault("export_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("classcal")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "classcal"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// loadDotEnv loads path into the environment if it exists. Variables that
// are already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "stat %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}
