// Package config loads absc settings from an optional YAML file, ABSC_*
// environment variables and built-in defaults, in increasing order of
// precedence: defaults < file < environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the complete absc configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"     yaml:"log"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Compile CompileConfig `mapstructure:"compile" yaml:"compile"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// OutputConfig controls how command results are printed.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
	Indent bool   `mapstructure:"indent" yaml:"indent"`
}

// ArchiveConfig locates the compiled-deal archive.
type ArchiveConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// CompileConfig tunes compilation of multi-deal sources.
type CompileConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" validate:"min=1,max=64"`
}

// Load reads the configuration. When path is empty, absc.yaml is searched
// in the working directory and then in ~/.absc; a missing file is not an
// error. An explicit path must exist.
//
// Environment variables override file values.
// Format: ABSC_<SECTION>_<KEY>, e.g. ABSC_LOG_LEVEL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("absc")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(homeDir(), ".absc"))
	}

	v.SetEnvPrefix("ABSC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Output:  OutputConfig{Format: "text", Indent: true},
		Archive: ArchiveConfig{Path: defaultArchivePath()},
		Compile: CompileConfig{Workers: 4},
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: %q fails %s", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.indent", d.Output.Indent)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("compile.workers", d.Compile.Workers)
}

func defaultArchivePath() string {
	return filepath.Join(homeDir(), ".absc", "archive.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
