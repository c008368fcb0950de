// Package config implements Hertta's persisted settings and ambient
// logging setup: a viper-backed Load/Validate(mode) shape and zap
// InitLogger, reading the TOML settings file described in spec §6
// (expanded in spec §6.2).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LocationSettings is the optional default weather/solver location.
type LocationSettings struct {
	Country string `toml:"country" mapstructure:"country"`
	Place   string `toml:"place" mapstructure:"place"`
}

// LogConfig configures the zap global logger.
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
}

// ServerConfig configures the serve subcommand's HTTP surface.
type ServerConfig struct {
	Port int `toml:"port" mapstructure:"port"`
}

// Settings is Hertta's persisted configuration, read once at startup, per
// spec §6 "Settings". Log and Server add logging and HTTP-surface options
// on top of the solver, helper and location fields.
type Settings struct {
	SolverExec           string            `toml:"solver_exec" mapstructure:"solver_exec"`
	SolverProject        string            `toml:"solver_project" mapstructure:"solver_project"`
	SolverRunnerProject  string            `toml:"solver_runner_project" mapstructure:"solver_runner_project"`
	SolverRunnerScript   string            `toml:"solver_runner_script" mapstructure:"solver_runner_script"`
	PythonExec           string            `toml:"python_exec" mapstructure:"python_exec"`
	WeatherFetcherScript string            `toml:"weather_fetcher_script" mapstructure:"weather_fetcher_script"`
	PriceFetcherScript   string            `toml:"price_fetcher_script" mapstructure:"price_fetcher_script"`
	EntsoeAPIToken       *string           `toml:"entsoe_api_token,omitempty" mapstructure:"entsoe_api_token"`
	PredicerPort         uint16            `toml:"predicer_port" mapstructure:"predicer_port"`
	Location             *LocationSettings `toml:"location,omitempty" mapstructure:"location"`
	Log                  LogConfig         `toml:"log" mapstructure:"log"`
	Server               ServerConfig      `toml:"server" mapstructure:"server"`
}

// Validate checks required fields for the given run mode. Supported modes:
// "optimize", "serve", "print-schema", "write-settings".
func (s *Settings) Validate(mode string) error {
	var errs []string

	switch mode {
	case "optimize", "serve":
		if s.SolverExec == "" {
			errs = append(errs, "solver_exec is required")
		}
		if s.SolverProject == "" {
			errs = append(errs, "solver_project is required")
		}
		if s.SolverRunnerScript == "" {
			errs = append(errs, "solver_runner_script is required")
		}
		if s.PythonExec == "" {
			errs = append(errs, "python_exec is required")
		}
		if s.WeatherFetcherScript == "" {
			errs = append(errs, "weather_fetcher_script is required")
		}
		if s.PriceFetcherScript == "" {
			errs = append(errs, "price_fetcher_script is required")
		}
		if mode == "serve" && s.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "print-schema", "write-settings":
		// Single-task modes, per spec §6 "Exit codes"; no field is load-bearing.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: validation failed: %s", strings.Join(errs, "; ")))
	}
	return nil
}

// DefaultPath returns the fixed settings-file location, grounded on
// settings.rs's make_settings_file_path using a platform preference
// directory. Go has no `directories` crate equivalent in the corpus, so
// os.UserConfigDir is used instead -- named, not grounded, see DESIGN.md.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", eris.Wrap(err, "config: resolve user config dir")
	}
	return filepath.Join(dir, "hertta", "settings.toml"), nil
}

// Load reads settings from path (TOML) with HERTTA_-prefixed environment
// overrides, per spec §2.1.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("HERTTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("predicer_port", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, eris.Wrap(err, "config: read settings file")
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal settings")
	}
	return &s, nil
}

// Write persists s as TOML at path, creating parent directories as needed,
// for the write-settings subcommand.
func Write(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "config: create settings directory")
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "config: marshal settings")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return eris.Wrap(err, "config: write settings file")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
