// Package config loads user-level settings: identity, logging, compression
// and signing key. Values come from defaults, a TOML file, GRIT_* environment
// variables and bound command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyUserName    = "user.name"
	KeyUserEmail   = "user.email"
	KeyCompression = "core.compression"
	KeyLogLevel    = "log.level"
	KeySigningKey  = "signing.key"
)

// Settings is the resolved user configuration.
type Settings struct {
	UserName    string
	UserEmail   string
	Compression int
	LogLevel    slog.Level
	SigningKey  string
	File        string // config file used, empty if none was found
}

// Loader wraps a private viper instance so tests can build independent
// configurations.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader with defaults applied and GRIT_* environment
// overrides enabled.
func NewLoader() *Loader {
	v := viper.New()
	v.SetDefault(KeyUserName, "")
	v.SetDefault(KeyUserEmail, "")
	v.SetDefault(KeyCompression, -1)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeySigningKey, "")

	v.SetEnvPrefix("GRIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag makes a command-line flag override key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads cfgFile, or when empty the first config.toml found in
// $XDG_CONFIG_HOME/grit or ~/.config/grit. A missing default file is not
// an error.
func (l *Loader) Load(cfgFile string) (*Settings, error) {
	if cfgFile != "" {
		l.v.SetConfigFile(cfgFile)
	} else {
		for _, dir := range defaultConfigDirs() {
			l.v.AddConfigPath(dir)
		}
		l.v.SetConfigName("config")
		l.v.SetConfigType("toml")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	level, err := parseLevel(l.v.GetString(KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	compression := l.v.GetInt(KeyCompression)
	if compression < -2 || compression > 9 {
		return nil, fmt.Errorf("load config: %s must be between -2 and 9, got %d", KeyCompression, compression)
	}

	return &Settings{
		UserName:    strings.TrimSpace(l.v.GetString(KeyUserName)),
		UserEmail:   strings.TrimSpace(l.v.GetString(KeyUserEmail)),
		Compression: compression,
		LogLevel:    level,
		SigningKey:  l.v.GetString(KeySigningKey),
		File:        l.v.ConfigFileUsed(),
	}, nil
}

func defaultConfigDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "grit"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "grit"))
	}
	return dirs
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	return level, nil
}

// Identity formats "Name <email>" for commit and tag lines. Missing
// values fall back to the login name and "unknown".
func (s *Settings) Identity() string {
	name := s.UserName
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "unknown"
	}
	email := s.UserEmail
	if email == "" {
		email = "unknown"
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
