// Package config loads djurls settings from djurls.yaml and DJURLS_ environment
// variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/muremwa/djurls/pkg/extras"
	"github.com/muremwa/djurls/pkg/project"
)

// FileName is the config file name without extension.
const FileName = "djurls"

// EnvPrefix prefixes environment overrides, e.g. DJURLS_ADMIN_URLS=false.
const EnvPrefix = "DJURLS"

// ExpandApps values control how app nodes start in tree views.
const (
	ExpandNormal    = "normal"
	ExpandExpanded  = "expanded"
	ExpandCollapsed = "collapsed"
)

// Settings holds every djurls option.
type Settings struct {
	AdminURLs          bool     `mapstructure:"admin_urls" json:"adminUrls"`
	AutoLoadModels     bool     `mapstructure:"auto_load_models" json:"autoLoadModels"`
	BuiltInAuth        bool     `mapstructure:"built_in_auth" json:"builtInAuth"`
	RegisteredAppsOnly bool     `mapstructure:"registered_apps_only" json:"registeredAppsOnly"`
	ExpandApps         string   `mapstructure:"expand_apps" json:"expandApps"`
	Exclude            []string `mapstructure:"exclude" json:"exclude"`
	RespectGitignore   bool     `mapstructure:"respect_gitignore" json:"respectGitignore"`
	Workers            int      `mapstructure:"workers" json:"workers"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" json:"file,omitempty"`
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		AdminURLs:        true,
		AutoLoadModels:   true,
		BuiltInAuth:      false,
		ExpandApps:       ExpandNormal,
		RespectGitignore: true,
	}
}

// Validate reports the first invalid setting.
func (s Settings) Validate() error {
	switch s.ExpandApps {
	case ExpandNormal, ExpandExpanded, ExpandCollapsed:
	default:
		return fmt.Errorf("invalid expand_apps %q: must be one of normal, expanded, collapsed", s.ExpandApps)
	}
	if s.Workers < 0 {
		return fmt.Errorf("invalid workers %d: must not be negative", s.Workers)
	}
	return nil
}

// Discovery returns the project discovery options for these settings.
func (s Settings) Discovery() project.Options {
	return project.Options{
		Exclude:          s.Exclude,
		RespectGitignore: s.RespectGitignore,
	}
}

// Extras returns the supplementary catalogue options for these settings.
func (s Settings) Extras() extras.Options {
	return extras.Options{
		AdminURLs:          s.AdminURLs,
		BuiltInAuth:        s.BuiltInAuth,
		AutoLoadModels:     s.AutoLoadModels,
		RegisteredAppsOnly: s.RegisteredAppsOnly,
	}
}

// Load reads settings for the project at root. When explicit is set that file
// is read and must exist; otherwise djurls.{yaml,yml,json,toml} is looked up
// in root and then root/.djurls. A missing file yields the defaults.
func Load(root, explicit string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(root)
		v.AddConfigPath(filepath.Join(root, extras.UserDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	s.File = v.ConfigFileUsed()

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("admin_urls", d.AdminURLs)
	v.SetDefault("auto_load_models", d.AutoLoadModels)
	v.SetDefault("built_in_auth", d.BuiltInAuth)
	v.SetDefault("registered_apps_only", d.RegisteredAppsOnly)
	v.SetDefault("expand_apps", d.ExpandApps)
	v.SetDefault("exclude", []string{})
	v.SetDefault("respect_gitignore", d.RespectGitignore)
	v.SetDefault("workers", d.Workers)
}
