package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v3"

	tickvault "github.com/tickvault/go-tickvault-client/client"
)

const (
	envPrefix      = "TICKVAULT_"
	defaultTimeout = 30 * time.Second
)

// profile holds the settings an invocation can pick up outside of flags.
// Resolution order, lowest to highest: built-in defaults, the profile file,
// TICKVAULT_* environment variables, command line flags.
type profile struct {
	URL      string        `mapstructure:"url"`
	Username string        `mapstructure:"username"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func defaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tickvault", "config.yaml")
}

// loadProfile reads the YAML profile at path and overlays TICKVAULT_*
// environment variables on top. A missing file is an error only when
// --config named it explicitly.
func loadProfile(path string) (profile, error) {
	v := viper.New()
	v.SetDefault("timeout", defaultTimeout)

	explicit := path != ""
	if !explicit {
		path = defaultProfilePath()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return profile{}, fmt.Errorf("read profile %s: %w", path, err)
			}
		}
	}

	for _, envStr := range os.Environ() {
		key, value, ok := strings.Cut(envStr, "=")
		if !ok || !strings.HasPrefix(key, envPrefix) {
			continue
		}
		// TICKVAULT_API_KEY -> api_key
		propKey := strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if propKey == "" {
			continue
		}
		v.Set(propKey, value)
	}

	var p profile
	if err := v.Unmarshal(&p); err != nil {
		return profile{}, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// resolveProfile merges command line flags over the loaded profile.
func resolveProfile(cmd *cli.Command) (profile, error) {
	p, err := loadProfile(cmd.String(configFlag.Name))
	if err != nil {
		return profile{}, err
	}
	if s := cmd.String(urlFlag.Name); s != "" {
		p.URL = s
	}
	if s := cmd.String(usernameFlag.Name); s != "" {
		p.Username = s
	}
	if s := cmd.String(apiKeyFlag.Name); s != "" {
		p.APIKey = s
	}
	if d := cmd.Duration(timeoutFlag.Name); d > 0 {
		p.Timeout = d
	}
	return p, nil
}

// clientFromCommand builds the API client for an invocation.
func clientFromCommand(cmd *cli.Command) (*tickvault.Client, error) {
	p, err := resolveProfile(cmd)
	if err != nil {
		return nil, err
	}
	if p.URL == "" {
		return nil, fmt.Errorf("no service URL: pass --url, set TICKVAULT_URL, or add url to the profile")
	}

	opts := []tickvault.ClientOption{
		tickvault.WithBaseURL(p.URL),
		tickvault.WithTimeout(p.Timeout),
		tickvault.WithCompression(),
		tickvault.WithRequestIDs(),
	}
	if p.Username != "" || p.APIKey != "" {
		opts = append(opts, tickvault.WithAuth(p.Username, p.APIKey))
	}
	if cmd.Bool(verboseFlag.Name) {
		opts = append(opts, tickvault.WithLogger(newLogger(os.Stderr)))
	}
	return tickvault.New(opts...)
}
