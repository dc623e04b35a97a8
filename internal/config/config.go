package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/interopctl/internal/interop"
)

// ClientConfigFile is the TOML surface for one interop client.
type ClientConfigFile struct {
	ServerURL    string `toml:"server_url"`
	ModuleName   string `toml:"module_name"`
	Language     string `toml:"language"`
	Port         int    `toml:"port"`
	AutoRegister *bool  `toml:"auto_register"`

	CallTimeout    string `toml:"call_timeout"`
	ReconnectDelay string `toml:"reconnect_delay"`
}

// LoadClientConfig reads path and layers it over interop.DefaultConfig.
func LoadClientConfig(path string) (interop.Config, error) {
	var raw ClientConfigFile
	if err := loadToml(path, &raw); err != nil {
		return interop.Config{}, err
	}
	return raw.ToClientConfig()
}

// ToClientConfig applies defaults for absent fields and validates the result.
func (f ClientConfigFile) ToClientConfig() (interop.Config, error) {
	cfg := interop.DefaultConfig()

	if v := strings.TrimSpace(f.ServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(f.ModuleName); v != "" {
		cfg.ModuleName = v
	}
	if v := strings.TrimSpace(f.Language); v != "" {
		cfg.Language = v
	}
	if f.Port > 0 {
		cfg.Port = f.Port
	}
	if f.AutoRegister != nil {
		cfg.AutoRegister = *f.AutoRegister
	}
	if v := strings.TrimSpace(f.CallTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return interop.Config{}, fmt.Errorf("config parse call_timeout: %w", err)
		}
		cfg.Session.CallTimeout = d
	}
	if v := strings.TrimSpace(f.ReconnectDelay); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return interop.Config{}, fmt.Errorf("config parse reconnect_delay: %w", err)
		}
		cfg.Session.ReconnectDelay = d
	}

	if err := ValidateClientConfig(cfg); err != nil {
		return interop.Config{}, err
	}
	return cfg, nil
}

// ValidateClientConfig rejects configs the client cannot dial with.
func ValidateClientConfig(cfg interop.Config) error {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("config invalid server_url %q: %w", cfg.ServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config invalid server_url %q: scheme must be http or https", cfg.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("config invalid server_url %q: missing host", cfg.ServerURL)
	}
	if strings.TrimSpace(cfg.ModuleName) == "" {
		return fmt.Errorf("config missing module_name")
	}
	return nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
