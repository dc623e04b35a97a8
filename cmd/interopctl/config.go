package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/interopctl/internal/config"
	"github.com/danmuck/interopctl/internal/interop"
)

// cliConfig is the resolved configuration for one interopctl invocation.
type cliConfig struct {
	Client         interop.Config
	CommandTimeout time.Duration
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		Client:         interop.DefaultConfig(),
		CommandTimeout: 30 * time.Second,
	}
}

// fileConfig is the interopctl TOML surface.
type fileConfig struct {
	ServerURL      string `toml:"server_url"`
	ModuleName     string `toml:"module_name"`
	Language       string `toml:"language"`
	Port           int    `toml:"port"`
	AutoRegister   bool   `toml:"auto_register"`
	CallTimeout    string `toml:"call_timeout"`
	ReconnectDelay string `toml:"reconnect_delay"`
	CommandTimeout string `toml:"command_timeout"`
}

func loadCLIConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load interopctl config: %w", err)
	}

	if meta.IsDefined("server_url") {
		if v := strings.TrimSpace(raw.ServerURL); v != "" {
			cfg.Client.ServerURL = v
		}
	}
	if meta.IsDefined("module_name") {
		if v := strings.TrimSpace(raw.ModuleName); v != "" {
			cfg.Client.ModuleName = v
		}
	}
	if meta.IsDefined("language") {
		if v := strings.TrimSpace(raw.Language); v != "" {
			cfg.Client.Language = v
		}
	}
	if meta.IsDefined("port") {
		cfg.Client.Port = raw.Port
	}
	if meta.IsDefined("auto_register") {
		cfg.Client.AutoRegister = raw.AutoRegister
	}
	if meta.IsDefined("call_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CallTimeout))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse call_timeout: %w", err)
		}
		cfg.Client.Session.CallTimeout = d
	}
	if meta.IsDefined("reconnect_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReconnectDelay))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse reconnect_delay: %w", err)
		}
		cfg.Client.Session.ReconnectDelay = d
	}
	if meta.IsDefined("command_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CommandTimeout))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse command_timeout: %w", err)
		}
		cfg.CommandTimeout = d
	}

	if err := config.ValidateClientConfig(cfg.Client); err != nil {
		return cliConfig{}, err
	}
	return cfg, nil
}
