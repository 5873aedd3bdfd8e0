package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath points at the config file when --config is not given.
const EnvConfigPath = "REPLBRIDGE_CONFIG"

// config holds file-sourced defaults for the global flags. Flags given on
// the command line always win.
type config struct {
	Engine      string   `yaml:"engine"`
	EngineArgs  []string `yaml:"engine_args"`
	CommandAddr string   `yaml:"command_addr"`
	ControlAddr string   `yaml:"control_addr"`
	StreamAddr  string   `yaml:"stream_addr"`
	LogLevel    string   `yaml:"log_level"`
	Timeout     string   `yaml:"timeout"`
}

// configPath resolves the config file location: the --config flag, then
// $REPLBRIDGE_CONFIG, then the user config directory. explicit reports
// whether the user named the file, in which case it must exist.
func configPath() (path string, explicit bool) {
	if flagConfig != "" {
		return flagConfig, true
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, true
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "replbridge", "config.yaml"), false
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// applyConfig loads the config file and fills in every global flag the
// command line left untouched.
func applyConfig() error {
	path, explicit := configPath()
	if path == "" {
		return nil
	}
	cfg, err := loadConfig(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return mergeConfig(cfg, rootCmd.PersistentFlags().Changed)
}

// mergeConfig copies cfg into the flag variables, skipping any flag the
// changed predicate reports as set on the command line.
func mergeConfig(cfg *config, changed func(string) bool) error {
	if cfg.Engine != "" && !changed("engine") {
		flagEngine = cfg.Engine
	}
	if len(cfg.EngineArgs) > 0 && !changed("engine-arg") {
		flagEngineArgs = cfg.EngineArgs
	}
	if cfg.CommandAddr != "" && !changed("command-addr") {
		flagCommandAddr = cfg.CommandAddr
	}
	if cfg.ControlAddr != "" && !changed("control-addr") {
		flagControlAddr = cfg.ControlAddr
	}
	if cfg.StreamAddr != "" && !changed("stream-addr") {
		flagStreamAddr = cfg.StreamAddr
	}
	if cfg.LogLevel != "" && !changed("log-level") {
		flagLogLevel = cfg.LogLevel
	}
	if cfg.Timeout != "" && !changed("timeout") {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		flagTimeout = d
	}
	return nil
}
