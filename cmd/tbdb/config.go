package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the CLI's own settings: where its keyring lives, which
// schema id new containers are stamped with, and where to look for a
// directory of loose trusted-key files. The core library itself takes
// no configuration beyond constructor parameters (adb.NewDynamicWriter,
// trust.NewContext, ...); Config exists only for this command line.
type Config struct {
	DataDir  string `json:"data_dir"`
	SchemaID uint32 `json:"schema_id"`
	TrustDir string `json:"trust_dir"`
	LogLevel string `json:"log_level"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".tbdb"
	}
	return filepath.Join(home, ".tbdb")
}

func DefaultConfig() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		SchemaID: 1,
		LogLevel: "info",
	}
}

func (c Config) KeyringPath() string {
	return filepath.Join(c.DataDir, "keyring.db")
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return errors.New("invalid log_level " + cfg.LogLevel)
	}
	return nil
}
