// Package config loads settings into the shared go-config store.
package config

import (
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/envo-blog/library/log"
)

// LoadFromFile loads the yaml settings file at cfgPath.
// An empty path is allowed and leaves every setting at its default.
func LoadFromFile(cfgPath string) error {
	if strings.TrimSpace(cfgPath) == "" {
		log.Logger.Info("no configuration file given, use defaults")
		return nil
	}

	gconfig.Shared.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.Shared.LoadFromFile(cfgPath); err != nil {
		return errors.Wrapf(err, "load configuration from %q", cfgPath)
	}

	log.Logger.Info("load configuration", zap.String("config", cfgPath))
	return nil
}

// StringOr returns the trimmed string setting at key, or def when it is unset or blank.
func StringOr(key, def string) string {
	if v := strings.TrimSpace(gconfig.Shared.GetString(key)); v != "" {
		return v
	}

	return def
}

// IntOr returns the integer setting at key, or def when it is unset or not positive.
func IntOr(key string, def int) int {
	if v := gconfig.Shared.GetInt(key); v > 0 {
		return v
	}

	return def
}
