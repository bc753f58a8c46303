package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where `relaybot init` writes its starter config.
const DefaultConfigPath = "config/config.yaml"

const configHeader = `# relaybot configuration
# Every key can be overridden with RELAYBOT_<SECTION>_<KEY>.
# BOT_TOKEN and ADMIN_GROUP_ID are also honoured.
`

// Bootstrap writes a starter config file and creates the data directory.
// Existing files are left untouched; the return value reports whether the
// config file was created.
func Bootstrap(path string, logger *zap.Logger) (bool, error) {
	cfg := Default()

	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		return false, fmt.Errorf("create data dir: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		logger.Info("Config file already exists", zap.String("path", path))
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	data, err := MarshalYAML(cfg)
	if err != nil {
		return false, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}

	logger.Info("Config file created", zap.String("path", path))
	return true, nil
}

// MarshalYAML renders cfg as a commented config file.
func MarshalYAML(cfg *Config) ([]byte, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return append([]byte(configHeader), body...), nil
}
