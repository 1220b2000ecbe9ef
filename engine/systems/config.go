package systems

import (
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/forge/engine/core"
)

/** @brief TOML-backed configuration for the loader subsystem. */
type Config struct {
	/** @brief The relative base path for assets. */
	AssetBasePath string `toml:"asset_base_path"`
	/** @brief Worker pool size, as a string so operators can leave it empty. */
	WorkerCount string `toml:"worker_count"`
	/** @brief Enables the fsnotify asset watcher. */
	WatchAssets bool `toml:"watch_assets"`
}

func DefaultConfig() *Config {
	return &Config{
		AssetBasePath: "assets",
		WorkerCount:   "1",
		WatchAssets:   false,
	}
}

// LoadConfig reads a TOML configuration file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			core.LogInfo("no config at '%s', using defaults", path)
			return config, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

// WorkerPoolSize parses the configured worker count. Invalid values are
// logged and fall back to one worker.
func (c *Config) WorkerPoolSize() uint32 {
	if c.WorkerCount == "" {
		return 1
	}
	n, err := strconv.ParseUint(c.WorkerCount, 10, 32)
	if err != nil {
		core.LogWarn("invalid worker_count '%s': %v", c.WorkerCount, err)
		return 1
	}
	if n == 0 {
		return 1
	}
	return uint32(n)
}
