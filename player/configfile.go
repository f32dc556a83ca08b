package player

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"rezid/emu/log"
)

// ConfigDir is the platform configuration directory of the player.
var ConfigDir = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("rezid")
	if err := configdir.MakePath(dir); err != nil {
		log.ModPlayer.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the persisted configuration, or returns the
// defaults when there is none.
func LoadConfigOrDefault() Config {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(filepath.Join(ConfigDir(), cfgFilename), &cfg); err != nil {
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig persists the configuration into the config directory.
func SaveConfig(cfg Config) error {
	f, err := os.Create(filepath.Join(ConfigDir(), cfgFilename))
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
