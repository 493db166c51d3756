package config

import (
	"cdp/core"

	configUtil "github.com/fox-one/pkg/config"
)

// Load load config file; an empty configFile leaves the defaults and
// CDP_* environment overrides only
func Load(configFile string, config *core.Config) error {
	configUtil.AutomaticLoadEnv("CDP")
	if configFile != "" {
		if err := configUtil.LoadYaml(configFile, config); err != nil {
			return err
		}
	}

	defaults(config)
	return nil
}
