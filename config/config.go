// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/constant"
	"github.com/streamscout/streamscout/filesystem"
	"github.com/streamscout/streamscout/where"
)

// EnvKeyReplacer maps configuration keys onto environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup registers defaults and environment bindings, then reads streamscout.toml when present.
func Setup() error {
	viper.SetConfigName(constant.Streamscout)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Streamscout)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// Path returns the location of the configuration file, whether or not it exists yet.
func Path() string {
	return filepath.Join(where.Config(), constant.Streamscout+".toml")
}
