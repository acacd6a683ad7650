package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ConnectionString string `mapstructure:"CONNECTION_STRING"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`
	UsersCollection  string `mapstructure:"USERS_COLLECTION"`
	RolesCollection  string `mapstructure:"ROLES_COLLECTION"`
}

// Environment binding is set up at import time so ConnectionString works
// without a prior LoadConfig call.
func init() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CONNECTION_STRING", "mongodb://localhost:27017/kayan")
	viper.SetDefault("USERS_COLLECTION", "AspNetUsers")
	viper.SetDefault("ROLES_COLLECTION", "AspNetRoles")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ConnectionString resolves a named connection string from process
// configuration (key connection_strings.<name>, env
// CONNECTION_STRINGS_<NAME>). The second return reports whether the name
// is known.
func ConnectionString(name string) (string, bool) {
	s := viper.GetString("connection_strings." + name)
	return s, s != ""
}
