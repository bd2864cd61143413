// Package config loads the ambient settings for flowlang's two
// entrypoints (the one-shot CLI and the HTTP service) via viper, following
// the defaults-then-file-then-env layering the rest of the pack uses.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// RunnerConfig holds settings for the one-shot `flowlang run` CLI.
type RunnerConfig struct {
	LogLevel string
}

// ServerConfig holds settings for the flowlang-server HTTP service.
type ServerConfig struct {
	BindAddr    string
	Port        int
	MetricsPort int
	LogLevel    string
}

// LoadRunnerConfig loads CLI runner configuration from defaults, file, and
// environment, in that increasing order of precedence.
func LoadRunnerConfig(cfgFile string) (*RunnerConfig, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("flowlang")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/flowlang/")
		v.AddConfigPath("$HOME/.flowlang/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FLOWLANG")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &RunnerConfig{
		LogLevel: v.GetString("log_level"),
	}, nil
}

// LoadServerConfig loads flowlang-server configuration from defaults, file,
// and environment, in that increasing order of precedence.
func LoadServerConfig(cfgFile string) (*ServerConfig, error) {
	v := viper.New()

	v.SetDefault("bind_addr", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("metrics_port", 9400)
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("flowlang-server")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/flowlang/")
		v.AddConfigPath("$HOME/.flowlang/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FLOWLANG")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &ServerConfig{
		BindAddr:    v.GetString("bind_addr"),
		Port:        v.GetInt("port"),
		MetricsPort: v.GetInt("metrics_port"),
		LogLevel:    v.GetString("log_level"),
	}, nil
}
