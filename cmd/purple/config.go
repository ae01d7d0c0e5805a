package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/aretw0/purple"
)

type config struct {
	Path      string
	Adapter   string
	DevSafety bool
}

// loadConfig reads .purple.yaml (current directory, then $HOME) and PURPLE_*
// environment variables. Flags win over both.
func loadConfig() (config, error) {
	v := viper.New()
	v.SetDefault("path", "~/.local/share/purple")
	v.SetDefault("adapter", "fs")
	v.SetDefault("dev_safety", true)
	v.SetConfigName(".purple") // .yaml is implicit
	v.SetEnvPrefix("PURPLE")
	v.AutomaticEnv()

	if override := os.Getenv("PURPLE_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := config{
		Path:      v.GetString("path"),
		Adapter:   v.GetString("adapter"),
		DevSafety: v.GetBool("dev_safety"),
	}
	if localRoot {
		root, err := purple.FindDataRoot(".")
		if err != nil {
			return config{}, err
		}
		cfg.Path = root
	}
	if dataPath != "" {
		cfg.Path = dataPath
	}
	if adapter != "" {
		cfg.Adapter = adapter
	}

	expanded, err := homedir.Expand(cfg.Path)
	if err != nil {
		return config{}, fmt.Errorf("failed to expand %s: %w", cfg.Path, err)
	}
	cfg.Path = expanded
	return cfg, nil
}

// openApp builds the application from the configuration, exiting on failure.
func openApp(opts ...purple.Option) *purple.App {
	cfg, err := loadConfig()
	if err != nil {
		fatal("Failed to load configuration", err)
	}

	base := []purple.Option{
		purple.WithAdapter(cfg.Adapter),
		purple.WithDevSafety(cfg.DevSafety),
		purple.WithLogger(slog.Default()),
	}
	app, err := purple.New(cfg.Path, append(base, opts...)...)
	if err != nil {
		fatal("Failed to open data directory", err)
	}
	return app
}

func closeApp(app *purple.App) {
	if err := app.Close(context.Background()); err != nil {
		slog.Default().Warn("failed to close", "error", err)
	}
}
