package main

import (
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	app2 "github.com/IT-Nick/question-bank/internal/app"
)

func defaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "configs/values_examples.yaml"
}

func main() {
	configPath := pflag.String("config", defaultConfigPath(), "path to the YAML config file")
	pflag.Parse()

	app, err := app2.NewApp(*configPath)
	if err != nil {
		slog.Error("app init failed", "config", *configPath, "error", err)
		os.Exit(1)
	}

	slog.Info("app starting")
	if err := app.ListenAndServe(); err != nil {
		slog.Error("app stopped", "error", err)
		os.Exit(1)
	}
}
