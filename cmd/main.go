package main

import (
	"context"
	"os"

	"github.com/seethroughlab/familliar-sub003/internal/services"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	configPath := ""
	if path, ok := shared.ResolveConfigPath(); ok {
		configPath = path
		if loadedConfig, err := shared.LoadConfig(path); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}

	service := services.NewProxyService(config.Proxy.BaseURL, config.Proxy.Token)

	apiService := services.NewAPIService(config.Proxy.BaseURL, nil)
	if config.Proxy.Token != "" {
		apiService.SetToken(config.Proxy.Token)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Service:    service,
		API:        apiService,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "familliar",
		Usage:    "Download library collections for offline playback",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
