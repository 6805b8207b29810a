package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/seethroughlab/familliar-sub003/internal/server"
	"github.com/seethroughlab/familliar-sub003/internal/services"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// SetupConfig writes an example configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Example config written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Point [proxy] base_url at your library proxy\n")
	r.writePlain("2. Run 'familliar setup link' to authorize it\n")
	r.writePlain("3. Run 'familliar download liked' to start downloading\n")

	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// SetupLink performs the OAuth2 authorization flow against the library proxy.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the auth code for a bearer token saved to config.
func (r *Runner) SetupLink(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if r.config.Proxy.ClientID == "" {
		return fmt.Errorf("%w: proxy client_id must be set in %s", shared.ErrInvalidConfig, configPath)
	}

	token, err := r.doLink(ctx, r.config)
	if err != nil {
		return err
	}

	if err := r.saveToken(token, configPath); err != nil {
		return err
	}

	if r.service != nil {
		if err := r.service.Authenticate(ctx, map[string]string{"token": token.AccessToken}); err != nil {
			r.logger.Warn("token saved but service authentication failed", "error", err)
		}
	}
	if r.api != nil {
		r.api.SetToken(token.AccessToken)
	}

	r.writePlainln("✓ Account linked")
	r.writePlain("✓ Token saved to %s\n\n", configPath)
	r.writePlain("You can now use: familliar download liked\n")

	return nil
}

// doLink executes the OAuth2 authorization flow with a local HTTP server
// listening at the configured redirect URI.
func (r *Runner) doLink(ctx context.Context, config *shared.Config) (*oauth2.Token, error) {
	state := services.NewLinkState()
	linkConfig := services.LinkConfig(config.Proxy)

	authURL := services.AuthURL(linkConfig, state)
	oauthHandler := server.NewOAuthHandler(linkConfig, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	addr, err := callbackAddr(config.Proxy.RedirectURI)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("waiting for link callback at %v", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser to link your account...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

// callbackAddr extracts the listen address from the configured redirect URI.
func callbackAddr(redirectURI string) (string, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: invalid redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}
	return parsed.Host, nil
}

// saveToken stores a fresh proxy token in config and persists it when a
// config path is known. An empty path updates the in-memory config only.
func (r *Runner) saveToken(token *oauth2.Token, configPath string) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: token cannot be empty", shared.ErrInvalidArgument)
	}

	r.config.Proxy.Token = token.AccessToken

	if configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.config, configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// SetupStatus checks proxy health and reports the link state.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	if r.api == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("checking proxy status", "base_url", r.config.Proxy.BaseURL)

	resp, err := r.api.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("%w: proxy unreachable: %v", shared.ErrServiceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: proxy returned status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	r.writePlain("✓ Proxy is healthy\n")

	if resp.IsJSON {
		if healthData, ok := resp.JSONData.(map[string]any); ok {
			if status, ok := healthData["status"].(string); ok {
				r.writePlain("Status: %s\n", status)
			}
		}
	}

	if r.config.Proxy.Token != "" {
		r.writePlain("Link: ✓ account linked\n")
	} else {
		r.writePlain("Link: ✗ not linked (run 'familliar setup link')\n")
	}

	return nil
}
