package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application. It is loaded once at
// startup and passed explicitly to the components that need it.
type Config struct {
	// Slack configuration
	SlackWebhookURL string // Required: Slack incoming-webhook URL
	SlackChannel    string // Required: channel the relay posts to
	SlackColor      string // Attachment color, defaults to #C70039

	// Tableau configuration
	TableauServer   string // Required: Tableau Server base URL
	TableauUsername string // Required: personal access token name
	TableauPassword string // Required: personal access token secret
	TableauSiteID   string // Site contentUrl; empty selects the default site
	TableauVersion  string // REST API version used in every URL path

	// Server configuration
	ListenAddr string // Address for the standalone HTTP server
	LogLevel   string // Log level
}

const (
	defaultSlackColor     = "#C70039"
	defaultTableauVersion = "3.21"
	defaultListenAddr     = ":5001"
	defaultLogLevel       = "info"
)

// Load creates a new Config instance from environment variables. It reports
// all missing required variables at once so a broken deployment fails fast
// with a complete picture.
func Load() (*Config, error) {
	cfg := &Config{}

	requiredVars := map[string]*string{
		"SLACK_WEBHOOK_URL": &cfg.SlackWebhookURL,
		"SLACK_CHANNEL":     &cfg.SlackChannel,

		"TABLEAU_SERVER":   &cfg.TableauServer,
		"TABLEAU_USERNAME": &cfg.TableauUsername,
		"TABLEAU_PASSWORD": &cfg.TableauPassword,
	}

	var missingVars []string
	for env, ptr := range requiredVars {
		*ptr = os.Getenv(env)
		if *ptr == "" {
			missingVars = append(missingVars, env)
		}
	}

	if len(missingVars) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	optionalVars := map[string]struct {
		ptr *string
		def string
	}{
		"SLACK_COLOR":     {&cfg.SlackColor, defaultSlackColor},
		"TABLEAU_SITE_ID": {&cfg.TableauSiteID, ""},
		"TABLEAU_VERSION": {&cfg.TableauVersion, defaultTableauVersion},
		"LISTEN_ADDR":     {&cfg.ListenAddr, defaultListenAddr},
		"LOG_LEVEL":       {&cfg.LogLevel, defaultLogLevel},
	}
	for env, v := range optionalVars {
		*v.ptr = os.Getenv(env)
		if *v.ptr == "" {
			*v.ptr = v.def
		}
	}

	// The version is formatted into every Tableau URL path segment; reject
	// values that are not decimal before the first request goes out.
	if _, err := strconv.ParseFloat(cfg.TableauVersion, 64); err != nil {
		return nil, fmt.Errorf("TABLEAU_VERSION must be a decimal API version, got %q", cfg.TableauVersion)
	}

	return cfg, nil
}
