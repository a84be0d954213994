// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON config file,
// and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// EncryptionSecret is the vault key-derivation secret. When unset the
	// vault falls back to an insecure default and warns.
	EncryptionSecret string

	// MetaAppID and MetaAppSecret are the Graph API app credentials.
	MetaAppID     string
	MetaAppSecret string

	// MetaRedirectURI is the OAuth callback URL registered with the app.
	MetaRedirectURI string

	// GraphAPIBase overrides the Graph API base URL (used in tests).
	GraphAPIBase string

	// UpstreamTimeout bounds each upstream Graph API call.
	UpstreamTimeout time.Duration

	// CacheTTL is the feed cache freshness window.
	CacheTTL time.Duration

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	flag.DurationVar(&options.UpstreamTimeout, "upstream-timeout", 10*time.Second, "timeout for upstream API calls")
	flag.DurationVar(&options.CacheTTL, "cache-ttl", 15*time.Minute, "feed cache freshness window")
}

// Parse parses the command-line flags, config file, and environment
// variables to set configuration values. Environment variables win over
// the file, which wins over flag defaults. It returns a pointer to the
// Options struct containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := os.Getenv("ENCRYPTION_KEY"); secret != "" {
		options.EncryptionSecret = secret
	}
	if appID := os.Getenv("META_APP_ID"); appID != "" {
		options.MetaAppID = appID
	}
	if appSecret := os.Getenv("META_APP_SECRET"); appSecret != "" {
		options.MetaAppSecret = appSecret
	}
	if redirect := os.Getenv("META_REDIRECT_URI"); redirect != "" {
		options.MetaRedirectURI = redirect
	}
	if base := os.Getenv("GRAPH_API_BASE"); base != "" {
		options.GraphAPIBase = base
	}

	return options
}
