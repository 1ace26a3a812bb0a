// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables, and
// an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/caarlos0/env/v11"
)

// Options holds the configuration values for the application.
type Options struct {
	// BaseURL is the remote storefront API base URL.
	BaseURL string `json:"baseUrl" env:"STOREFRONT_BASE_URL"`

	// StateDir is the directory holding the persisted cart and the
	// broadcast spool, the client's equivalent of a browser profile.
	StateDir string `json:"stateDir" env:"STOREFRONT_STATE_DIR"`

	// Store selects the cart store backend: "file" or "sqlite".
	Store string `json:"store" env:"STOREFRONT_STORE"`

	// Bus selects the sync transport: "spool", "memory", or "none".
	// "none" disables broadcasting; the coordinator then polls storage.
	Bus string `json:"bus" env:"STOREFRONT_BUS"`

	// LogLevel sets the logging verbosity.
	LogLevel string `json:"logLevel" env:"STOREFRONT_LOG_LEVEL"`

	// Config is the path to the config file.
	Config string `json:"-" env:"CONFIG"`
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.BaseURL, "url", "https://3dprinter-web-api.benhalverson.workers.dev", "storefront API base URL")
	flag.StringVar(&options.StateDir, "state", ".storefront", "state directory for cart and spool")
	flag.StringVar(&options.Store, "store", "file", "cart store backend: file | sqlite")
	flag.StringVar(&options.Bus, "bus", "spool", "sync transport: spool | memory | none")
	flag.StringVar(&options.LogLevel, "log", "info", "log level")
	flag.StringVar(&options.Config, "config", "", "path to config file")
	flag.StringVar(&options.Config, "c", "", "path to config file (shorthand)")
}

// Parse parses the command-line flags, the optional config file, and
// environment variables, in increasing order of precedence. It returns a
// pointer to the Options struct containing the final values.
func Parse() *Options {
	flag.Parse()

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

	// Environment variables override flags and file values.
	if err := env.Parse(options); err != nil {
		log.Fatalf("error while parsing environment: %v", err)
	}

	return options
}
