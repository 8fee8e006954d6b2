// Package config provides configuration management for confkitd and the
// confkit CLI.
//
// The package uses a Provider interface to abstract configuration storage,
// with the primary implementation being a YAML file on an afero file system.
//
// # Configuration Structure
//
// Configuration is structured as follows:
//
//	socket:
//	  path: /var/run/confkitd.socket   # Unix domain socket path
//	engine:
//	  check_interval: 1m               # How often bindings are re-read (0 disables)
//	bindings:
//	  - name: app
//	    path: /etc/app/app.json
//	    format: json                   # json|yaml|properties|text; default from extension
//	    caching: timestamp             # constant|timestamp|reload; default reload
//	    encoding: utf-8                # optional
//	  - name: remote
//	    url: https://example.com/app.properties
//	    caching: constant
//
// # Basic Usage
//
// Load configuration from $CONFKIT_CONFIG or ~/.confkit/config.yaml:
//
//	provider := config.New()
//	cfg, err := provider.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Load configuration from a specific file system and path:
//
//	provider := config.NewWithPath(afero.NewMemMapFs(), "/etc/confkit/config.yaml")
//
// # Configuration Validation
//
// The package performs validation of loaded configuration:
//   - Socket path must not be empty
//   - Check interval must be zero or at least 1 second
//   - Binding names must be non-empty and unique (case-insensitive)
//   - Each binding sets exactly one of path, url or text
//   - Caching, format and encoding must be known; a missing format must be
//     detectable from the file extension
//
// Failures are wrapped in ErrInvalidConfig.
//
// # Default Configuration
//
// If no configuration file exists, the following defaults are used:
//   - Socket Path: /var/run/confkitd.socket
//   - Check Interval: 1 minute
//   - No bindings
//
// # Saving
//
// Save validates the configuration and writes it with filesys.AtomicWrite,
// so a crash never leaves a half-written file behind.
package config
