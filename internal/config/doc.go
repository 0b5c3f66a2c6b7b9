// Package config loads and merges examflux configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (EXAMFLUX_BASE_URL, EXAMFLUX_FORMAT, etc.)
//  3. Config file ($XDG_CONFIG_HOME/examflux/config.json)
//  4. Built-in defaults
//
// The backend base URL is resolved once at startup; there is no runtime
// reconfiguration.
package config
