// Package config manages user-level settings stored at ~/.aipkg/config.yaml.
// Values can be overridden with AIPKG_* environment variables; command-line
// flags take precedence over both.
package config
