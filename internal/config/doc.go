// Package config loads tada's settings.
//
// Sources, lowest priority first:
//  1. Built-in defaults
//  2. User config file ($XDG_CONFIG_HOME/tada/config.toml, or the OS config dir)
//  3. Project config file (tada.toml, .tada.toml, tada.yaml or .tada.yaml in the working directory)
//  4. File named by -config
//  5. Environment variables (TADA_*)
//  6. CLI flags
//
// TOML and YAML files share the same keys.
package config
