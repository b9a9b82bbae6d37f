// Package config loads and validates maestro's TOML configuration.
//
// Load resolves the config path (explicit flag, ./maestro.toml, then
// ~/.config/maestro/config.toml), decodes over Default(), then normalizes
// paths (~ expansion, absolute paths) and validates. The embedded
// sample_config.toml documents every knob and backs `maestro config init`.
package config
