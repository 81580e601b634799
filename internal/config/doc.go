// Package config loads, normalizes, and validates o2rconv configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// O2RCONV_TORCH_BINARY. The Config type centralizes every knob the CLI and
// the conversion pipeline need so the Torch binary, log destinations, and
// verification policy are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
