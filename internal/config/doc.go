// Package config loads, normalizes, and validates captionrelay configuration.
//
// It supplies defaults (including a built-in list of public caption mirrors),
// expands user paths, reads TOML files, and applies environment overrides such
// as CAPTIONRELAY_ENDPOINTS and PORT so the server can be reconfigured on
// hosted platforms without a config file.
//
// Always obtain settings through this package so downstream code receives a
// validated endpoint list, a positive per-call timeout, and canonical log
// formats.
package config
