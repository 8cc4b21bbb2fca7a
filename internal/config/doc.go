// Package config loads, normalizes, and validates seopilot configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts) and reads TOML files. The Config type is the single typed view
// of every setting the resolver and batch scheduler need: mapping strategy,
// meta-key names, post types, batch size, confidence threshold, the ordered
// soft-replace table, the hard-block pattern, and the auto-backfill flag.
//
// Always obtain settings through this package so downstream code receives
// trimmed lists, canonical enum values, and clear validation errors.
package config
