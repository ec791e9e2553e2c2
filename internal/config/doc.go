// Package config loads, normalizes, and validates vusb configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and lets the device rule table be tuned for
// testing or for head units with different limits. Always obtain settings
// through this package so downstream code receives sanitized paths and
// clear validation errors.
package config
