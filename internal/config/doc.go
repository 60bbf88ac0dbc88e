// Package config loads, normalizes, and validates festmail configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as BREVO_API_KEY. The Config type centralizes sender
// identity, pacing, dispatch-log placement, roster column names, and the
// named campaigns so commands resolve everything in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, a canonical persistence mode, and clear validation errors.
package config
