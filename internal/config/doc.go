// Package config loads, normalizes, and validates amp configuration.
//
// Configuration lives in a TOML file (~/.config/amp/config.toml by default,
// or an amp.toml in the working directory). Load applies defaults, expands
// ~ in every path field, and rejects unusable values so downstream packages
// can trust what they receive. CreateSample writes the annotated sample file
// used by `amp config init`.
package config
