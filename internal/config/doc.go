// SPDX-License-Identifier: MPL-2.0

// Package config handles prefindex configuration using Viper with CUE as the
// file format.
//
// The configuration file is looked up at ~/.config/prefindex/config.cue (or
// the platform equivalent), then at ./prefindex.cue. Every field is optional;
// missing values fall back to DefaultConfig, and command-line flags override
// whatever the file sets. Files are validated against the embedded
// config_schema.cue before they are merged.
package config
