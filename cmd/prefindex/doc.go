// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for prefindex.
//
// The root command builds the preference index from a directory of ATAK
// preference dumps. Subcommands query, export and summarize the same index
// without writing it, and manage the configuration file.
package cmd
