// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and markdown help for the failures
// a prefindex run can surface to the user.
//
// Malformed input never reaches this package: bad lines and undecodable bytes
// are skipped by the pipeline. Only run-level failures (a missing source
// directory, an unwritable output path, a broken configuration file) are
// reported as ActionableError values.
package issue
