// SPDX-License-Identifier: MPL-2.0

// Command prefindex builds a versioned index of ATAK preference keys.
package main

import cmd "prefindex/cmd/prefindex"

func main() {
	cmd.Execute()
}
