// SPDX-License-Identifier: MPL-2.0

package main

import cmd "crossforge-cli/cmd/crossforge"

func main() {
	cmd.Execute()
}
