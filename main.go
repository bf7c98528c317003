// SPDX-License-Identifier: MPL-2.0

package main

import cmd "networkbuster-cli/cmd/networkbuster"

func main() {
	cmd.Execute()
}
