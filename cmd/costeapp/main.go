// Command costeapp serves the fixed costs page and carries the worker and
// admin subcommands.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
