// Command lingdou runs the progress and rewards engine: the HTTP API, the
// schema migrations, catalog seeding and the ledger audit.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
