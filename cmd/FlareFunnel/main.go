// FlareFunnel runs the conversion funnel API and its maintenance commands.
package main

import (
	"os"

	"github.com/BTreeMap/FlareFunnel/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
