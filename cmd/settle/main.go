// Command settle records who paid what and prints who owes whom.
package main

import (
	"os"

	"github.com/xraph/settle/cmd/settle/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
