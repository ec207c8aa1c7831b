// Command courier inspects and exercises a courier durable action store.
package main

import (
	"fmt"
	"os"

	"github.com/xraph/courier/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
