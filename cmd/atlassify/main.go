package main

import (
	"fmt"
	"os"

	"github.com/nhle/atlassify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "atlassify:", err)
		os.Exit(1)
	}
}
