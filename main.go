package main

import (
	"fmt"
	"os"

	"github.com/kineticguard/kinetic/cmd"
)

func main() {
	if err := cmd.Execute(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
