package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		// One clear diagnostic line on stderr, then a non-zero exit.
		fmt.Fprintf(os.Stderr, "mdrive: %v\n", err)
		os.Exit(1)
	}
}
