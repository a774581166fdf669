// Package main provides lawctl, the operator CLI for law catalogs: validate a
// catalog file, evaluate a protocol offline, browse and export rules.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
