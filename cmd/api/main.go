// Package main is the cindral system map service. It serves the HTTP API and
// offers snapshot, inspect and import commands against the same backends.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
