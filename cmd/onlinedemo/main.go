// Package main is the entry point for the onlinedemo CLI.
package main

import (
	"os"

	"github.com/YuminosukeSato/onlinelearn/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
