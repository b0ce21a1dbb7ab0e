// Package main provides the entry point for the overload CLI.
package main

import (
	"github.com/bookops/overload/internal/cmd"
)

// Version is populated by the build.
var version = "dev"

func main() {
	cmd.Execute(version)
}
