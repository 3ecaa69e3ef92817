package main

import "fmt"

// Version is set at build time via -ldflags.
var Version = "dev"

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("truncation-engine %s\n", Version)
}
