// Package main is the entry point for sniff, a live interface packet sniffer.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/sniff/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
