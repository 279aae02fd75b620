// Package main is the entry point for the sleuth CLI.
package main

import "github.com/jakechild/sleuth/cmd"

func main() {
	cmd.Execute()
}
