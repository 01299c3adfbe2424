// Package main is the entry point for the rescan CLI.
package main

import "gooze.dev/pkg/rescan/cmd"

func main() {
	cmd.Execute()
}
