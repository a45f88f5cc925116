// Package main is the entry point for the stattrack CLI tool, which
// tracks community CS2 matches: parsed demo stats reconciled with web
// scoreboards, player ratings, and season leaderboards.
package main

import "github.com/clutchphase/stattrack/cmd"

func main() {
	cmd.Execute()
}
