// Package main pgcrud 命令行入口
package main

import (
	"os"

	"github.com/fatih/color"

	"pgcrud/cmd/pgcrud/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
