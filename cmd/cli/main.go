// Sherlog - Device Log Viewer
//
// Sherlog loads device logs and support archives, merges them into one
// timeline and prints filtered views of it.
package main

import (
	"os"

	"github.com/ccollicutt/sherlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
