package main

import (
	"os"

	"github.com/nansu0425/RandomPitchPlayer/cli"
)

func main() {
	os.Exit(cli.Execute())
}
