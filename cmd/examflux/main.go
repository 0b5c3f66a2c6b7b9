package main

import (
	"os"

	"github.com/examflux/examflux/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
