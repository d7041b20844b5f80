package main

import (
	"os"

	"github.com/sheepshaver/sheepbug/go/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stderr))
}
