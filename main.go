package main

import (
	"fmt"
	"os"

	"github.com/nahuelc/resumen/cmd"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("resumen version %s\n", version)
		os.Exit(0)
	}

	cmd.Execute()
}
