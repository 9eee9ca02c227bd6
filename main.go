package main

import (
	"os"

	"github.com/diffscribe/diffscribe/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
