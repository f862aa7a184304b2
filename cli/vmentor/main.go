package main

import (
	"os"

	vmentorcmder "github.com/vmentor/vmentor/cmd/vmentor"
)

func main() {
	cmd := vmentorcmder.NewVmentorCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
