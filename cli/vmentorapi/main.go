package main

import (
	"os"

	apicmder "github.com/vmentor/vmentor/cmd/vmentor/serve/api"
)

func main() {
	cmd := apicmder.NewAPICmd()
	cmd.Use = "vmentorapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .vmentor/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
