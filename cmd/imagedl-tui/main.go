// Command imagedl-tui is the interactive terminal front end of the
// image downloader.
package main

import (
	"flag"
	"fmt"
	"os"

	"imagedl/internal/config"
	"imagedl/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "path to a JSON settings file")
	flag.Parse()

	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
