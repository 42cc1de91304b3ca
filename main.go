package main

import (
	"annolist/internal/di"
	"annolist/internal/structures"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVarP(&flags.ConfigPath, "config", "c", "config.yaml", "path to the YAML configuration file")
	flag.BoolVarP(&flags.DebugMode, "debug", "d", false, "mirror logs to stdout")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "annolist: %v\n", err)
		os.Exit(1)
	}
}
