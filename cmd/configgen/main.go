package main

import (
	"flag"
	"log"

	"github.com/danmuck/edgenetswitch/internal/config"
)

func main() {
	output := flag.String("output", config.DefaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to the search path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = config.PathFromEnv()
		}
		loaded, err := config.LoadValidated(path)
		if err != nil {
			log.Fatal(err)
		}
		for _, key := range loaded.Unknown {
			log.Printf("unknown key %s", key)
		}
		log.Printf("Validated config at %s", loaded.Path)
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote config template to %s", *output)
}
