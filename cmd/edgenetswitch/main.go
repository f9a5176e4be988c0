package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/edgenetswitch/internal/config"
	"github.com/danmuck/edgenetswitch/internal/daemon"
	"github.com/danmuck/edgenetswitch/internal/logging"
)

func main() {
	path := flag.String("config", config.PathFromEnv(), "config file (searched upward when relative)")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintf(os.Stderr, "edgenetswitch: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	loaded, err := config.LoadValidated(path)
	if err != nil {
		return err
	}

	handle, err := logging.Init(loaded.Config.Log.Logging())
	if err != nil {
		return err
	}
	defer handle.Close()

	log := handle.Logger
	log.Info().Str("config", loaded.Path).Msg("config loaded")
	for _, key := range loaded.Unknown {
		log.Warn().Str("key", key).Msg("unknown config key ignored")
	}

	svc := daemon.NewService(loaded.Config, log)
	if err := svc.Run(); err != nil {
		log.Error().Err(err).Msg("daemon exited with error")
		return err
	}
	return nil
}
