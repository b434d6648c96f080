package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/idilsaglam/tada/internal/cli"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/todo"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root flags (apply to every subcommand), layered over config files and env.
	cfg, args, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		ui.Fail(os.Stderr, err.Error())
		return 2
	}
	ui.SetTheme(cfg.Theme)
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	for _, f := range cfg.Files {
		logger.Debug("config file applied", "path", f)
	}

	if len(args) == 0 {
		cli.PrintHelp(os.Stderr)
		return 2
	}

	slot, err := store.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		ui.Fail(os.Stderr, "open store: "+err.Error())
		return 1
	}
	defer slot.Close()

	st := todo.New(slot, todo.WithKey(cfg.Key), todo.WithLogger(logger))
	st.Subscribe(logging.Observer(logger))

	// Hand the remaining args to the CLI runner.
	code := cli.Run(cli.Env{
		Store:       st,
		Slot:        slot,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Interactive: func() error { return tui.Run(st) },
	}, args, cli.Options{Group: cfg.Group})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
