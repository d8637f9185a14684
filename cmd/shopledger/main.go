package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"

	"github.com/mamadbah2/shopledger/internal/cli"
	"github.com/mamadbah2/shopledger/internal/config"
	"github.com/mamadbah2/shopledger/pkg/logger"
)

var (
	envFile = flag.String("env-file", "", "Path to a .env file. Defaults to ./.env when present.")
	verbose = flag.Bool("v", false, "Log debug output to stderr.")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(subcommands.HelpCommand(), "")
	commander.Register(subcommands.FlagsCommand(), "")
	commander.Register(subcommands.CommandsCommand(), "")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	log := logger.Must(logger.NewConsole(*verbose))

	cli.Register(commander, &cli.Env{Config: cfg, Logger: log, Out: os.Stdout, Err: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx)
	stop()
	_ = log.Sync()
	os.Exit(int(status))
}
