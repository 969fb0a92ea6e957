// Package main is the single-shot cultivation driver: each invocation loads
// the configured store, runs one command against one character, prints the
// outcome, and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/cultivation/internal/app"
	"github.com/cory-johannsen/cultivation/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (defaults and environment only when empty)")
	flag.Usage = usage
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx := context.Background()
	a, cleanup, err := app.InitializeApp(ctx, cfg)
	if err != nil {
		log.Fatalf("initializing: %v", err)
	}
	defer cleanup()

	err = run(ctx, a, flag.Args(), os.Stdout)
	a.Logger.Debug("command finished",
		zap.Strings("args", flag.Args()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		cleanup()
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.LoadDefaults()
	}
	return config.Load(path)
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: cultivation [-config file] <command> [args]

commands:
  create <name> <spirit_root>   create a new cultivator
  status <name>                 show stats, equipment, and any fight in progress
  fight <name> <monster_id>     start a fight
  attack <name>                 attack the current opponent
  flee <name>                   try to escape the current fight
  breakthrough <name>           attempt to advance to the next realm
  monsters                      list monster templates
  roots                         list spirit roots
`)
}
