package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/blogboard"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "api", "web", "serve":
		if err := run(os.Args[1]); err != nil {
			log.Error().Err(err).Str("command", os.Args[1]).Msg("exited with error")
			os.Exit(1)
		}
	case "version":
		fmt.Printf("blogboard %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(cmd string) error {
	cfg, err := blogboard.LoadConfig()
	if err != nil {
		return err
	}
	blogboard.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if cmd == "api" || cmd == "serve" {
		api := blogboard.NewAPI(cfg)
		defer api.Close()
		g.Go(func() error { return api.Serve(ctx) })
	}
	if cmd == "web" || cmd == "serve" {
		web := blogboard.NewWeb(cfg)
		defer web.Close()
		g.Go(func() error { return web.Serve(ctx) })
	}
	return g.Wait()
}

func printUsage() {
	fmt.Println(`blogboard - A small blog built with Go, Echo, and templ

Usage:
  blogboard <command>

Commands:
  api        Run the JSON REST API (API_ADDR, default :3001)
  web        Run the web frontend (WEB_ADDR, default :3000)
  serve      Run both in one process
  version    Print the blogboard version
  help       Show this help message

Configuration is read from the environment and an optional .env file.
SESSION_SECRET is required by the web frontend.`)
}
