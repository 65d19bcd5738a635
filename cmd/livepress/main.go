package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/livepress"
	"github.com/eringen/livepress/content"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			log.Fatal(err)
		}
	case "seed":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: livepress seed <file.yaml>")
			os.Exit(1)
		}
		if err := runSeed(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("livepress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	app := livepress.New(livepress.LoadConfig())
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runSeed(path string) error {
	cfg := livepress.LoadConfig()
	store, err := content.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := livepress.Seed(context.Background(), store, f)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d posts (%d skipped) into %s\n", res.Created, res.Skipped, cfg.DatabasePath)
	return nil
}

func printUsage() {
	fmt.Println(`livepress - A live-updating blog built with Go, Echo, and SQLite

Usage:
  livepress <command> [arguments]

Commands:
  serve             Start the web server
  seed <file.yaml>  Load posts from a YAML file
  version           Print the livepress version
  help              Show this help message

Configuration is read from the environment and an optional .env file:
  SITE_NAME, SITE_URL, SITE_DESCRIPTION, SITE_AUTHOR, ADDR, DATABASE_PATH,
  ADMIN_PASSWORD, SESSION_SECRET, COOKIE_SECURE, PAGE_SIZE, LOG_LEVEL`)
}
