package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tidewater/fundval/internal/app"
	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/server"
)

func main() {
	// Environment files are optional; FUNDVAL_* vars override config values
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to fundval.toml (default: FUNDVAL_CONFIG, then binary dir)")
	importPath := flag.String("import", "", "import holdings from a JSON file and exit")
	rebuild := flag.Bool("rebuild", false, "rebuild the holdings book from the trade journal and exit")
	flag.Parse()

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	// One-shot maintenance modes
	if *importPath != "" {
		err := runImport(a, *importPath)
		a.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if *rebuild {
		err := runRebuild(a)
		a.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	common.PrintBanner(a.Config, a.Logger)

	// Start background services
	a.StartNavWarm()
	a.StartSchedulers()

	srv := server.NewServer(a)
	shutdownChan := make(chan struct{}, 1)
	srv.SetShutdownChannel(shutdownChan)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)).
		Msg("Server ready")

	// Wait for interrupt signal or HTTP shutdown request
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.Logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case <-shutdownChan:
		a.Logger.Info().Msg("Shutdown requested via HTTP endpoint")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	a.Close()
	common.PrintShutdownBanner(a.Logger)
}

// runImport loads holdings from a JSON file into the default account book.
func runImport(a *app.App, path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	imported, skipped, err := app.ImportHoldingsFromFile(ctx, a.Storage.HoldingStorage(), a.Logger, path, a.DefaultAccount)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d holdings (%d skipped)\n", imported, skipped)
	return nil
}

// runRebuild replays the confirmed trade journal into a fresh holdings book.
func runRebuild(a *app.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := app.RebuildHoldings(ctx, a.Storage, a.Logger, a.DefaultAccount)
	if err != nil {
		return err
	}
	fmt.Printf("Rebuilt %d holdings from the trade journal\n", count)
	return nil
}
