// Command delegate points the owner account at the configured delegate
// contract with a single EIP-7702 transaction.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cyphera/cyphera-delegation/internal/bootstrap"
	"github.com/cyphera/cyphera-delegation/libs/go/config"
	"github.com/cyphera/cyphera-delegation/libs/go/helpers"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
)

func main() {
	verbose := flag.Bool("verbose", false, "log the assembled transaction before signing")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v\n", err)
	}
	if *verbose && os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "debug")
	}

	stage, err := helpers.ResolveStage(os.Getenv("STAGE"))
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(stage)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := bootstrap.RunCLI(ctx, config.OperationInstall, *verbose, os.Stdout)
	stop()
	_ = logger.Sync()
	os.Exit(code)
}
