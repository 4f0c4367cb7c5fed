// Command delegation-server exposes install, revoke and inspect for one
// owner account over HTTP.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-delegation/internal/bootstrap"
	"github.com/cyphera/cyphera-delegation/internal/server"
	"github.com/cyphera/cyphera-delegation/libs/go/config"
	"github.com/cyphera/cyphera-delegation/libs/go/constants"
	"github.com/cyphera/cyphera-delegation/libs/go/helpers"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v\n", err)
	}

	stage, err := helpers.ResolveStage(os.Getenv("STAGE"))
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(stage)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Setup(ctx, config.OperationServe)
	if err != nil {
		logger.Fatal("Failed to start delegation server", zap.Error(err))
	}
	defer rt.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	srv := server.New(rt.Workflow, server.Options{
		Addr:              ":" + port,
		ChainID:           rt.Config.ChainID,
		Defaults:          rt.Config.Request(config.OperationServe, rt.Owner.Address()),
		RequestsPerSecond: constants.DefaultHTTPRequestsPerSec,
		Burst:             constants.DefaultHTTPBurst,
		AllowedOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	})
	if err := srv.Run(ctx); err != nil {
		logger.Error("Delegation server stopped", zap.Error(err))
	}
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
