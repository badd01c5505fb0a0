package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/boardwalk/gameserver/pkg/api"
	"github.com/boardwalk/gameserver/pkg/game"
	"github.com/boardwalk/gameserver/pkg/game/constants"
	"github.com/boardwalk/gameserver/pkg/log"
	"github.com/boardwalk/gameserver/pkg/network"
	"github.com/boardwalk/gameserver/pkg/queue"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	port := flag.Int("port", getEnvInt("PORT", constants.DefaultPort), "WebSocket port to listen on")
	apiPort := flag.Int("api-port", getEnvInt("API_PORT", constants.DefaultAPIPort), "HTTP status API port to listen on")
	logLevel := flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level")
	gracePeriod := flag.Duration("grace-period", getEnvDuration("GRACE_PERIOD", constants.DefaultGracePeriod), "Disconnect grace period")
	loopInterval := flag.Duration("loop-interval", 50*time.Millisecond, "Game loop interval")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	ctx := context.Background()

	connectionManager := network.NewConnectionManager()
	eventQueue := queue.NewInMemoryQueue(10000)

	wsServer := network.NewWSServer(network.NewWSServerOptions{
		Port:              *port,
		ConnectionManager: connectionManager,
		EventQueue:        eventQueue,
	})
	go wsServer.Start(ctx)

	registry := game.NewRegistry()
	graceManager := game.NewGraceManager(game.NewGraceManagerOptions{
		GracePeriod: *gracePeriod,
		EventQueue:  eventQueue,
	})

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:     *apiPort,
		Registry: registry,
	})
	go apiServer.Start()

	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		Registry:     registry,
		GraceManager: graceManager,
		EventQueue:   eventQueue,
		Sender:       connectionManager,
		LoopInterval: *loopInterval,
	})

	log.Info("Starting game manager")
	if err := gameManager.Start(ctx); err != nil {
		log.Error("Game manager stopped: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
