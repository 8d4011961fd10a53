package main

import (
	"chat-relay/infrastructure/tcp"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns of the listener and sessions.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	printBanner(config)

	// 2. Core engine: registry, router, supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	router := runtime.NewRouter(log, registry, nil)

	// 3. Transport & observability workers
	server, err := tcp.NewServer(
		log,
		fmt.Sprintf("%s:%d", config.Host, config.Port),
		config.MaxClients,
		config.ConnectionBufferSize,
		config.WriteTimeout,
		sup, registry, router,
	)
	if err != nil {
		return err
	}
	heartbeat := workers.NewHeartbeatWorker(log, registry, config.HeartbeatInterval)
	sup.Add(server, heartbeat)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Blocks until shutdown, waiting for in-flight sessions to finish
	log.Info("Server started, waiting for clients to connect", "address", server.Addr())
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}

func printBanner(config Config) {
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" Chat relay server "))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Setting", "Value"})
	table.Append([]string{"Host", config.Host})
	table.Append([]string{"Port", strconv.Itoa(config.Port)})
	table.Append([]string{"Max clients", strconv.Itoa(config.MaxClients)})
	table.Render()
}
