package main

import (
	"context"
	"flag"
	"fmt"
	"line-chat/client"
	"line-chat/internal"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	config, err := internal.LoadClientConfig()
	if err != nil {
		return exitConfig, err
	}
	addr := flag.String("addr", config.ServerAddress, "chat server address")
	name := flag.String("name", config.Name, "display name, prompted when empty")
	flag.Parse()
	config.ServerAddress, config.Name = *addr, *name
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// Ctrl+C sends the quit sentinel before the connection closes
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(log, client.Options{
		Addr:        config.ServerAddress,
		Name:        config.Name,
		QuitCommand: config.QuitCommand,
		Colours:     config.Colours,
	})
	if err := c.Run(ctx, os.Stdin, os.Stdout); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
