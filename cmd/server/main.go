package main

import (
	"context"
	"flag"
	"fmt"
	"line-chat/contract"
	grpc2 "line-chat/grpc"
	"line-chat/internal"
	"line-chat/moderation"
	"line-chat/observability"
	"line-chat/runtime"
	"line-chat/runtime/workers"
	"line-chat/server"
	"line-chat/session"
	"line-chat/transport"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, serves until SIGINT/SIGTERM and returns the
// only fatal error the server has: failing to bind.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.LoadServerConfig()
	if err != nil {
		return err
	}
	host := flag.String("host", config.Host, "listen host")
	port := flag.Int("port", config.Port, "listen port")
	flag.Parse()
	config.Host, config.Port = *host, *port
	if err := config.Validate(); err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Shared chat state
	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoringManager(log)
	broadcaster := runtime.NewBroadcaster(log, registry, monitoring)
	router := runtime.NewWhisperRouter(log, registry, monitoring)

	var censor contract.ICensor
	if words := config.CensoredWordList(); len(words) > 0 {
		replacement, _ := internal.CharacterRune(config.CharReplacement)
		moderator, err := moderation.NewModerator(words, replacement, log)
		if err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
		censor = moderator
		log.Info("Moderation enabled", "words", len(words))
	}

	handler := session.NewHandler(log, registry, broadcaster, router, censor, monitoring, config.QuitCommand)
	chat := server.NewServer(log, server.Options{
		Addr: config.Address(),
		Conn: transport.Options{
			IdleTimeout:   config.IdleTimeout,
			WriteTimeout:  config.WriteTimeout,
			MaxLineLength: config.MaxLineLength,
		},
		ShutdownTimeout: config.ShutdownTimeout,
	}, registry, handler, monitoring)

	// 4. Supervised side workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewHealthMonitoringWorker(log, registry, monitoring, config.MetricInterval))
	if config.HealthPort > 0 {
		health := grpc2.NewHealthServer(log, adminAddress(config.Host, config.HealthPort))
		chat.WithReporter(health)
		sup.Add(health)
	}
	if config.DebugPort > 0 {
		sup.Add(internal.NewDebugServer(log, adminAddress(config.Host, config.DebugPort), registry, monitoring))
	}

	// 5. Bind, then serve until a signal arrives
	if err := chat.Listen(ctx); err != nil {
		return err
	}
	supervised := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervised)
	}()

	err = chat.Serve(ctx)
	stop()
	<-supervised
	log.Info("Program stopped cleanly")
	return err
}

func adminAddress(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
