package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hamed0406/pong/internal/config"
	"github.com/hamed0406/pong/internal/domain"
	"github.com/hamed0406/pong/internal/httpapi"
	"github.com/hamed0406/pong/internal/logging"
	"github.com/hamed0406/pong/internal/repo/memory"
	"github.com/hamed0406/pong/internal/scheduler"
)

func main() {
	configFile := flag.String("config", config.DefaultPath, "path to the YAML settings file")
	port := flag.Int("port", 0, "web server port (overrides the settings file)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *port != 0 {
		cfg.WebServer.Port = *port
		if err := cfg.Validate(); err != nil {
			log.Fatal(err)
		}
	}

	logger, err := logging.NewLogger(logging.Options{
		Dir:     cfg.Log.Dir,
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("pong_exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("pong_starting",
		zap.Int("groups", len(cfg.TaskGroups)),
		zap.Int("tasks", cfg.TaskCount()),
		zap.Strings("addrs", cfg.Addrs()),
	)

	store := memory.New()
	results := make(chan domain.ProbeResult, cfg.ChannelSize)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		store.Consume(ctx, results)
	}()

	sched := scheduler.New(logger, results)
	if err := sched.Start(ctx, cfg.Groups()); err != nil {
		return err
	}

	api := httpapi.NewServer(logger, store)
	err := api.ListenAndServe(ctx, cfg.Addrs(), api.Router(cfg.WebServer.Tokens))

	stop()
	sched.Wait()
	<-consumerDone
	logger.Info("pong_stopped")
	return err
}
