package main

import (
    "context"
    "flag"
    "log"
    "os"
    "os/signal"
    "syscall"

    "courierplan/internal/api"
    "courierplan/internal/config"
    "courierplan/internal/logging"
)

func main() {
    cfgPath := flag.String("config", os.Getenv("CONFIG_FILE"), "YAML config file (optional)")
    flag.Parse()

    cfg, err := config.Load(*cfgPath)
    if err != nil {
        log.Fatalf("config: %v", err)
    }
    logger, err := logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
    if err != nil {
        log.Fatalf("logging: %v", err)
    }

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    if err := api.Run(ctx, cfg); err != nil {
        logger.Error("api.exit", "err", err)
        os.Exit(1)
    }
}
