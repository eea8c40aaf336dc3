package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"telegram-fragment-bot/internal/bot"
	"telegram-fragment-bot/internal/config"
	"telegram-fragment-bot/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to optional config yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Log.Fatal().Err(err).Msg("config")
	}
	logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx, cfg); err != nil {
		logging.Log.Fatal().Err(err).Msg("bot")
	}
}
