package bot

import (
	"context"
	"fmt"
	"time"

	tg "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"telegram-fragment-bot/internal/config"
	"telegram-fragment-bot/internal/fragment"
	"telegram-fragment-bot/internal/handler"
	"telegram-fragment-bot/internal/journal"
	"telegram-fragment-bot/internal/logging"
	"telegram-fragment-bot/internal/metrics"
	"telegram-fragment-bot/internal/web"
)

// Run starts the Telegram bot and listens for updates until ctx is done.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	metrics.MustRegister()

	jr, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("journal init: %w", err)
	}
	defer jr.Close()

	store := fragment.NewStore(cfg.DataDir)
	d := handler.NewDispatcher(store, handler.Options{
		BaseURL:        cfg.BaseURL,
		StylesheetURL:  cfg.StylesheetURL,
		FeedMaxEntries: cfg.FeedMaxEntries,
		JournalLimit:   cfg.Journal.Limit,
		Journal:        jr,
	})

	if cfg.HTTPAddr != "" {
		srv := web.NewServer(cfg.HTTPAddr, store)
		go func() {
			if err := srv.Start(); err != nil {
				logging.Log.Error().Err(err).Msg("fragment server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	b, err := tg.New(cfg.Telegram.Token, tg.WithDefaultHandler(func(ctx context.Context, b *tg.Bot, upd *models.Update) {
		d.HandleUpdate(ctx, b, upd)
	}))
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	logging.Log.Info().Str("data_dir", cfg.DataDir).Str("base_url", cfg.BaseURL).Msg("bot started")
	b.Start(ctx)
	logging.Log.Info().Msg("bot stopped")
	return nil
}
