package handler

import (
	"context"
	"strings"

	tg "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"telegram-fragment-bot/internal/logging"
	"telegram-fragment-bot/internal/metrics"
	"telegram-fragment-bot/internal/render"
)

const failureReply = "sorry, something went wrong saving that"

// Sender is the part of the Telegram client the handler needs.
type Sender interface {
	SendMessage(ctx context.Context, params *tg.SendMessageParams) (*models.Message, error)
}

// HandleUpdate processes a Telegram update. Edited messages are only
// considered for live location, which Telegram delivers as edits.
func (d *Dispatcher) HandleUpdate(ctx context.Context, b Sender, upd *models.Update) {
	ctx = logging.Context(ctx)

	msg := upd.Message
	if msg == nil && upd.EditedMessage != nil && upd.EditedMessage.Location != nil {
		msg = upd.EditedMessage
	}
	if msg == nil || msg.From == nil {
		return
	}
	ctx = logging.WithUser(ctx, msg.From.ID)
	log := logging.Ctx(ctx)

	ev := eventFromMessage(msg)
	log.Info().Str("event", "telegram_request").Int64("chat_id", ev.ChatID).Str("command", ev.Command).
		Bool("location", ev.Location != nil).Str("snippet", logging.Snippet(ev.Text, 30)).Msg("incoming message")

	reply, err := d.Handle(ctx, ev)
	if err != nil {
		metrics.HandlerError()
		log.Error().Str("event", "dispatch_error").Err(err).Msg("handling failed")
		reply = failureReply
	}
	if reply == "" {
		return
	}
	if _, err := b.SendMessage(ctx, &tg.SendMessageParams{
		ChatID:          msg.Chat.ID,
		Text:            reply,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	}); err != nil {
		log.Error().Err(err).Msg("send reply failed")
	}
}

func eventFromMessage(msg *models.Message) Event {
	ev := Event{UserID: msg.From.ID, ChatID: msg.Chat.ID}
	if loc := msg.Location; loc != nil {
		ev.Location = &render.Point{Lat: loc.Latitude, Lon: loc.Longitude}
		return ev
	}
	if cmd, args, ok := parseCommand(msg); ok {
		ev.Command = cmd
		ev.Args = strings.Fields(args)
		return ev
	}
	ev.Text = msg.Text
	return ev
}

// parseCommand splits "/cmd@bot args" into its parts when the message starts
// with a bot command entity.
func parseCommand(msg *models.Message) (cmd, args string, ok bool) {
	if msg.Text == "" {
		return "", "", false
	}
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 && e.Length <= len(msg.Text) {
			cmd = strings.TrimPrefix(msg.Text[:e.Length], "/")
			if i := strings.IndexByte(cmd, '@'); i >= 0 {
				cmd = cmd[:i]
			}
			args = strings.TrimSpace(msg.Text[e.Length:])
			return cmd, args, true
		}
	}
	return "", "", false
}
