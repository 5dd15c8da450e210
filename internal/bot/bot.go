// Package bot is the Telegram front-end: it answers the chat commands and
// opens the web app through an inline keyboard button.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/AleksKim19/testvideospkbot/internal/metrics"
	"github.com/AleksKim19/testvideospkbot/internal/models"
	"github.com/AleksKim19/testvideospkbot/internal/services"
)

const openAppButtonText = "🎬 Open video app"

// Sender is the part of the Telegram client the handlers use.
type Sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*tgmodels.Message, error)
}

// Refresher triggers an on-demand catalog refresh.
type Refresher interface {
	RefreshNow(ctx context.Context) (services.Result, error)
}

type Handler struct {
	sender     Sender
	refresher  Refresher
	webAppURL  string
	extensions []string
	log        zerolog.Logger
}

func NewHandler(sender Sender, refresher Refresher, webAppURL string, extensions []string, log zerolog.Logger) *Handler {
	return &Handler{
		sender:     sender,
		refresher:  refresher,
		webAppURL:  webAppURL,
		extensions: extensions,
		log:        log.With().Str("component", "bot").Logger(),
	}
}

// Bot wires a Handler to a long-polling Telegram client.
type Bot struct {
	client  *tgbot.Bot
	handler *Handler
}

func New(token string, refresher Refresher, webAppURL string, extensions []string, log zerolog.Logger) (*Bot, error) {
	b := &Bot{}
	client, err := tgbot.New(token, tgbot.WithDefaultHandler(func(ctx context.Context, _ *tgbot.Bot, update *tgmodels.Update) {
		b.handler.Handle(ctx, update)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	b.client = client
	b.handler = NewHandler(client, refresher, webAppURL, extensions, log)
	return b, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.handler.log.Info().Msg("telegram bot started")
	b.client.Start(ctx)
	b.handler.log.Info().Msg("telegram bot stopped")
}

func (h *Handler) Handle(ctx context.Context, update *tgmodels.Update) {
	if update == nil || update.Message == nil {
		return
	}
	msg := update.Message

	if msg.WebAppData != nil {
		metrics.RecordBotUpdate("web_app_data")
		h.handleWebAppData(ctx, msg)
		return
	}

	cmd := commandOf(msg.Text)
	switch cmd {
	case "/start":
		h.handleStart(ctx, msg)
	case "/help":
		h.handleHelp(ctx, msg)
	case "/videos":
		h.handleVideos(ctx, msg)
	case "/refresh":
		h.handleRefresh(ctx, msg)
	default:
		return
	}
	metrics.RecordBotUpdate(strings.TrimPrefix(cmd, "/"))
}

func (h *Handler) handleStart(ctx context.Context, msg *tgmodels.Message) {
	name := "there"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}

	text := fmt.Sprintf("Hi, %s! 👋\n\n"+
		"Welcome to the video bot!\n\n"+
		"🎬 Watch videos from different cities\n"+
		"🏙️ Filter by city\n"+
		"📁 Videos are uploaded straight into a folder on the server", name)

	h.send(ctx, msg.Chat.ID, text, h.webAppKeyboard())
}

func (h *Handler) handleHelp(ctx context.Context, msg *tgmodels.Message) {
	formats := make([]string, 0, len(h.extensions))
	for _, ext := range h.extensions {
		formats = append(formats, strings.ToUpper(strings.TrimPrefix(ext, ".")))
	}

	text := "📖 Bot help:\n\n" +
		"/start - Start the bot\n" +
		"/help - Show this help\n" +
		"/videos - Open the video app\n" +
		"/refresh - Refresh the video list\n\n" +
		"Videos are uploaded straight into the videos folder on the server.\n" +
		"Supported formats: " + strings.Join(formats, ", ")

	h.send(ctx, msg.Chat.ID, text, nil)
}

func (h *Handler) handleVideos(ctx context.Context, msg *tgmodels.Message) {
	h.send(ctx, msg.Chat.ID, "Tap the button to open the app:", h.webAppKeyboard())
}

func (h *Handler) handleRefresh(ctx context.Context, msg *tgmodels.Message) {
	res, err := h.refresher.RefreshNow(ctx)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("refresh from chat failed")
		h.send(ctx, msg.Chat.ID, "⚠️ Could not refresh the video list, try again later.", nil)
		return
	}
	h.send(ctx, msg.Chat.ID, fmt.Sprintf("🔄 Video list refreshed!\n\nVideos found: %d", res.Total), nil)
}

func (h *Handler) handleWebAppData(ctx context.Context, msg *tgmodels.Message) {
	var event models.WebAppEvent
	if err := json.Unmarshal([]byte(msg.WebAppData.Data), &event); err != nil {
		h.log.Warn().Err(err).Int64("chat_id", msg.Chat.ID).Msg("malformed web app data")
		return
	}

	if event.Action != models.ActionVideoPlayed {
		h.log.Debug().Str("action", event.Action).Msg("ignoring web app action")
		return
	}

	h.log.Info().
		Int64("chat_id", msg.Chat.ID).
		Str("title", event.VideoTitle).
		Str("city", event.City).
		Msg("video played")
	h.send(ctx, msg.Chat.ID, fmt.Sprintf("🎬 You watched \"%s\" from %s", event.VideoTitle, event.City), nil)
}

func (h *Handler) webAppKeyboard() tgmodels.ReplyMarkup {
	if h.webAppURL == "" {
		return nil
	}
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{{Text: openAppButtonText, WebApp: &tgmodels.WebAppInfo{URL: h.webAppURL}}},
		},
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string, markup tgmodels.ReplyMarkup) {
	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := h.sender.SendMessage(ctx, params); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

// commandOf returns the leading bot command of text, without any
// @botname suffix, or "" when text does not start with a command.
func commandOf(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd)
}
