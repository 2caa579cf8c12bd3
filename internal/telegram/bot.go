package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/rwbrr/playable-bot/internal/builder"
	"github.com/rwbrr/playable-bot/internal/config"
	"github.com/rwbrr/playable-bot/internal/cryptopay"
	"github.com/rwbrr/playable-bot/internal/pricing"
	"github.com/rwbrr/playable-bot/internal/session"
	"github.com/rwbrr/playable-bot/internal/storage"
)

// Bot wraps the telegram bot with the storefront handlers
type Bot struct {
	bot      *bot.Bot
	cfg      *config.Config
	storage  *storage.Storage
	sessions *session.Store
	pricing  *pricing.Resolver
	gateway  *cryptopay.Client
	bridge   *builder.Bridge
	library  *builder.Library
	log      *slog.Logger

	usernameOnce sync.Once
	username     string
}

// New creates a new telegram bot
func New(cfg *config.Config, store *storage.Storage, sessions *session.Store, resolver *pricing.Resolver, gateway *cryptopay.Client, bridge *builder.Bridge, library *builder.Library, log *slog.Logger) (*Bot, error) {
	b := &Bot{
		cfg:      cfg,
		storage:  store,
		sessions: sessions,
		pricing:  resolver,
		gateway:  gateway,
		bridge:   bridge,
		library:  library,
		log:      log,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
		bot.WithMiddlewares(b.bannedMiddleware),
	}

	tgBot, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot

	// Register command handlers
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start ", bot.MatchTypePrefix, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/grantorder", bot.MatchTypePrefix, b.grantOrderHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/addbalance", bot.MatchTypePrefix, b.addBalanceHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/setdiscount", bot.MatchTypePrefix, b.setDiscountHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/ban", bot.MatchTypePrefix, b.banHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/unban", bot.MatchTypePrefix, b.unbanHandler)

	return b, nil
}

// Start starts the bot polling
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.cfg.AdminTelegramID != 0 && userID == b.cfg.AdminTelegramID
}

// bannedMiddleware drops every update from a banned user. The admin is
// never blocked, a typo in the ban list must not lock out moderation.
func (b *Bot) bannedMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
		var userID int64
		switch {
		case update.Message != nil && update.Message.From != nil:
			userID = update.Message.From.ID
		case update.CallbackQuery != nil:
			userID = update.CallbackQuery.From.ID
		}
		if userID != 0 && !b.isAdmin(userID) && b.storage.IsBanned(userID) {
			return
		}
		next(ctx, tgBot, update)
	}
}

// botUsername resolves and caches the bot's own username for referral links.
func (b *Bot) botUsername(ctx context.Context) string {
	b.usernameOnce.Do(func() {
		me, err := b.bot.GetMe(ctx)
		if err != nil {
			b.log.Error("get me", "error", err)
			return
		}
		b.username = me.Username
	})
	return b.username
}

// --- Send helpers ---

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		b.log.Error("send message", "error", err)
	}
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.EditMessageText(ctx, params)
	if err != nil {
		b.log.Error("edit message", "error", err)
	}
}

// editOrReply edits the callback's message when possible, otherwise sends
// a fresh one (the original may be a photo caption or too old to edit).
func (b *Bot) editOrReply(ctx context.Context, cb *models.CallbackQuery, text string, keyboard *models.InlineKeyboardMarkup) {
	if cb.Message.Message == nil {
		b.sendMessage(ctx, cb.From.ID, text, keyboard)
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    cb.Message.Message.Chat.ID,
		MessageID: cb.Message.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := b.bot.EditMessageText(ctx, params); err != nil {
		b.sendMessage(ctx, cb.Message.Message.Chat.ID, text, keyboard)
	}
}

// sendDocument uploads a local file as a document.
func (b *Bot) sendDocument(ctx context.Context, chatID int64, path, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	_, err = b.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

// sendPhotoCached sends a photo, reusing the telegram file id from a
// previous upload of the same asset when one is cached.
func (b *Bot) sendPhotoCached(ctx context.Context, chatID int64, assetKey, path, caption string, keyboard *models.InlineKeyboardMarkup) {
	if fileID := b.storage.GetAsset(assetKey); fileID != "" {
		params := &bot.SendPhotoParams{
			ChatID:    chatID,
			Photo:     &models.InputFileString{Data: fileID},
			Caption:   caption,
			ParseMode: models.ParseModeHTML,
		}
		if keyboard != nil {
			params.ReplyMarkup = keyboard
		}
		if _, err := b.bot.SendPhoto(ctx, params); err == nil {
			return
		}
		// A stale file id is re-uploaded below.
	}

	f, err := os.Open(path)
	if err != nil {
		b.sendMessage(ctx, chatID, caption, keyboard)
		return
	}
	defer f.Close()

	params := &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	msg, err := b.bot.SendPhoto(ctx, params)
	if err != nil {
		b.log.Error("send photo", "error", err)
		b.sendMessage(ctx, chatID, caption, keyboard)
		return
	}
	if len(msg.Photo) > 0 {
		if err := b.storage.SetAsset(assetKey, msg.Photo[len(msg.Photo)-1].FileID); err != nil {
			b.log.Error("cache asset", "error", err, "key", assetKey)
		}
	}
}

// SendNotification sends a notification message to a user
func (b *Bot) SendNotification(ctx context.Context, userID int64, text string, keyboard *models.InlineKeyboardMarkup) error {
	disablePreview := true
	params := &bot.SendMessageParams{
		ChatID:    userID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disablePreview,
		},
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	return err
}

func (b *Bot) notifyAdmin(ctx context.Context, text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	if err := b.SendNotification(ctx, b.cfg.AdminTelegramID, text, nil); err != nil {
		b.log.Error("notify admin", "error", err)
	}
}
