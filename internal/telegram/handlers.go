package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/rwbrr/playable-bot/internal/pricing"
	"github.com/rwbrr/playable-bot/internal/session"
)

// --- Commands ---

func (b *Bot) startHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	from := update.Message.From
	userID := from.ID

	if err := b.storage.UpsertUser(userID, from.Username, from.FirstName); err != nil {
		b.log.Error("upsert user", "error", err, "user_id", userID)
	}
	if from.LanguageCode == "en" {
		if _, err := b.storage.SetUserLanguage(userID, "en"); err != nil {
			b.log.Error("set language", "error", err, "user_id", userID)
		}
	}

	// "/start ref12345" binds the referrer once, never to yourself.
	if arg := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/start")); strings.HasPrefix(arg, "ref") {
		if referrerID, err := strconv.ParseInt(strings.TrimPrefix(arg, "ref"), 10, 64); err == nil {
			bound, err := b.storage.SetReferrer(userID, referrerID)
			if err != nil {
				b.log.Error("set referrer", "error", err, "user_id", userID)
			} else if bound {
				b.storage.LogAction(userID, "referral_join", fmt.Sprintf("referrer=%d", referrerID))
				if err := b.SendNotification(ctx, referrerID, "🤝 По вашей ссылке пришёл новый пользователь!", nil); err != nil {
					b.log.Error("notify referrer", "error", err, "referrer_id", referrerID)
				}
			}
		}
	}

	b.storage.LogAction(userID, "start_bot", "")

	lang := b.storage.GetUserLanguage(userID)
	b.sendMessage(ctx, update.Message.Chat.ID, t(lang, "start_intro"), MainMenuKeyboard(lang))
}

// --- Default message handler ---

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message
	text := msg.Text

	// A pending manual payment claims the next message as transfer proof,
	// before the wizard sees it.
	if b.handleManualProof(ctx, msg, text) {
		return
	}

	if b.handleWizardMessage(ctx, msg, text) {
		return
	}

	lang := b.storage.GetUserLanguage(msg.From.ID)
	b.sendMessage(ctx, msg.Chat.ID, t(lang, "start_intro"), MainMenuKeyboard(lang))
}

// --- Callback dispatch ---

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	data := cb.Data

	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	switch {
	case data == "main_menu":
		b.showMainMenu(ctx, cb)
	case data == "order":
		b.showCategories(ctx, cb)
	case strings.HasPrefix(data, "cat_"):
		b.showCategory(ctx, cb, data)
	case strings.HasPrefix(data, "game_"):
		b.showGameCard(ctx, cb, data)
	case strings.HasPrefix(data, "buy_check_"):
		b.handleBuyCheck(ctx, cb, data)
	case strings.HasPrefix(data, "geo_"):
		b.handleGeoSelect(ctx, cb, strings.TrimPrefix(data, "geo_"))
	case data == "skip_starting_balance":
		b.handleSkipStartingBalance(ctx, cb)
	case data == "gen_preview":
		b.handleGenPreview(ctx, cb)
	case strings.HasPrefix(data, "payment_cancel_"):
		b.handlePaymentCancel(ctx, cb, strings.TrimPrefix(data, "payment_cancel_"))
	case strings.HasPrefix(data, "crypto_check_"):
		b.handleCryptoCheck(ctx, cb, strings.TrimPrefix(data, "crypto_check_"))
	case strings.HasPrefix(data, "manual_pay_menu_"):
		b.handleManualPayMenu(ctx, cb, strings.TrimPrefix(data, "manual_pay_menu_"))
	case strings.HasPrefix(data, "manual_pay_single_"):
		b.handleManualPay(ctx, cb, "single", strings.TrimPrefix(data, "manual_pay_single_"))
	case strings.HasPrefix(data, "manual_pay_sub_"):
		b.handleManualPay(ctx, cb, "sub", strings.TrimPrefix(data, "manual_pay_sub_"))
	case strings.HasPrefix(data, "manual_paid_"):
		b.handleManualPaid(ctx, cb, strings.TrimPrefix(data, "manual_paid_"))
	case strings.HasPrefix(data, "admin_manual_approve_"):
		b.handleAdminManualApprove(ctx, cb, strings.TrimPrefix(data, "admin_manual_approve_"))
	case strings.HasPrefix(data, "admin_manual_reject_"):
		b.handleAdminManualReject(ctx, cb, strings.TrimPrefix(data, "admin_manual_reject_"))
	case strings.HasPrefix(data, "pay_"):
		b.handlePay(ctx, cb, data)
	case data == "profile":
		b.showProfile(ctx, cb)
	case data == "top_up_balance":
		b.showTopUp(ctx, cb)
	case data == "i_paid":
		b.handleTopUpPaid(ctx, cb)
	case data == "ref_system":
		b.showReferral(ctx, cb)
	case data == "language_menu":
		b.showLanguageMenu(ctx, cb)
	case strings.HasPrefix(data, "set_lang_"):
		b.handleSetLanguage(ctx, cb, strings.TrimPrefix(data, "set_lang_"))
	default:
		b.log.Warn("unknown callback", "data", data, "user_id", cb.From.ID)
	}
}

// --- Navigation ---

func (b *Bot) showMainMenu(ctx context.Context, cb *models.CallbackQuery) {
	lang := b.storage.GetUserLanguage(cb.From.ID)
	b.editOrReply(ctx, cb, t(lang, "start_intro"), MainMenuKeyboard(lang))
}

func (b *Bot) showCategories(ctx context.Context, cb *models.CallbackQuery) {
	lang := b.storage.GetUserLanguage(cb.From.ID)
	b.editOrReply(ctx, cb, t(lang, "choose_category"), CategoriesKeyboard(lang))
}

func (b *Bot) showCategory(ctx context.Context, cb *models.CallbackQuery, category string) {
	lang := b.storage.GetUserLanguage(cb.From.ID)

	var rows [][]models.InlineKeyboardButton
	for _, game := range Games {
		if game.Category != category {
			continue
		}
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: game.Title, CallbackData: game.ID},
		})
	}
	if len(rows) == 0 {
		b.editOrReply(ctx, cb, "В этой категории пока пусто.", CategoriesKeyboard(lang))
		return
	}
	rows = append(rows, []models.InlineKeyboardButton{{Text: t(lang, "back"), CallbackData: "order"}})

	b.editOrReply(ctx, cb, "Выберите шаблон:", inlineKeyboard(rows))
}

func (b *Bot) showGameCard(ctx context.Context, cb *models.CallbackQuery, gameID string) {
	game := gameByID(gameID)
	if game == nil {
		b.showCategories(ctx, cb)
		return
	}

	userID := cb.From.ID
	quote, err := b.pricing.EffectiveDiscount(userID, game.Category)
	if err != nil {
		b.log.Error("pricing quote", "error", err, "user_id", userID)
	}

	single := pricing.Price(b.cfg.Prices.Single, quote.Discount)
	sub := pricing.Price(b.cfg.Prices.Sub, quote.Discount)

	caption := fmt.Sprintf(
		"🎮 <b>%s</b>\n\n%s\n\n💳 Разово: <b>$%d</b>\n⭐ Подписка: <b>$%d</b>",
		game.Title, game.Description, single, sub,
	)
	if quote.Discount > 0 {
		caption += fmt.Sprintf("\n🔥 Ваша скидка: <b>%d%%</b>", quote.Discount)
	}

	keyboard := inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: "🛒 Заказать", CallbackData: game.BuyCallback}},
		{{Text: "👀 Демо", URL: game.DemoURL}},
		{{Text: "🔙 Назад", CallbackData: game.Category}},
	})

	assetPath := filepath.Join(b.cfg.AssetsDir, game.Key+".jpg")
	b.sendPhotoCached(ctx, chatIDFor(cb), "card_"+game.Key, assetPath, caption, keyboard)
}

func chatIDFor(cb *models.CallbackQuery) int64 {
	if cb.Message.Message != nil {
		return cb.Message.Message.Chat.ID
	}
	return cb.From.ID
}

// handleBuyCheck resets the session config to the chosen game and starts
// the wizard at geo selection.
func (b *Bot) handleBuyCheck(ctx context.Context, cb *models.CallbackQuery, data string) {
	game := gameByBuyCallback(data)
	if game == nil {
		b.showCategories(ctx, cb)
		return
	}

	userID := cb.From.ID
	lang := b.storage.GetUserLanguage(userID)

	// Without a payment gateway the wallet balance is the only payment
	// path, so an empty wallet is rejected before the wizard starts.
	if !b.gateway.Enabled() {
		stats, err := b.storage.GetUserStats(userID)
		if err != nil {
			b.log.Error("user stats", "error", err, "user_id", userID)
		}
		quote, err := b.pricing.EffectiveDiscount(userID, game.Category)
		if err != nil {
			b.log.Error("pricing quote", "error", err, "user_id", userID)
		}
		minPrice := pricing.Price(b.cfg.Prices.Single, quote.Discount)
		if stats.WalletBalance < float64(minPrice) {
			b.sendMessage(ctx, chatIDFor(cb), fmt.Sprintf(
				"💳 Оплата сейчас доступна только с баланса.\nНужно минимум <b>$%d</b>, на балансе $%.2f. Пополните баланс в профиле.",
				minPrice, stats.WalletBalance,
			), ProfileKeyboard(lang))
			return
		}
	}

	sess := b.sessions.Get(userID)
	sess.Config.Game = game.Key
	sess.Config.ThemeID = game.Theme
	sess.Config.GeoID = ""
	sess.Config.ClickURL = ""
	sess.Config.StartingBalance = 0
	sess.SetWizard(session.StageGeo, 0)
	if err := b.sessions.Save(userID, sess); err != nil {
		b.log.Error("save session", "error", err, "user_id", userID)
	}

	b.sendMessage(ctx, chatIDFor(cb), t(lang, "choose_geo"), GeoKeyboard())
}

// --- Profile, referral, language ---

func (b *Bot) showProfile(ctx context.Context, cb *models.CallbackQuery) {
	userID := cb.From.ID
	lang := b.storage.GetUserLanguage(userID)

	stats, err := b.storage.GetUserStats(userID)
	if err != nil {
		b.log.Error("user stats", "error", err, "user_id", userID)
	}
	loyalty := pricing.LoyaltyDiscount(stats.OrdersPaid)

	text := fmt.Sprintf(
		"👤 <b>Профиль</b>\n\n"+
			"🆔 ID: <code>%d</code>\n"+
			"💰 Баланс: <b>$%.2f</b>\n"+
			"📦 Оплаченных заказов: %d\n"+
			"🤝 Рефералов: %d\n"+
			"🔥 Скидка за лояльность: %d%%",
		userID, stats.WalletBalance, stats.OrdersPaid, stats.ReferralsCount, loyalty,
	)
	b.editOrReply(ctx, cb, text, ProfileKeyboard(lang))
}

func (b *Bot) showTopUp(ctx context.Context, cb *models.CallbackQuery) {
	text := fmt.Sprintf(
		"💰 <b>Пополнение баланса</b>\n\n"+
			"Переведите любую сумму на один из кошельков:\n\n"+
			"USDT (TRC20):\n<code>%s</code>\n\n"+
			"BTC:\n<code>%s</code>\n\n"+
			"После перевода нажмите «Я оплатил», менеджер зачислит сумму на баланс.",
		b.cfg.Wallets.USDTTRC20, b.cfg.Wallets.BTC,
	)
	if b.cfg.Wallets.TON != "" {
		text = strings.Replace(text,
			"После перевода",
			fmt.Sprintf("TON:\n<code>%s</code>\n\nПосле перевода", b.cfg.Wallets.TON),
			1)
	}
	b.editOrReply(ctx, cb, text, TopUpKeyboard())
}

func (b *Bot) handleTopUpPaid(ctx context.Context, cb *models.CallbackQuery) {
	userID := cb.From.ID
	b.storage.LogAction(userID, "topup_claimed", "")
	b.notifyAdmin(ctx, fmt.Sprintf(
		"💰 Пользователь <a href='tg://user?id=%d'>%d</a> (@%s) сообщил о пополнении баланса.\nЗачислить: /addbalance %d сумма",
		userID, userID, cb.From.Username, userID,
	))
	b.editOrReply(ctx, cb, "✅ Заявка отправлена. Баланс будет зачислен после проверки перевода.", MainMenuNavKeyboard(b.storage.GetUserLanguage(userID)))
}

func (b *Bot) showReferral(ctx context.Context, cb *models.CallbackQuery) {
	userID := cb.From.ID
	lang := b.storage.GetUserLanguage(userID)

	stats, err := b.storage.GetUserStats(userID)
	if err != nil {
		b.log.Error("user stats", "error", err, "user_id", userID)
	}

	link := fmt.Sprintf("https://t.me/%s?start=ref%d", b.botUsername(ctx), userID)
	text := fmt.Sprintf(
		"🤝 <b>Реферальная система</b>\n\n"+
			"Приглашайте друзей и получайте <b>22%%</b> от каждой их оплаты на свой баланс.\n\n"+
			"🔗 Ваша ссылка:\n<code>%s</code>\n\n"+
			"👥 Приглашено: %d",
		link, stats.ReferralsCount,
	)
	b.editOrReply(ctx, cb, text, MainMenuNavKeyboard(lang))
}

func (b *Bot) showLanguageMenu(ctx context.Context, cb *models.CallbackQuery) {
	lang := b.storage.GetUserLanguage(cb.From.ID)
	b.editOrReply(ctx, cb, t(lang, "choose_language"), LanguageKeyboard(lang))
}

func (b *Bot) handleSetLanguage(ctx context.Context, cb *models.CallbackQuery, lang string) {
	if lang != "ru" && lang != "en" {
		return
	}
	applied, err := b.storage.SetUserLanguage(cb.From.ID, lang)
	if err != nil {
		b.log.Error("set language", "error", err, "user_id", cb.From.ID)
		applied = lang
	}
	b.editOrReply(ctx, cb, t(applied, "start_intro"), MainMenuKeyboard(applied))
}
