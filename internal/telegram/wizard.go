package telegram

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/rwbrr/playable-bot/internal/session"
)

const (
	maxStartingBalance = 1_000_000_000
	maxCTAURLLength    = 500
	maxCustomGeoLength = 400
	maxWizardAttempts  = 3
	maxCustomPending   = 3
)

var (
	nonDigitRe   = regexp.MustCompile(`\D`)
	schemeRe     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// parseStartingBalance extracts a starting balance from free-form input.
// Every non-digit is stripped first, so "1,000" and "$500" both parse.
// Returns nil when no digits remain or the value exceeds the cap.
func parseStartingBalance(text string) *int {
	digits := nonDigitRe.ReplaceAllString(text, "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	if n > maxStartingBalance {
		return nil
	}
	return &n
}

// normalizeCTAURL validates a click-through URL, defaulting the scheme to
// https when the user pasted a bare domain. Returns "" when unusable.
func normalizeCTAURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxCTAURLLength {
		return ""
	}
	if !schemeRe.MatchString(raw) {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return raw
}

// parsePayCallback splits "pay_<type>_<orderID>" callback data.
func parsePayCallback(data string) (payType, orderID string, ok bool) {
	switch {
	case strings.HasPrefix(data, "pay_single_"):
		return "single", strings.TrimPrefix(data, "pay_single_"), true
	case strings.HasPrefix(data, "pay_sub_"):
		return "sub", strings.TrimPrefix(data, "pay_sub_"), true
	}
	return "", "", false
}

// expireStaleWizard clears an abandoned wizard and tells the user. Returns
// true when the wizard was dropped.
func (b *Bot) expireStaleWizard(ctx context.Context, userID int64, sess *session.Session) bool {
	if sess.Wizard == nil || !sess.Wizard.Expired(time.Now()) {
		return false
	}
	sess.ClearWizard()
	if err := b.sessions.Save(userID, sess); err != nil {
		b.log.Error("save session", "error", err, "user_id", userID)
	}
	b.sendMessage(ctx, userID, "⏳ Сессия заказа истекла. Начните заново.", MainMenuNavKeyboard(b.storage.GetUserLanguage(userID)))
	return true
}

func (b *Bot) handleGeoSelect(ctx context.Context, cb *models.CallbackQuery, geoID string) {
	userID := cb.From.ID
	sess := b.sessions.Get(userID)
	if b.expireStaleWizard(ctx, userID, sess) {
		return
	}
	if sess.Wizard == nil || sess.Wizard.Stage != session.StageGeo {
		return
	}

	if geoID == "custom" {
		pending, err := b.storage.CountOrdersByStatus(userID, "custom_pending")
		if err != nil {
			b.log.Error("count custom orders", "error", err, "user_id", userID)
		}
		if pending >= maxCustomPending {
			b.editOrReply(ctx, cb, "У вас уже есть 3 заявки на кастомное GEO в обработке. Дождитесь ответа по ним.", MainMenuNavKeyboard(b.storage.GetUserLanguage(userID)))
			return
		}
		sess.SetWizard(session.StageCustomGeoDesc, 0)
		if err := b.sessions.Save(userID, sess); err != nil {
			b.log.Error("save session", "error", err, "user_id", userID)
		}
		b.editOrReply(ctx, cb,
			"📝 Опишите нужное GEO: страна, язык, валюта и любые детали.\nОдним сообщением, до 400 символов.",
			nil)
		return
	}

	geo := geoByID(geoID)
	if geo == nil {
		b.editOrReply(ctx, cb, "Неизвестное GEO. Попробуйте ещё раз.", GeoKeyboard())
		return
	}

	sess.Config.GeoID = geo.ID
	sess.Config.Language = geo.Lang
	sess.Config.Currency = geo.Currency
	sess.SetWizard(session.StageStartingBalance, 0)
	if err := b.sessions.Save(userID, sess); err != nil {
		b.log.Error("save session", "error", err, "user_id", userID)
	}

	b.editOrReply(ctx, cb,
		fmt.Sprintf("💰 Введите стартовый баланс игрока (число, например 1000).\nВалюта: %s", geo.Currency),
		SkipBalanceKeyboard())
}

func (b *Bot) handleSkipStartingBalance(ctx context.Context, cb *models.CallbackQuery) {
	userID := cb.From.ID
	sess := b.sessions.Get(userID)
	if b.expireStaleWizard(ctx, userID, sess) {
		return
	}
	if sess.Wizard == nil || sess.Wizard.Stage != session.StageStartingBalance {
		return
	}

	sess.Config.StartingBalance = defaultBalanceForGame(sess.Config.Game)
	sess.SetWizard(session.StageCTAURL, 0)
	if err := b.sessions.Save(userID, sess); err != nil {
		b.log.Error("save session", "error", err, "user_id", userID)
	}

	b.editOrReply(ctx, cb, ctaPrompt, nil)
}

const ctaPrompt = "🔗 Отправьте CTA-ссылку, куда ведёт playable (например, ссылку оффера).\nМожно без https:// — бот подставит сам."

// handleWizardMessage routes a free-form message into the active wizard
// stage. Returns false when no wizard is waiting for input.
func (b *Bot) handleWizardMessage(ctx context.Context, msg *models.Message, text string) bool {
	userID := msg.From.ID
	sess := b.sessions.Get(userID)
	if sess.Wizard == nil {
		return false
	}
	if b.expireStaleWizard(ctx, userID, sess) {
		return true
	}

	switch sess.Wizard.Stage {
	case session.StageCustomGeoDesc:
		b.handleCustomGeoDesc(ctx, userID, sess, text)
	case session.StageStartingBalance:
		b.handleStartingBalanceInput(ctx, userID, sess, text)
	case session.StageCTAURL:
		b.handleCTAURLInput(ctx, userID, sess, text)
	default:
		return false
	}
	return true
}

func (b *Bot) handleCustomGeoDesc(ctx context.Context, userID int64, sess *session.Session, text string) {
	desc := whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	if desc == "" {
		b.sendMessage(ctx, userID, "Опишите GEO текстом, одним сообщением.", nil)
		return
	}
	if len([]rune(desc)) > maxCustomGeoLength {
		desc = string([]rune(desc)[:maxCustomGeoLength])
	}

	orderID := fmt.Sprintf("custom_%d_%d", userID, time.Now().UnixMilli())
	err := b.storage.CreateOrder(orderID, userID, "custom_geo", "", map[string]any{
		"description": desc,
	})
	if err != nil {
		b.log.Error("create custom order", "error", err, "user_id", userID)
		b.sendMessage(ctx, userID, "Не удалось сохранить заявку, попробуйте позже.", MainMenuNavKeyboard(b.storage.GetUserLanguage(userID)))
		return
	}
	if err := b.storage.SetOrderStatus(orderID, "custom_pending"); err != nil {
		b.log.Error("mark custom order", "error", err, "order_id", orderID)
	}

	sess.ClearWizard()
	if err := b.sessions.Save(userID, sess); err != nil {
		b.log.Error("save session", "error", err, "user_id", userID)
	}

	b.storage.LogAction(userID, "custom_geo_request", orderID)
	b.notifyAdmin(ctx, fmt.Sprintf("📝 Новая заявка на кастомное GEO\nUser: <code>%d</code>\nOrder: <code>%s</code>\n\n%s", userID, orderID, desc))
	b.sendMessage(ctx, userID, "✅ Заявка принята! Менеджер свяжется с вами по кастомному GEO.", MainMenuNavKeyboard(b.storage.GetUserLanguage(userID)))
}

func (b *Bot) handleStartingBalanceInput(ctx context.Context, userID int64, sess *session.Session, text string) {
	balance := parseStartingBalance(text)
	if balance == nil {
		attempts := sess.Wizard.Attempts + 1
		if attempts >= maxWizardAttempts {
			sess.Config.StartingBalance = defaultBalanceForGame(sess.Config.Game)
			sess.SetWizard(session.StageCTAURL, 0)
			if err := b.sessions.Save(userID, sess); err != nil {
				b.log.Error("save session", "error", err, "user_id", userID)
			}
			b.sendMessage(ctx, userID,
				fmt.Sprintf("Не получилось распознать число, взял значение по умолчанию: %d.\n\n%s", sess.Config.StartingBalance, ctaPrompt),
				nil)
			return
		}
		sess.SetWizard(session.StageStartingBalance, attempts)
		if err := b.sessions.Save(userID, sess); err != nil {
			b.log.Error("save session", "error", err, "user_id", userID)
		}
		b.sendMessage(ctx, userID, "Введите число, например 1000.", SkipBalanceKeyboard())
		return
	}

	sess.Config.StartingBalance = *balance
	sess.SetWizard(session.StageCTAURL, 0)
	if err := b.sessions.Save(userID, sess); err != nil {
		b.log.Error("save session", "error", err, "user_id", userID)
	}
	b.sendMessage(ctx, userID, ctaPrompt, nil)
}

func (b *Bot) handleCTAURLInput(ctx context.Context, userID int64, sess *session.Session, text string) {
	normalized := normalizeCTAURL(text)
	if normalized == "" {
		attempts := sess.Wizard.Attempts + 1
		if attempts >= maxWizardAttempts {
			sess.ClearWizard()
			if err := b.sessions.Save(userID, sess); err != nil {
				b.log.Error("save session", "error", err, "user_id", userID)
			}
			b.sendMessage(ctx, userID, "Не удалось принять ссылку. Начните заказ заново.", MainMenuNavKeyboard(b.storage.GetUserLanguage(userID)))
			return
		}
		sess.SetWizard(session.StageCTAURL, attempts)
		if err := b.sessions.Save(userID, sess); err != nil {
			b.log.Error("save session", "error", err, "user_id", userID)
		}
		b.sendMessage(ctx, userID, "Ссылка не похожа на рабочий URL. Пришлите вида https://example.com/offer", nil)
		return
	}

	sess.Config.ClickURL = normalized
	sess.ClearWizard()
	if err := b.sessions.Save(userID, sess); err != nil {
		b.log.Error("save session", "error", err, "user_id", userID)
	}
	b.storage.LogAction(userID, "set_click_url", normalized)

	b.sendMessage(ctx, userID, b.orderSummary(sess), SummaryKeyboard())
}

// orderSummary renders the assembled configuration before preview.
func (b *Bot) orderSummary(sess *session.Session) string {
	title := sess.Config.Game
	if game := gameByKey(sess.Config.Game); game != nil {
		title = game.Title
	}
	geoName := sess.Config.GeoID
	if geo := geoByID(sess.Config.GeoID); geo != nil {
		geoName = geo.Name
	}
	return fmt.Sprintf(
		"📋 <b>Ваш заказ:</b>\n\n"+
			"🎮 Игра: %s\n"+
			"🌍 GEO: %s\n"+
			"💰 Стартовый баланс: %d %s\n"+
			"🔗 CTA: %s\n\n"+
			"Нажмите кнопку, чтобы собрать превью с водяным знаком.",
		title, geoName, sess.Config.StartingBalance, sess.Config.Currency, sess.Config.ClickURL,
	)
}
