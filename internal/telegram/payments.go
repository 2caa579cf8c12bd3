package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/rwbrr/playable-bot/internal/cryptopay"
	"github.com/rwbrr/playable-bot/internal/session"
	"github.com/rwbrr/playable-bot/internal/storage"
)

const deliveryDelay = 30 * time.Second

// --- Preview ---

func (b *Bot) handleGenPreview(ctx context.Context, cb *models.CallbackQuery) {
	userID := cb.From.ID
	lang := b.storage.GetUserLanguage(userID)
	sess := b.sessions.Get(userID)

	if sess.Config.Game == "" || sess.Config.ThemeID == "" || sess.Config.GeoID == "" {
		b.editOrReply(ctx, cb, "Конфигурация заказа неполная. Начните заказ заново.", MainMenuNavKeyboard(lang))
		return
	}

	// The CTA may be missing after a session reset; the last accepted URL
	// from the audit log is recovered before giving up.
	if sess.Config.ClickURL == "" {
		if entry, err := b.storage.GetLastLogByAction(userID, "set_click_url"); err == nil && entry != nil {
			sess.Config.ClickURL = normalizeCTAURL(entry.Details)
		}
	}
	if sess.Config.ClickURL == "" {
		b.editOrReply(ctx, cb, "Не хватает CTA-ссылки. Начните заказ заново.", MainMenuNavKeyboard(lang))
		return
	}

	if sess.PreviewInProgress {
		b.editOrReply(ctx, cb, "⏳ Превью уже собирается, подождите немного.", nil)
		return
	}
	sess.PreviewInProgress = true
	if err := b.sessions.Save(userID, sess); err != nil {
		b.log.Error("save session", "error", err, "user_id", userID)
	}
	defer func() {
		sess.PreviewInProgress = false
		if err := b.sessions.Save(userID, sess); err != nil {
			b.log.Error("save session", "error", err, "user_id", userID)
		}
	}()

	orderID := fmt.Sprintf("ord_%d_%d", userID, time.Now().UnixMilli())
	orderConfig := map[string]any{
		"game":            sess.Config.Game,
		"themeId":         sess.Config.ThemeID,
		"geoId":           sess.Config.GeoID,
		"language":        sess.Config.Language,
		"currency":        sess.Config.Currency,
		"startingBalance": sess.Config.StartingBalance,
		"clickUrl":        sess.Config.ClickURL,
	}
	if err := b.storage.CreateOrder(orderID, userID, sess.Config.Game, sess.Config.ThemeID, orderConfig); err != nil {
		b.log.Error("create order", "error", err, "user_id", userID)
		b.editOrReply(ctx, cb, "Не удалось создать заказ, попробуйте позже.", MainMenuNavKeyboard(lang))
		return
	}
	b.storage.LogAction(userID, "order_created", orderID)

	b.editOrReply(ctx, cb, "⚙️ Собираю превью с водяным знаком...", nil)

	previewPath := b.library.Path(sess.Config.Game, sess.Config.GeoID, true)
	if previewPath == "" {
		buildConfig := cloneConfig(orderConfig)
		buildConfig["isWatermarked"] = true
		path, err := b.bridge.Generate(ctx, orderID, buildConfig)
		if err != nil {
			b.log.Error("preview build", "error", err, "order_id", orderID)
		}
		previewPath = path
	}
	if previewPath == "" {
		b.sendMessage(ctx, userID, "Ошибка сборки.", MainMenuNavKeyboard(lang))
		return
	}

	if err := b.sendDocument(ctx, userID, previewPath, "👆 Превью с водяным знаком. После оплаты придёт чистая финальная версия."); err != nil {
		b.log.Error("send preview", "error", err, "order_id", orderID)
	}

	b.sendPaymentMenu(ctx, userID, orderID, sess.Config.Game)
}

func (b *Bot) sendPaymentMenu(ctx context.Context, userID int64, orderID, gameKey string) {
	category := categoryForGame(gameKey)
	singleAmount, _, err := b.pricing.Amount(userID, storage.PayTypeSingle, category)
	if err != nil {
		b.log.Error("pricing amount", "error", err, "user_id", userID)
		singleAmount = b.cfg.Prices.Single
	}
	subAmount, discount, err := b.pricing.Amount(userID, storage.PayTypeSub, category)
	if err != nil {
		b.log.Error("pricing amount", "error", err, "user_id", userID)
		subAmount = b.cfg.Prices.Sub
	}

	text := "💳 <b>Выберите вариант покупки:</b>"
	if discount > 0 {
		text += fmt.Sprintf("\n🔥 Применена скидка %d%%", discount)
	}

	var demoURL string
	if game := gameByKey(gameKey); game != nil {
		demoURL = game.DemoURL
	}
	b.sendMessage(ctx, userID, text, PaymentOptionsKeyboard(orderID, demoURL, singleAmount, subAmount))
}

func cloneConfig(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// --- Order loading guards ---

// loadOwnOrder resolves an order for a callback, enforcing ownership and
// reporting terminal states to the user. Returns nil when handled.
func (b *Bot) loadOwnOrder(ctx context.Context, cb *models.CallbackQuery, orderID string) *storage.Order {
	order, err := b.storage.GetOrder(orderID)
	if err != nil || order.UserID != cb.From.ID {
		b.editOrReply(ctx, cb, "Заказ не найден.", MainMenuNavKeyboard(b.storage.GetUserLanguage(cb.From.ID)))
		return nil
	}
	if order.IsCancelled() {
		b.editOrReply(ctx, cb, cancelledOrderText, CancelledOrderKeyboard())
		return nil
	}
	return order
}

// --- Payment entry ---

func (b *Bot) handlePay(ctx context.Context, cb *models.CallbackQuery, data string) {
	payType, orderID, ok := parsePayCallback(data)
	if !ok {
		return
	}
	userID := cb.From.ID
	lang := b.storage.GetUserLanguage(userID)

	order := b.loadOwnOrder(ctx, cb, orderID)
	if order == nil {
		return
	}
	if order.IsPaid() {
		b.editOrReply(ctx, cb, "✅ Заказ уже оплачен.", nil)
		b.deliverFinalOrder(ctx, userID, order)
		return
	}

	amount, discount, err := b.pricing.Amount(userID, payType, categoryForGame(order.GameType))
	if err != nil {
		b.log.Error("pricing amount", "error", err, "user_id", userID)
		b.editOrReply(ctx, cb, "Не удалось рассчитать цену, попробуйте позже.", MainMenuNavKeyboard(lang))
		return
	}

	if b.gateway.Enabled() {
		b.startCryptoPayment(ctx, cb, order, payType, amount, discount)
		return
	}

	b.payFromWallet(ctx, cb, order, payType, amount, discount)
}

func (b *Bot) startCryptoPayment(ctx context.Context, cb *models.CallbackQuery, order *storage.Order, payType string, amount, discount int) {
	userID := cb.From.ID
	lang := b.storage.GetUserLanguage(userID)

	description := fmt.Sprintf("Playable %s (%s)", order.GameType, payType)
	invoice, err := b.gateway.CreateInvoice(ctx, amount, description, order.OrderID, time.Hour)
	if err != nil {
		b.log.Error("create invoice", "error", err, "order_id", order.OrderID)
		b.editOrReply(ctx, cb, "Не удалось создать счёт, попробуйте позже.", MainMenuNavKeyboard(lang))
		return
	}

	_, err = b.storage.UpdateOrderConfig(order.OrderID, map[string]any{
		"payment": map[string]any{
			"provider":  "crypto_pay",
			"invoiceId": invoice.InvoiceID,
			"payUrl":    invoice.PayURL,
			"type":      payType,
			"amount":    amount,
			"discount":  discount,
		},
	})
	if err != nil {
		b.log.Error("store invoice", "error", err, "order_id", order.OrderID)
		b.editOrReply(ctx, cb, "Не удалось сохранить счёт, попробуйте позже.", MainMenuNavKeyboard(lang))
		return
	}
	b.storage.LogAction(userID, "invoice_created", fmt.Sprintf("%s invoice=%d", order.OrderID, invoice.InvoiceID))

	text := fmt.Sprintf(
		"💳 Счёт на <b>$%d</b> создан.\n\nОплатите через Crypto Bot и нажмите «Проверить оплату».",
		amount,
	)
	b.editOrReply(ctx, cb, text, CryptoInvoiceKeyboard(order.OrderID, invoice.PayURL))
}

func (b *Bot) payFromWallet(ctx context.Context, cb *models.CallbackQuery, order *storage.Order, payType string, amount, discount int) {
	userID := cb.From.ID
	lang := b.storage.GetUserLanguage(userID)

	newBalance, err := b.storage.FinalizeOrder(order.OrderID, userID, "paid_wallet_"+payType, amount, discount)
	switch {
	case errors.Is(err, storage.ErrAlreadyPaid):
		b.editOrReply(ctx, cb, "✅ Заказ уже оплачен.", nil)
		b.deliverFinalOrder(ctx, userID, order)
		return
	case errors.Is(err, storage.ErrInsufficientFunds):
		b.editOrReply(ctx, cb, fmt.Sprintf(
			"Недостаточно средств на балансе. Нужно <b>$%d</b>. Пополните баланс в профиле.", amount,
		), ProfileKeyboard(lang))
		return
	case err != nil:
		b.log.Error("finalize order", "error", err, "order_id", order.OrderID)
		b.editOrReply(ctx, cb, "Заказ не найден.", MainMenuNavKeyboard(lang))
		return
	}

	b.storage.LogAction(userID, "payment_success", fmt.Sprintf("%s wallet $%d", order.OrderID, amount))
	if err := b.storage.AddReferralReward(userID, amount); err != nil {
		b.log.Error("referral reward", "error", err, "user_id", userID)
	}

	b.editOrReply(ctx, cb, fmt.Sprintf("✅ Оплачено с баланса. Остаток: <b>$%.2f</b>", newBalance), nil)
	b.deliverFinalOrder(ctx, userID, order)
}

// --- Crypto invoice check ---

func (b *Bot) handleCryptoCheck(ctx context.Context, cb *models.CallbackQuery, orderID string) {
	userID := cb.From.ID

	order := b.loadOwnOrder(ctx, cb, orderID)
	if order == nil {
		return
	}
	if order.IsPaid() {
		b.editOrReply(ctx, cb, "✅ Оплата уже подтверждена.", nil)
		b.deliverFinalOrder(ctx, userID, order)
		return
	}

	payment := order.CryptoPayment()
	if payment == nil {
		b.editOrReply(ctx, cb, "Счёт по этому заказу не найден. Отмените оплату и создайте заказ заново.", CancelPaymentKeyboard(orderID))
		return
	}

	invoice, err := b.gateway.GetInvoice(ctx, payment.InvoiceID)
	if err != nil {
		if errors.Is(err, cryptopay.ErrInvoiceNotFound) {
			b.editOrReply(ctx, cb, "Счёт истёк или удалён. Отмените оплату и создайте заказ заново.", CancelPaymentKeyboard(orderID))
			return
		}
		b.log.Error("get invoice", "error", err, "order_id", orderID)
		b.editOrReply(ctx, cb, "Не удалось проверить оплату, попробуйте через минуту.", CryptoInvoiceKeyboard(orderID, payment.PayURL))
		return
	}

	if invoice.Status != cryptopay.InvoiceStatusPaid {
		b.editOrReply(ctx, cb,
			fmt.Sprintf("Оплата пока не поступила (статус: %s). Попробуйте ещё раз через минуту.", invoice.Status),
			CryptoInvoiceKeyboard(orderID, payment.PayURL))
		return
	}

	err = b.storage.FinalizeExternalOrder(orderID, userID, "paid_crypto_"+payment.Type, payment.Amount, payment.Discount)
	if err != nil && !errors.Is(err, storage.ErrAlreadyPaid) {
		b.log.Error("finalize external order", "error", err, "order_id", orderID)
		b.editOrReply(ctx, cb, "Оплата видна, но заказ не удалось закрыть. Напишите в поддержку.", nil)
		return
	}
	if err == nil {
		b.storage.LogAction(userID, "payment_success", fmt.Sprintf("%s crypto $%d", orderID, payment.Amount))
		if err := b.storage.AddReferralReward(userID, payment.Amount); err != nil {
			b.log.Error("referral reward", "error", err, "user_id", userID)
		}
	}

	b.editOrReply(ctx, cb, "✅ Оплата подтверждена!", nil)
	b.deliverFinalOrder(ctx, userID, order)
}

// --- Cancellation ---

func (b *Bot) handlePaymentCancel(ctx context.Context, cb *models.CallbackQuery, orderID string) {
	userID := cb.From.ID
	lang := b.storage.GetUserLanguage(userID)

	order, err := b.storage.GetOrder(orderID)
	if err != nil || order.UserID != userID {
		b.editOrReply(ctx, cb, "Заказ не найден.", MainMenuNavKeyboard(lang))
		return
	}
	if order.IsPaid() {
		b.editOrReply(ctx, cb, "Заказ уже оплачен, отмена невозможна.", nil)
		return
	}
	if order.IsCancelled() {
		b.editOrReply(ctx, cb, cancelledOrderText, CancelledOrderKeyboard())
		return
	}

	if err := b.storage.SetOrderStatus(orderID, "cancelled"); err != nil {
		b.log.Error("cancel order", "error", err, "order_id", orderID)
		b.editOrReply(ctx, cb, "Не удалось отменить заказ, попробуйте позже.", nil)
		return
	}
	b.storage.LogAction(userID, "payment_cancelled", orderID)

	sess := b.sessions.Get(userID)
	if sess.PendingManualPayment != nil && sess.PendingManualPayment.OrderID == orderID {
		sess.PendingManualPayment = nil
		if err := b.sessions.Save(userID, sess); err != nil {
			b.log.Error("save session", "error", err, "user_id", userID)
		}
	}

	b.editOrReply(ctx, cb, cancelledOrderText, CancelledOrderKeyboard())
}

// --- Manual (direct transfer) payments ---

func (b *Bot) handleManualPayMenu(ctx context.Context, cb *models.CallbackQuery, orderID string) {
	userID := cb.From.ID

	order := b.loadOwnOrder(ctx, cb, orderID)
	if order == nil {
		return
	}
	if order.IsPaid() {
		b.editOrReply(ctx, cb, "✅ Заказ уже оплачен.", nil)
		return
	}

	category := categoryForGame(order.GameType)
	singleAmount, _, err := b.pricing.Amount(userID, storage.PayTypeSingle, category)
	if err != nil {
		singleAmount = b.cfg.Prices.Single
	}
	subAmount, _, err := b.pricing.Amount(userID, storage.PayTypeSub, category)
	if err != nil {
		subAmount = b.cfg.Prices.Sub
	}

	b.editOrReply(ctx, cb, "💼 Оплата переводом на кошелёк. Выберите вариант:", ManualPayMenuKeyboard(orderID, singleAmount, subAmount))
}

func (b *Bot) handleManualPay(ctx context.Context, cb *models.CallbackQuery, payType, orderID string) {
	userID := cb.From.ID
	lang := b.storage.GetUserLanguage(userID)

	order := b.loadOwnOrder(ctx, cb, orderID)
	if order == nil {
		return
	}
	if order.IsPaid() {
		b.editOrReply(ctx, cb, "✅ Заказ уже оплачен.", nil)
		return
	}

	amount, discount, err := b.pricing.Amount(userID, payType, categoryForGame(order.GameType))
	if err != nil {
		b.log.Error("pricing amount", "error", err, "user_id", userID)
		b.editOrReply(ctx, cb, "Не удалось рассчитать цену, попробуйте позже.", MainMenuNavKeyboard(lang))
		return
	}

	_, err = b.storage.UpdateOrderConfig(orderID, map[string]any{
		"manualPayment": map[string]any{
			"provider": "direct_wallet",
			"type":     payType,
			"amount":   amount,
			"discount": discount,
			"state":    "awaiting_transfer",
		},
	})
	if err != nil {
		b.log.Error("store manual payment", "error", err, "order_id", orderID)
		b.editOrReply(ctx, cb, "Не удалось сохранить заказ, попробуйте позже.", MainMenuNavKeyboard(lang))
		return
	}
	if err := b.storage.SetOrderStatus(orderID, "manual_transfer_pending"); err != nil {
		b.log.Error("set order status", "error", err, "order_id", orderID)
	}

	text := fmt.Sprintf(
		"💼 Переведите ровно <b>$%d</b> на один из кошельков:\n\n"+
			"USDT (TRC20):\n<code>%s</code>\n\n"+
			"BTC:\n<code>%s</code>\n\n"+
			"После перевода нажмите «Я оплатил» и пришлите подтверждение.",
		amount, b.cfg.Wallets.USDTTRC20, b.cfg.Wallets.BTC,
	)
	b.editOrReply(ctx, cb, text, ManualPaidKeyboard(orderID, payType))
}

func (b *Bot) handleManualPaid(ctx context.Context, cb *models.CallbackQuery, rest string) {
	var payType string
	switch {
	case strings.HasPrefix(rest, "single_"):
		payType = storage.PayTypeSingle
		rest = strings.TrimPrefix(rest, "single_")
	case strings.HasPrefix(rest, "sub_"):
		payType = storage.PayTypeSub
		rest = strings.TrimPrefix(rest, "sub_")
	default:
		return
	}
	orderID := rest
	userID := cb.From.ID

	order := b.loadOwnOrder(ctx, cb, orderID)
	if order == nil {
		return
	}
	if order.IsPaid() {
		b.editOrReply(ctx, cb, "✅ Заказ уже оплачен.", nil)
		return
	}

	manual := order.ManualPayment()
	amount := 0
	if manual != nil {
		amount = manual.Amount
	}

	sess := b.sessions.Get(userID)
	sess.PendingManualPayment = &session.PendingManualPayment{
		OrderID:     orderID,
		PaymentType: payType,
		Amount:      amount,
	}
	if err := b.sessions.Save(userID, sess); err != nil {
		b.log.Error("save session", "error", err, "user_id", userID)
	}

	if err := b.storage.SetOrderStatus(orderID, "manual_proof_requested"); err != nil {
		b.log.Error("set order status", "error", err, "order_id", orderID)
	}

	b.editOrReply(ctx, cb,
		"📎 Пришлите подтверждение перевода одним сообщением: скриншот, хеш транзакции или ссылку на неё.\n\n/cancel чтобы отменить.",
		nil)
}

// proofPatch builds the manualPayment value stored when a transfer proof
// arrives. The config merge replaces the whole sub-document, so the pricing
// fields recorded at checkout have to be restated here.
func proofPatch(manual *storage.ManualPayment, pending *session.PendingManualPayment, proof string) map[string]any {
	payType := pending.PaymentType
	amount := pending.Amount
	discount := 0
	if manual != nil {
		payType = manual.Type
		amount = manual.Amount
		discount = manual.Discount
	}
	return map[string]any{
		"provider": "direct_wallet",
		"type":     payType,
		"amount":   amount,
		"discount": discount,
		"state":    "pending_admin_review",
		"proof":    proof,
		"proofAt":  time.Now().UnixMilli(),
	}
}

// handleManualProof consumes the next message from a user with a pending
// manual payment. Returns true when the message was claimed.
func (b *Bot) handleManualProof(ctx context.Context, msg *models.Message, text string) bool {
	userID := msg.From.ID
	sess := b.sessions.Get(userID)
	pending := sess.PendingManualPayment
	if pending == nil {
		return false
	}
	lang := b.storage.GetUserLanguage(userID)

	if strings.TrimSpace(text) == "/cancel" {
		sess.PendingManualPayment = nil
		if err := b.sessions.Save(userID, sess); err != nil {
			b.log.Error("save session", "error", err, "user_id", userID)
		}
		b.sendMessage(ctx, userID, "Отправка подтверждения отменена.", MainMenuNavKeyboard(lang))
		return true
	}

	order, err := b.storage.GetOrder(pending.OrderID)
	if err != nil || order.UserID != userID {
		sess.PendingManualPayment = nil
		if err := b.sessions.Save(userID, sess); err != nil {
			b.log.Error("save session", "error", err, "user_id", userID)
		}
		b.sendMessage(ctx, userID, "Заказ не найден.", MainMenuNavKeyboard(lang))
		return true
	}
	if order.IsCancelled() {
		sess.PendingManualPayment = nil
		if err := b.sessions.Save(userID, sess); err != nil {
			b.log.Error("save session", "error", err, "user_id", userID)
		}
		b.sendMessage(ctx, userID, cancelledOrderText, MainMenuNavKeyboard(lang))
		return true
	}

	var proof string
	switch {
	case len(msg.Photo) > 0:
		proof = "photo:" + msg.Photo[len(msg.Photo)-1].FileID
	case msg.Document != nil:
		proof = "document:" + msg.Document.FileID
	case strings.TrimSpace(text) != "":
		proof = "text:" + strings.TrimSpace(text)
	default:
		b.sendMessage(ctx, userID, "Пришлите скриншот, хеш или ссылку одним сообщением, либо /cancel.", nil)
		return true
	}

	orderID := pending.OrderID
	if _, err := b.storage.UpdateOrderConfig(orderID, map[string]any{
		"manualPayment": proofPatch(order.ManualPayment(), pending, proof),
	}); err != nil {
		b.log.Error("store proof", "error", err, "order_id", orderID)
		b.sendMessage(ctx, userID, "Не удалось сохранить подтверждение, попробуйте ещё раз.", nil)
		return true
	}
	if err := b.storage.SetOrderStatus(orderID, "manual_review_"+pending.PaymentType); err != nil {
		b.log.Error("set order status", "error", err, "order_id", orderID)
	}

	sess.PendingManualPayment = nil
	if err := b.sessions.Save(userID, sess); err != nil {
		b.log.Error("save session", "error", err, "user_id", userID)
	}
	b.storage.LogAction(userID, "manual_proof_submitted", orderID)

	if b.cfg.AdminTelegramID != 0 {
		adminText := fmt.Sprintf(
			"💼 Оплата переводом на проверке\nUser: <a href='tg://user?id=%d'>%d</a> (@%s)\nOrder: <code>%s</code>\nТип: %s, сумма: $%d",
			userID, userID, msg.From.Username, orderID, pending.PaymentType, pending.Amount,
		)
		if err := b.SendNotification(ctx, b.cfg.AdminTelegramID, adminText, AdminReviewKeyboard(orderID)); err != nil {
			b.log.Error("notify admin", "error", err)
		}
		if _, err := b.bot.ForwardMessage(ctx, &bot.ForwardMessageParams{
			ChatID:     b.cfg.AdminTelegramID,
			FromChatID: strconv.FormatInt(msg.Chat.ID, 10),
			MessageID:  msg.ID,
		}); err != nil {
			b.log.Error("forward proof", "error", err)
		}
	}

	b.sendMessage(ctx, userID, "✅ Подтверждение отправлено на проверку. Обычно это занимает до часа.", MainMenuNavKeyboard(lang))
	return true
}

// --- Delivery ---

// DeliverPaidOrder ships the final file for an order paid outside a chat
// interaction, such as by the background invoice watcher.
func (b *Bot) DeliverPaidOrder(ctx context.Context, userID int64, order *storage.Order) {
	b.deliverFinalOrder(ctx, userID, order)
}

// deliverFinalOrder sends the status message, waits out the build window
// and ships the clean final file. Runs detached from the update context so
// a long build survives the callback.
func (b *Bot) deliverFinalOrder(ctx context.Context, userID int64, order *storage.Order) {
	detached := context.WithoutCancel(ctx)
	go func() {
		b.sendMessage(detached, userID, "✅ Оплата получена! Собираю финальную версию, это займёт около 30 секунд.", nil)
		time.Sleep(deliveryDelay)

		finalPath := ""
		if cta := normalizeCTAURL(order.ClickURL()); cta != "" {
			buildConfig := cloneConfig(order.Config)
			buildConfig["clickUrl"] = cta
			buildConfig["isWatermarked"] = false
			path, err := b.bridge.Generate(detached, order.OrderID, buildConfig)
			if err != nil {
				b.log.Error("final build", "error", err, "order_id", order.OrderID)
			}
			finalPath = path
		}
		if finalPath == "" {
			finalPath = b.library.Path(order.GameType, order.GeoID(), false)
		}
		if finalPath == "" {
			b.sendMessage(detached, userID, "Ошибка сборки.", MainMenuNavKeyboard(b.storage.GetUserLanguage(userID)))
			return
		}

		if err := b.sendDocument(detached, userID, finalPath, "🎉 Готово! Ваш финальный playable без водяного знака."); err != nil {
			b.log.Error("send final", "error", err, "order_id", order.OrderID)
			b.sendMessage(detached, userID, "Ошибка сборки.", MainMenuNavKeyboard(b.storage.GetUserLanguage(userID)))
			return
		}
		b.storage.LogAction(userID, "order_delivered", order.OrderID)
	}()
}
