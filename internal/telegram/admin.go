package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/rwbrr/playable-bot/internal/storage"
)

// --- Manual payment review ---

func (b *Bot) handleAdminManualApprove(ctx context.Context, cb *models.CallbackQuery, orderID string) {
	if !b.isAdmin(cb.From.ID) {
		return
	}

	order, err := b.storage.GetOrder(orderID)
	if err != nil {
		b.editOrReply(ctx, cb, "Заказ не найден: "+orderID, nil)
		return
	}
	manual := order.ManualPayment()
	if manual == nil {
		b.editOrReply(ctx, cb, "По заказу нет оплаты переводом: "+orderID, nil)
		return
	}

	err = b.storage.FinalizeExternalOrder(orderID, order.UserID, "paid_manual_"+manual.Type, manual.Amount, manual.Discount)
	switch {
	case errors.Is(err, storage.ErrAlreadyPaid):
		// Approved twice, or a concurrent tap. Delivery below is harmless.
	case err != nil:
		b.log.Error("finalize manual payment", "error", err, "order_id", orderID)
		b.editOrReply(ctx, cb, "Не удалось отметить оплату: "+err.Error(), nil)
		return
	default:
		if _, err := b.storage.UpdateOrderConfig(orderID, map[string]any{
			"manualPayment": map[string]any{
				"provider": "direct_wallet",
				"type":     manual.Type,
				"amount":   manual.Amount,
				"discount": manual.Discount,
				"state":    "approved",
			},
		}); err != nil {
			b.log.Error("update manual state", "error", err, "order_id", orderID)
		}
		if err := b.storage.AddReferralReward(order.UserID, manual.Amount); err != nil {
			b.log.Error("referral reward", "error", err, "user_id", order.UserID)
		}
		b.storage.LogAction(order.UserID, "payment_success", fmt.Sprintf("%s manual $%d", orderID, manual.Amount))
	}

	b.editOrReply(ctx, cb, fmt.Sprintf("✅ Оплата по <code>%s</code> одобрена.", orderID), nil)
	b.deliverFinalOrder(ctx, order.UserID, order)
}

func (b *Bot) handleAdminManualReject(ctx context.Context, cb *models.CallbackQuery, orderID string) {
	if !b.isAdmin(cb.From.ID) {
		return
	}

	order, err := b.storage.GetOrder(orderID)
	if err != nil {
		b.editOrReply(ctx, cb, "Заказ не найден: "+orderID, nil)
		return
	}
	if order.IsPaid() {
		b.editOrReply(ctx, cb, "Заказ уже оплачен, отклонение невозможно.", nil)
		return
	}

	manual := order.ManualPayment()
	if manual != nil {
		if _, err := b.storage.UpdateOrderConfig(orderID, map[string]any{
			"manualPayment": map[string]any{
				"type":     manual.Type,
				"amount":   manual.Amount,
				"discount": manual.Discount,
				"state":    "rejected",
			},
		}); err != nil {
			b.log.Error("update manual state", "error", err, "order_id", orderID)
		}
	}
	if err := b.storage.SetOrderStatus(orderID, "manual_rejected"); err != nil {
		b.log.Error("set order status", "error", err, "order_id", orderID)
	}

	b.editOrReply(ctx, cb, fmt.Sprintf("❌ Оплата по <code>%s</code> отклонена.", orderID), nil)
	if err := b.SendNotification(ctx, order.UserID,
		"❌ Подтверждение оплаты не прошло проверку. Проверьте перевод и отправьте подтверждение ещё раз, либо напишите в поддержку.",
		MainMenuNavKeyboard(b.storage.GetUserLanguage(order.UserID))); err != nil {
		b.log.Error("notify user", "error", err, "user_id", order.UserID)
	}
}

// --- Admin commands ---

// adminArgs validates the sender and splits the command arguments.
func (b *Bot) adminArgs(update *models.Update, wantArgs int) ([]string, bool) {
	if update.Message == nil || update.Message.From == nil || !b.isAdmin(update.Message.From.ID) {
		return nil, false
	}
	fields := strings.Fields(update.Message.Text)
	if len(fields)-1 < wantArgs {
		return nil, false
	}
	return fields[1:], true
}

// grantOrderHandler marks an order paid without payment: /grantorder <orderId>
func (b *Bot) grantOrderHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	args, ok := b.adminArgs(update, 1)
	if !ok {
		if update.Message != nil && update.Message.From != nil && b.isAdmin(update.Message.From.ID) {
			b.sendMessage(ctx, update.Message.Chat.ID, "Использование: /grantorder orderId", nil)
		}
		return
	}
	orderID := args[0]
	chatID := update.Message.Chat.ID

	order, err := b.storage.GetOrder(orderID)
	if err != nil {
		b.sendMessage(ctx, chatID, "Заказ не найден: "+orderID, nil)
		return
	}
	err = b.storage.FinalizeExternalOrder(orderID, order.UserID, "paid_granted", 0, 0)
	if errors.Is(err, storage.ErrAlreadyPaid) {
		b.sendMessage(ctx, chatID, "Заказ уже оплачен.", nil)
		return
	}
	if err != nil {
		b.sendMessage(ctx, chatID, "Ошибка: "+err.Error(), nil)
		return
	}
	b.storage.LogAction(order.UserID, "order_granted", orderID)
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Заказ <code>%s</code> выдан бесплатно.", orderID), nil)
	b.deliverFinalOrder(ctx, order.UserID, order)
}

// addBalanceHandler credits a user's wallet: /addbalance <userId> <amount>
func (b *Bot) addBalanceHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	args, ok := b.adminArgs(update, 2)
	if !ok {
		if update.Message != nil && update.Message.From != nil && b.isAdmin(update.Message.From.ID) {
			b.sendMessage(ctx, update.Message.Chat.ID, "Использование: /addbalance userId сумма", nil)
		}
		return
	}
	chatID := update.Message.Chat.ID

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(ctx, chatID, "userId должен быть числом.", nil)
		return
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil || amount <= 0 {
		b.sendMessage(ctx, chatID, "Сумма должна быть положительным числом.", nil)
		return
	}

	if err := b.storage.IncrementUserBalance(targetID, amount); err != nil {
		b.sendMessage(ctx, chatID, "Ошибка: "+err.Error(), nil)
		return
	}
	b.storage.LogAction(targetID, "balance_granted", fmt.Sprintf("$%.2f", amount))
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Пользователю <code>%d</code> зачислено $%.2f.", targetID, amount), nil)
	if err := b.SendNotification(ctx, targetID, fmt.Sprintf("💰 Ваш баланс пополнен на <b>$%.2f</b>.", amount), nil); err != nil {
		b.log.Error("notify user", "error", err, "user_id", targetID)
	}
}

// setDiscountHandler sets a category discount: /setdiscount <category> <percent>
func (b *Bot) setDiscountHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	args, ok := b.adminArgs(update, 2)
	if !ok {
		if update.Message != nil && update.Message.From != nil && b.isAdmin(update.Message.From.ID) {
			b.sendMessage(ctx, update.Message.Chat.ID, "Использование: /setdiscount категория процент", nil)
		}
		return
	}
	chatID := update.Message.Chat.ID

	category := args[0]
	percent, err := strconv.Atoi(args[1])
	if err != nil {
		b.sendMessage(ctx, chatID, "Процент должен быть числом.", nil)
		return
	}

	applied, err := b.storage.SetCategoryDiscount(category, percent)
	if err != nil {
		b.sendMessage(ctx, chatID, "Ошибка: "+err.Error(), nil)
		return
	}
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Скидка для <code>%s</code>: %d%%.", category, applied), nil)
}

// banHandler blocks a user: /ban <userId> [reason...]
func (b *Bot) banHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	args, ok := b.adminArgs(update, 1)
	if !ok {
		if update.Message != nil && update.Message.From != nil && b.isAdmin(update.Message.From.ID) {
			b.sendMessage(ctx, update.Message.Chat.ID, "Использование: /ban userId [причина]", nil)
		}
		return
	}
	chatID := update.Message.Chat.ID

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(ctx, chatID, "userId должен быть числом.", nil)
		return
	}
	if b.isAdmin(targetID) {
		b.sendMessage(ctx, chatID, "Нельзя забанить администратора.", nil)
		return
	}
	reason := strings.Join(args[1:], " ")

	if err := b.storage.BanUser(targetID, reason); err != nil {
		b.sendMessage(ctx, chatID, "Ошибка: "+err.Error(), nil)
		return
	}
	b.sendMessage(ctx, chatID, fmt.Sprintf("🚫 Пользователь <code>%d</code> заблокирован.", targetID), nil)
}

// unbanHandler lifts a block: /unban <userId>
func (b *Bot) unbanHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	args, ok := b.adminArgs(update, 1)
	if !ok {
		if update.Message != nil && update.Message.From != nil && b.isAdmin(update.Message.From.ID) {
			b.sendMessage(ctx, update.Message.Chat.ID, "Использование: /unban userId", nil)
		}
		return
	}
	chatID := update.Message.Chat.ID

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(ctx, chatID, "userId должен быть числом.", nil)
		return
	}
	if err := b.storage.UnbanUser(targetID); err != nil {
		b.sendMessage(ctx, chatID, "Ошибка: "+err.Error(), nil)
		return
	}
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Пользователь <code>%d</code> разблокирован.", targetID), nil)
}
