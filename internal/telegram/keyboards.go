package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

func inlineKeyboard(rows [][]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// MainMenuKeyboard returns the storefront root menu.
func MainMenuKeyboard(lang string) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: t(lang, "menu_order"), CallbackData: "order"}},
		{{Text: t(lang, "menu_profile"), CallbackData: "profile"}},
		{{Text: t(lang, "menu_ref"), CallbackData: "ref_system"}},
		{{Text: t(lang, "menu_lang"), CallbackData: "language_menu"}},
		{{Text: t(lang, "menu_support"), URL: "https://t.me/rawberrry"}},
	})
}

// MainMenuNavKeyboard is the single "back to main menu" row.
func MainMenuNavKeyboard(lang string) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: t(lang, "menu_home"), CallbackData: "main_menu"}},
	})
}

// BackToMenuKeyboard is the generic recovery affordance after an error.
func BackToMenuKeyboard(lang string) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: t(lang, "back"), CallbackData: "main_menu"}},
	})
}

// CategoriesKeyboard lists the catalog categories.
func CategoriesKeyboard(lang string) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{
			{Text: "🐔 Чикен", CallbackData: CategoryChicken},
			{Text: "🎱 Плинко", CallbackData: CategoryPlinko},
		},
		{
			{Text: "🎰 Слоты", CallbackData: CategorySlots},
			{Text: "🧩 Метчинг", CallbackData: CategoryMatching},
		},
		{{Text: t(lang, "back"), CallbackData: "main_menu"}},
	})
}

// GeoKeyboard lists the geo presets two per row, plus the custom request.
func GeoKeyboard() *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton
	for _, geo := range Geos {
		row = append(row, models.InlineKeyboardButton{Text: geo.Name, CallbackData: "geo_" + geo.ID})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		[]models.InlineKeyboardButton{{Text: "📝 Заказать своё GEO", CallbackData: "geo_custom"}},
		[]models.InlineKeyboardButton{{Text: "Отмена", CallbackData: "main_menu"}},
	)
	return inlineKeyboard(rows)
}

// SkipBalanceKeyboard offers the game-default starting balance.
func SkipBalanceKeyboard() *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: "Пропустить (по умолчанию)", CallbackData: "skip_starting_balance"}},
	})
}

// SummaryKeyboard presents the preview trigger after the wizard completes.
func SummaryKeyboard() *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: "🚀 СОЗДАТЬ ПРЕВЬЮ", CallbackData: "gen_preview"}},
		{{Text: "🏠 Главное меню", CallbackData: "main_menu"}},
	})
}

// PaymentOptionsKeyboard presents the three payment paths for an order.
func PaymentOptionsKeyboard(orderID, demoURL string, singlePrice, subPrice int) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{}
	if demoURL != "" {
		rows = append(rows, []models.InlineKeyboardButton{{Text: "👀 Смотреть демо в канале", URL: demoURL}})
	}
	rows = append(rows,
		[]models.InlineKeyboardButton{{Text: fmt.Sprintf("💳 Купить разово ($ %d)", singlePrice), CallbackData: "pay_single_" + orderID}},
		[]models.InlineKeyboardButton{{Text: fmt.Sprintf("⭐ Подписка ($ %d)", subPrice), CallbackData: "pay_sub_" + orderID}},
		[]models.InlineKeyboardButton{{Text: "Оплатить напрямую (BTC/USDT)", CallbackData: "manual_pay_menu_" + orderID}},
		[]models.InlineKeyboardButton{{Text: "🏠 Главное меню", CallbackData: "main_menu"}},
	)
	return inlineKeyboard(rows)
}

// CryptoInvoiceKeyboard presents an open invoice with check and cancel.
func CryptoInvoiceKeyboard(orderID, payURL string) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: "Оплатить в Crypto Bot", URL: payURL}},
		{{Text: "Проверить оплату", CallbackData: "crypto_check_" + orderID}},
		{{Text: "Отменить оплату", CallbackData: "payment_cancel_" + orderID}},
		{{Text: "Главное меню", CallbackData: "main_menu"}},
	})
}

// CancelPaymentKeyboard is the affordance when an invoice is missing.
func CancelPaymentKeyboard(orderID string) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: "Отменить оплату", CallbackData: "payment_cancel_" + orderID}},
		{{Text: "Главное меню", CallbackData: "main_menu"}},
	})
}

// CancelledOrderKeyboard routes a closed order to a fresh one.
func CancelledOrderKeyboard() *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: "🎮 Новый заказ", CallbackData: "order"}},
		{{Text: "🏠 Главное меню", CallbackData: "main_menu"}},
	})
}

// ManualPayMenuKeyboard offers the direct-transfer payment types.
func ManualPayMenuKeyboard(orderID string, singleAmount, subAmount int) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: fmt.Sprintf("Разово $%d", singleAmount), CallbackData: "manual_pay_single_" + orderID}},
		{{Text: fmt.Sprintf("Подписка $%d", subAmount), CallbackData: "manual_pay_sub_" + orderID}},
		{{Text: "Главное меню", CallbackData: "main_menu"}},
	})
}

// ManualPaidKeyboard confirms a direct transfer was sent.
func ManualPaidKeyboard(orderID, payType string) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: "Я оплатил", CallbackData: fmt.Sprintf("manual_paid_%s_%s", payType, orderID)}},
		{{Text: "Назад", CallbackData: "manual_pay_menu_" + orderID}},
		{{Text: "Главное меню", CallbackData: "main_menu"}},
	})
}

// AdminReviewKeyboard is sent to the administrator with a payment proof.
func AdminReviewKeyboard(orderID string) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: "✅ Одобрить", CallbackData: "admin_manual_approve_" + orderID}},
		{{Text: "❌ Отклонить", CallbackData: "admin_manual_reject_" + orderID}},
	})
}

// LanguageKeyboard offers the interface languages.
func LanguageKeyboard(lang string) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: "Русский", CallbackData: "set_lang_ru"}},
		{{Text: "English", CallbackData: "set_lang_en"}},
		{{Text: t(lang, "back"), CallbackData: "main_menu"}},
	})
}

// ProfileKeyboard shows the top-up entry point.
func ProfileKeyboard(lang string) *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: t(lang, "top_up"), CallbackData: "top_up_balance"}},
		{{Text: t(lang, "menu_home"), CallbackData: "main_menu"}},
	})
}

// TopUpKeyboard confirms a wallet top-up transfer.
func TopUpKeyboard() *models.InlineKeyboardMarkup {
	return inlineKeyboard([][]models.InlineKeyboardButton{
		{{Text: "✅ Я оплатил", CallbackData: "i_paid"}},
		{{Text: "🔙 Назад", CallbackData: "profile"}},
	})
}
