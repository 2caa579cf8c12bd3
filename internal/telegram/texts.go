package telegram

// Minimal two-language text table for the main navigation. Flow texts stay
// Russian; translating them wholesale is out of scope for the core.

var texts = map[string]map[string]string{
	"ru": {
		"start_intro":     "🎮 <b>HTML5 Playable бот</b>\n\n⚡ Выберите шаблон и GEO — бот автоматически соберет готовый playable.\n🌍 Поддержка разных стран и валют.\n🛠 Нужен уникальный креатив? Можно заказать кастомный playable.",
		"menu_home":       "🏠 Главное меню",
		"menu_order":      "🎮 Заказать плеебл",
		"menu_profile":    "👤 Профиль",
		"menu_ref":        "🤝 Реферальная система",
		"menu_support":    "👨‍💻 Техподдержка",
		"menu_lang":       "🌐 Язык",
		"back":            "🔙 Назад",
		"choose_language": "Выберите язык интерфейса:",
		"choose_category": "Выберите категорию:",
		"choose_geo":      "🌍 <b>Выберите GEO и валюту:</b>",
		"top_up":          "💰 Пополнить баланс",
	},
	"en": {
		"start_intro":     "🎮 <b>HTML5 Playable bot</b>\n\n⚡ Choose a template and GEO, and the bot will auto-generate a ready playable.\n🌍 Supports multiple countries and currencies.\n🛠 Need a unique creative? You can order a custom playable.",
		"menu_home":       "🏠 Main menu",
		"menu_order":      "🎮 Launch a playable",
		"menu_profile":    "👤 Profile",
		"menu_ref":        "🤝 Partner program",
		"menu_support":    "👨‍💻 Concierge support",
		"menu_lang":       "🌐 Language",
		"back":            "🔙 Back",
		"choose_language": "Choose interface language:",
		"choose_category": "Select your creative category:",
		"choose_geo":      "🌍 <b>Choose GEO and currency:</b>",
		"top_up":          "💰 Fund balance",
	},
}

const cancelledOrderText = "Оплата по этому заказу отменена. Заказ закрыт. Создайте новый заказ."

func t(lang, key string) string {
	if m, ok := texts[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := texts["ru"][key]; ok {
		return v
	}
	return key
}
