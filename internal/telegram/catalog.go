package telegram

// Game catalog and geo presets offered by the storefront.

const (
	CategoryChicken  = "cat_chicken"
	CategoryPlinko   = "cat_plinko"
	CategorySlots    = "cat_slots"
	CategoryMatching = "cat_matching"
)

// Game is an orderable content template.
type Game struct {
	ID          string // callback id of the product card
	Key         string // game engine key, stored as the order's gameType
	Theme       string // theme id passed to the builder
	Title       string
	Category    string
	BuyCallback string
	Description string
	DemoURL     string
}

var Games = []Game{
	{
		ID:          "game_railroad",
		Key:         "railroad",
		Theme:       "chicken_farm",
		Title:       "Chicken Railroad",
		Category:    CategoryChicken,
		BuyCallback: "buy_check_railroad",
		Description: "Готовый однофайловый шаблон с железнодорожным игровым циклом.",
		DemoURL:     "https://t.me/rwbrr/290",
	},
	{
		ID:          "game_olympus",
		Key:         "olympus",
		Theme:       "gate_of_olympus",
		Title:       "Gates of Olympus",
		Category:    CategorySlots,
		BuyCallback: "buy_check_olympus",
		Description: "Слот-шаблон с анимированным Zeus и сильным финальным экраном.",
		DemoURL:     "https://t.me/rwbrr/277",
	},
	{
		ID:          "game_drag",
		Key:         "matching",
		Theme:       "money_drag",
		Title:       "Money Matching",
		Category:    CategoryMatching,
		BuyCallback: "buy_check_matching",
		Description: "Шаблон drag-and-drop matching с чистым CTA-флоу.",
		DemoURL:     "https://t.me/rwbrr/281",
	},
	{
		ID:          "game_match3",
		Key:         "match3",
		Theme:       "3_v_ryad",
		Title:       "3 v Ryad",
		Category:    CategoryMatching,
		BuyCallback: "buy_check_match3",
		Description: "Быстрый шаблон match-3, оптимизированный под однофайловую выдачу.",
		DemoURL:     "https://t.me/rwbrr/279",
	},
}

// Geo is a bundled locale/currency preset.
type Geo struct {
	ID       string
	Name     string
	Lang     string
	Currency string
}

var Geos = []Geo{
	{ID: "en_usd", Name: "🇺🇸 Global", Lang: "en", Currency: "$"},
	{ID: "pt_brl", Name: "🇧🇷 Brazil", Lang: "pt", Currency: "R$"},
	{ID: "es_eur", Name: "🇪🇸 Spain/Latam", Lang: "es", Currency: "€"},
}

func gameByID(id string) *Game {
	for i := range Games {
		if Games[i].ID == id {
			return &Games[i]
		}
	}
	return nil
}

func gameByKey(key string) *Game {
	for i := range Games {
		if Games[i].Key == key {
			return &Games[i]
		}
	}
	return nil
}

func gameByBuyCallback(data string) *Game {
	for i := range Games {
		if Games[i].BuyCallback == data {
			return &Games[i]
		}
	}
	return nil
}

func geoByID(id string) *Geo {
	for i := range Geos {
		if Geos[i].ID == id {
			return &Geos[i]
		}
	}
	return nil
}

// categoryForGame maps a game engine key to its catalog category, for
// category discount lookups. Unknown keys have no category.
func categoryForGame(key string) string {
	if game := gameByKey(key); game != nil {
		return game.Category
	}
	return ""
}

// defaultBalanceForGame returns the starting balance applied when the user
// skips the input or exhausts their attempts. Matching-style games start
// from zero.
func defaultBalanceForGame(key string) int {
	if key == "matching" || key == "match3" {
		return 0
	}
	return 1000
}
