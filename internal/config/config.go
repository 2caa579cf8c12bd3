package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/tonkeeper/tongo/ton"
)

// Prices holds the base template prices in whole USD.
type Prices struct {
	Single int
	Sub    int
}

// Wallets holds deposit addresses for direct manual payments.
type Wallets struct {
	USDTTRC20 string
	BTC       string
	TON       string
}

type Config struct {
	// Telegram
	BotToken        string
	AdminTelegramID int64

	// Admin HTTP API
	AdminUser string
	AdminPass string
	AdminPort int

	// Storage
	DBPath      string
	SessionsDir string
	LibraryDir  string
	AssetsDir   string

	// Pricing
	Prices Prices

	// Direct payment wallets
	Wallets Wallets

	// Crypto Pay
	CryptoPayToken          string
	CryptoPayBaseURL        string
	CryptoPayFiat           string
	CryptoPayAcceptedAssets string

	// Invoice watcher
	WatcherInterval int // seconds, 0 disables
}

func Load() *Config {
	cfg := &Config{
		BotToken:        getEnv("BOT_TOKEN", ""),
		AdminTelegramID: getEnvInt64("ADMIN_TELEGRAM_ID", 0),

		AdminUser: getEnv("ADMIN_USER", ""),
		AdminPass: getEnv("ADMIN_PASS", ""),
		AdminPort: getEnvInt("ADMIN_PORT", 3000),

		DBPath:      getEnv("DB_PATH", "./data/bot.db"),
		SessionsDir: getEnv("SESSIONS_DIR", "./sessions"),
		LibraryDir:  getEnv("LIBRARY_DIR", "./library"),
		AssetsDir:   getEnv("ASSETS_DIR", "./assets"),

		Prices: Prices{
			Single: getEnvInt("PRICE_SINGLE", 349),
			Sub:    getEnvInt("PRICE_SUB", 659),
		},

		Wallets: Wallets{
			USDTTRC20: getEnv("WALLET_USDT_TRC20", "TCxtQLvqh9ppYPXuJMoaLNYyWFWZx6JZYW"),
			BTC:       getEnv("WALLET_BTC", "bc1qe4gjhyndedl57hlw8qep5cctkxmxazxx02fx89"),
			TON:       NormalizeTONAddress(getEnv("WALLET_TON", "")),
		},

		CryptoPayToken:   strings.TrimSpace(getEnv("CRYPTO_PAY_API_TOKEN", "")),
		CryptoPayBaseURL: strings.TrimSuffix(getEnv("CRYPTO_PAY_API_BASE", "https://pay.crypt.bot/api"), "/"),
		CryptoPayFiat:    strings.ToUpper(strings.TrimSpace(getEnv("CRYPTO_PAY_FIAT", "USD"))),
		CryptoPayAcceptedAssets: getEnv(
			"CRYPTO_PAY_ACCEPTED_ASSETS",
			"USDT,TON,BTC,ETH,LTC,BNB,TRX,USDC",
		),

		WatcherInterval: getEnvInt("INVOICE_WATCHER_INTERVAL", 60),
	}

	return cfg
}

// NormalizeTONAddress converts a configured TON deposit address to the
// user-friendly bounceable form regardless of the format the operator used.
// Unparseable input is returned as-is.
func NormalizeTONAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	acc, err := ton.ParseAccountID(addr)
	if err != nil {
		return addr
	}
	return acc.ToHuman(true, false)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}
