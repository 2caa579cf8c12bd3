package pricing

import (
	"github.com/rwbrr/playable-bot/internal/config"
	"github.com/rwbrr/playable-bot/internal/storage"
)

// LoyaltyDiscount is a step function over the user's paid order count.
func LoyaltyDiscount(ordersPaid int) int {
	switch {
	case ordersPaid >= 10:
		return 20
	case ordersPaid >= 3:
		return 10
	default:
		return 0
	}
}

// Price applies a percentage discount to a base price, rounding down.
func Price(base, discount int) int {
	return base * (100 - discount) / 100
}

// Quote is the result of discount resolution for one user and game.
type Quote struct {
	Stats            storage.UserStats
	LoyaltyDiscount  int
	CategoryDiscount int
	Discount         int
}

// Resolver computes effective discounts from ledger state.
type Resolver struct {
	store  *storage.Storage
	prices config.Prices
}

func NewResolver(store *storage.Storage, prices config.Prices) *Resolver {
	return &Resolver{store: store, prices: prices}
}

// EffectiveDiscount resolves the user's discount for a game category: the
// better of the loyalty step and the admin-configured category percent.
func (r *Resolver) EffectiveDiscount(userID int64, category string) (Quote, error) {
	stats, err := r.store.GetUserStats(userID)
	if err != nil {
		return Quote{}, err
	}

	loyalty := LoyaltyDiscount(stats.OrdersPaid)
	categoryDiscount := 0
	if category != "" {
		categoryDiscount = r.store.GetCategoryDiscount(category)
	}

	discount := loyalty
	if categoryDiscount > discount {
		discount = categoryDiscount
	}

	return Quote{
		Stats:            stats,
		LoyaltyDiscount:  loyalty,
		CategoryDiscount: categoryDiscount,
		Discount:         discount,
	}, nil
}

// Amount returns the discounted price for a payment type along with the
// applied discount.
func (r *Resolver) Amount(userID int64, payType, category string) (amount, discount int, err error) {
	quote, err := r.EffectiveDiscount(userID, category)
	if err != nil {
		return 0, 0, err
	}

	base := r.prices.Single
	if payType == storage.PayTypeSub {
		base = r.prices.Sub
	}
	return Price(base, quote.Discount), quote.Discount, nil
}

// BasePrice returns the undiscounted price for a payment type.
func (r *Resolver) BasePrice(payType string) int {
	if payType == storage.PayTypeSub {
		return r.prices.Sub
	}
	return r.prices.Single
}
