// Package watcher closes crypto-paid orders even when the user never
// presses the payment check button.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rwbrr/playable-bot/internal/cryptopay"
	"github.com/rwbrr/playable-bot/internal/storage"
)

// Deliverer ships the final artifact for a freshly paid order.
type Deliverer interface {
	DeliverPaidOrder(ctx context.Context, userID int64, order *storage.Order)
}

// InvoiceWatcher polls Crypto Pay for pending invoices and finalizes paid
// orders in the background.
type InvoiceWatcher struct {
	storage   *storage.Storage
	gateway   *cryptopay.Client
	deliverer Deliverer
	log       *slog.Logger
}

// New creates a new invoice watcher
func New(store *storage.Storage, gateway *cryptopay.Client, deliverer Deliverer, log *slog.Logger) *InvoiceWatcher {
	return &InvoiceWatcher{
		storage:   store,
		gateway:   gateway,
		deliverer: deliverer,
		log:       log,
	}
}

// Start starts the watcher loop
func (w *InvoiceWatcher) Start(ctx context.Context, interval time.Duration) {
	if !w.gateway.Enabled() {
		w.log.Info("invoice watcher disabled: CRYPTO_PAY_API_TOKEN not set")
		return
	}

	w.log.Info("invoice watcher started", "interval", interval)

	time.Sleep(5 * time.Second) // Initial delay

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.checkInvoices(ctx); err != nil {
				w.log.Error("check invoices", "error", err)
			}
		}
	}
}

func (w *InvoiceWatcher) checkInvoices(ctx context.Context) error {
	orders, err := w.storage.ListOrdersAwaitingInvoice()
	if err != nil {
		return fmt.Errorf("list pending orders: %w", err)
	}

	for i := range orders {
		order := &orders[i]
		payment := order.CryptoPayment()
		if payment == nil {
			continue
		}

		invoice, err := w.gateway.GetInvoice(ctx, payment.InvoiceID)
		if err != nil {
			if !errors.Is(err, cryptopay.ErrInvoiceNotFound) {
				w.log.Error("get invoice", "error", err, "order_id", order.OrderID)
			}
			continue
		}
		if invoice.Status != cryptopay.InvoiceStatusPaid {
			continue
		}

		err = w.storage.FinalizeExternalOrder(order.OrderID, order.UserID, "paid_crypto_"+payment.Type, payment.Amount, payment.Discount)
		if errors.Is(err, storage.ErrAlreadyPaid) {
			continue
		}
		if err != nil {
			w.log.Error("finalize order", "error", err, "order_id", order.OrderID)
			continue
		}

		w.log.Info("invoice paid", "order_id", order.OrderID, "user_id", order.UserID, "amount", payment.Amount)
		w.storage.LogAction(order.UserID, "payment_success", fmt.Sprintf("%s crypto $%d (watcher)", order.OrderID, payment.Amount))
		if err := w.storage.AddReferralReward(order.UserID, payment.Amount); err != nil {
			w.log.Error("referral reward", "error", err, "user_id", order.UserID)
		}

		w.deliverer.DeliverPaidOrder(ctx, order.UserID, order)
	}

	return nil
}
