package ticket

import (
	"context"

	"github.com/ismaiel54/trade-ticket/internal/order"
	"go.uber.org/zap"
)

// BalanceRefresher triggers a refresh of the independently-owned balance
// read model.
type BalanceRefresher interface {
	Refresh(ctx context.Context) error
}

// QuantityClearer clears the quantity input on the order form.
type QuantityClearer interface {
	ClearQuantity()
}

// walletReconciler is the standard Reconciler: after a successful trade
// it clears the quantity field (side and symbol stay, easing repeat
// orders) and refreshes balances. A refresh failure is a warning only —
// the trade succeeded regardless of whether the dependent view caught up.
type walletReconciler struct {
	balances BalanceRefresher
	form     QuantityClearer
	logger   *zap.Logger
}

// NewReconciler builds the standard post-success reconciler. balances and
// form may each be nil.
func NewReconciler(balances BalanceRefresher, form QuantityClearer, logger *zap.Logger) Reconciler {
	return &walletReconciler{balances: balances, form: form, logger: logger}
}

func (r *walletReconciler) AfterSuccess(ctx context.Context, receipt order.TradeReceipt) {
	if r.form != nil {
		r.form.ClearQuantity()
	}

	if r.balances == nil {
		return
	}
	if err := r.balances.Refresh(ctx); err != nil {
		r.logger.Warn("balance refresh failed after successful trade",
			zap.String("request_id", receipt.RequestID),
			zap.String("journal_id", receipt.JournalID),
			zap.Error(err),
		)
	}
}
