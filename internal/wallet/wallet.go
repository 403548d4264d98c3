package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Balance is the holdings for a single asset. Amounts are exact decimals;
// they are refreshed from the wallet service, never computed here.
type Balance struct {
	Asset     string          `json:"asset"`
	Available decimal.Decimal `json:"available"`
	Locked    decimal.Decimal `json:"locked"`
}

// BalanceSnapshot is the wallet state as of one fetch.
type BalanceSnapshot struct {
	Balances  []Balance `json:"balances"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Lookup returns the balance for an asset, if present.
func (s BalanceSnapshot) Lookup(asset string) (Balance, bool) {
	for _, b := range s.Balances {
		if b.Asset == asset {
			return b, true
		}
	}
	return Balance{}, false
}

// Fetcher retrieves the current balances from the wallet service.
type Fetcher interface {
	FetchBalances(ctx context.Context) (BalanceSnapshot, error)
}

// View holds the most recently fetched snapshot. The order-ticket core
// only ever asks it to refresh; it never writes balances directly.
type View struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu       sync.RWMutex
	snapshot BalanceSnapshot
}

// NewView creates a balance view backed by the given fetcher.
func NewView(fetcher Fetcher, logger *zap.Logger) *View {
	return &View{fetcher: fetcher, logger: logger}
}

// Refresh fetches the balances and swaps the held snapshot.
func (v *View) Refresh(ctx context.Context) error {
	snap, err := v.fetcher.FetchBalances(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch balances: %w", err)
	}

	v.mu.Lock()
	v.snapshot = snap
	v.mu.Unlock()

	v.logger.Debug("balance snapshot refreshed",
		zap.Int("assets", len(snap.Balances)),
		zap.Time("fetched_at", snap.FetchedAt),
	)
	return nil
}

// Snapshot returns the latest snapshot. Zero value before the first
// successful refresh.
func (v *View) Snapshot() BalanceSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshot
}
