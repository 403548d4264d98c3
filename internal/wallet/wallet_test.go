package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFetcher struct {
	snapshot BalanceSnapshot
	err      error
}

func (s *stubFetcher) FetchBalances(ctx context.Context) (BalanceSnapshot, error) {
	return s.snapshot, s.err
}

func TestView_Refresh(t *testing.T) {
	snap := BalanceSnapshot{
		Balances: []Balance{
			{Asset: "XAU-s", Available: decimal.NewFromInt(2), Locked: decimal.Zero},
		},
		FetchedAt: time.Now(),
	}
	view := NewView(&stubFetcher{snapshot: snap}, zap.NewNop())

	assert.Empty(t, view.Snapshot().Balances, "empty before first refresh")

	require.NoError(t, view.Refresh(context.Background()))

	got := view.Snapshot()
	require.Len(t, got.Balances, 1)
	bal, ok := got.Lookup("XAU-s")
	require.True(t, ok)
	assert.Equal(t, "2", bal.Available.String())

	_, ok = got.Lookup("BTC")
	assert.False(t, ok)
}

func TestView_RefreshFailureKeepsSnapshot(t *testing.T) {
	fetcher := &stubFetcher{
		snapshot: BalanceSnapshot{
			Balances: []Balance{{Asset: "USDT", Available: decimal.NewFromInt(100)}},
		},
	}
	view := NewView(fetcher, zap.NewNop())
	require.NoError(t, view.Refresh(context.Background()))

	fetcher.err = errors.New("wallet service down")
	err := view.Refresh(context.Background())
	require.Error(t, err)

	// The previous snapshot is still served.
	got := view.Snapshot()
	require.Len(t, got.Balances, 1)
	assert.Equal(t, "USDT", got.Balances[0].Asset)
}
