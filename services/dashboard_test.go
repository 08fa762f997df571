package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IkingariSolorzano/cinepoints-be/models"
)

func newDashboard(e *env) *DashboardService {
	d := NewDashboardService(e.store)
	d.now = e.clock.Now
	return d
}

func TestDashboardRange(t *testing.T) {
	e := newEnv(t)
	d := newDashboard(e)

	from, to, err := d.Range(time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.March, 10, 23, 59, 59, 999999999, time.UTC), to)
	require.Equal(t, to.Add(-30*24*time.Hour), from)

	_, _, err = d.Range(testEpoch, testEpoch.AddDate(0, 0, -2))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDashboardSummaryAndSplit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := newDashboard(e)
	a := e.customer(t, "0814000001")
	b := e.customer(t, "0814000002")

	e.confirmedTx(t, a.ID, 60000, models.ProductTicket, models.ChannelApp, testEpoch)
	e.confirmedTx(t, b.ID, 40000, models.ProductCombo, models.ChannelOffline, testEpoch.AddDate(0, 0, -1))
	e.confirmedTx(t, b.ID, 99000, models.ProductCombo, models.ChannelOffline, testEpoch.AddDate(0, -3, 0))
	_, err := e.txs.Create(ctx, ticketParams(a.ID, 500000), nil)
	require.NoError(t, err)
	e.setBalance(t, a.ID, 120)

	from := testEpoch.AddDate(0, 0, -7)
	summary, err := d.Summary(ctx, from, testEpoch)
	require.NoError(t, err)
	require.Equal(t, int64(100000), summary.NetRevenue)
	require.Equal(t, int64(2), summary.Transactions)
	require.Equal(t, int64(120), summary.PointsCirculating)

	split, err := d.Split(ctx, from, testEpoch)
	require.NoError(t, err)
	require.Len(t, split.ByProduct, 2)
	require.Equal(t, "TICKET", split.ByProduct[0].Label)
	require.Equal(t, int64(60000), split.ByProduct[0].AmountNet)
	require.Len(t, split.ByChannel, 2)

	series, err := d.Series(ctx, from, testEpoch)
	require.NoError(t, err)
	require.Len(t, series, 2)
	require.Equal(t, "2025-03-09", series[0].Date)
	require.Equal(t, int64(40000), series[0].Net)
}

func TestDashboardOps(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := newDashboard(e)
	c := e.customer(t, "0814000003")

	_, err := e.txs.Create(ctx, ticketParams(c.ID, 10000), nil)
	require.NoError(t, err)
	e.setBalance(t, c.ID, 10000)
	_, err = e.loyalty.RedeemVoucher(ctx, c.ID, "DISC10K10P")
	require.NoError(t, err)

	ops, err := d.Ops(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), ops.PendingCount)
	require.Len(t, ops.PendingTransactions, 1)
	require.Empty(t, ops.ExpiringRewardVouchers)

	e.clock.Set(testEpoch.AddDate(0, 0, 25))
	ops, err = d.Ops(ctx)
	require.NoError(t, err)
	require.Len(t, ops.ExpiringRewardVouchers, 1)
}
