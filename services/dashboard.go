package services

import (
	"context"
	"time"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
)

const (
	defaultDashboardRange = 30 * 24 * time.Hour
	opsPendingLimit       = 10
	opsVoucherLimit       = 10
	opsVoucherHorizon     = 7 * 24 * time.Hour
)

type DashboardSummary struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	GrossRevenue      int64     `json:"gross_revenue"`
	NetRevenue        int64     `json:"net_revenue"`
	Transactions      int64     `json:"transactions"`
	NewCustomers      int64     `json:"new_customers"`
	PointsCirculating int64     `json:"points_circulating"`
}

type RevenueSplit struct {
	ByProduct []repository.SplitRow `json:"by_product"`
	ByChannel []repository.SplitRow `json:"by_channel"`
}

type OpsOverview struct {
	PendingTransactions    []models.Transaction   `json:"pending_transactions"`
	PendingCount           int64                  `json:"pending_count"`
	ExpiringRewardVouchers []models.RewardVoucher `json:"expiring_reward_vouchers"`
}

type DashboardService struct {
	store *repository.Store
	now   func() time.Time
}

func NewDashboardService(store *repository.Store) *DashboardService {
	return &DashboardService{store: store, now: time.Now}
}

// Range normalizes a reporting window. A zero from means 30 days before
// to; a zero to means now. to is extended to the end of its day.
func (s *DashboardService) Range(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.now()
	}
	to = to.UTC()
	to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if from.IsZero() {
		from = to.Add(-defaultDashboardRange)
	}
	from = from.UTC()
	if from.After(to) {
		return time.Time{}, time.Time{}, invalidInput("from must not be after to")
	}
	return from, to, nil
}

func (s *DashboardService) Summary(ctx context.Context, from, to time.Time) (*DashboardSummary, error) {
	from, to, err := s.Range(from, to)
	if err != nil {
		return nil, err
	}
	st := s.store.WithContext(ctx)

	spend, err := st.ConfirmedSummary(from, to)
	if err != nil {
		return nil, storageError("revenue summary", err)
	}
	newCustomers, err := st.CustomersCreatedBetween(from, to)
	if err != nil {
		return nil, storageError("count customers", err)
	}
	// Circulating points are all-time, independent of the window.
	circulating, err := st.CirculatingPoints()
	if err != nil {
		return nil, storageError("circulating points", err)
	}

	return &DashboardSummary{
		From:              from,
		To:                to,
		GrossRevenue:      spend.GrossRevenue,
		NetRevenue:        spend.NetRevenue,
		Transactions:      spend.Transactions,
		NewCustomers:      newCustomers,
		PointsCirculating: circulating,
	}, nil
}

func (s *DashboardService) Series(ctx context.Context, from, to time.Time) ([]repository.SeriesPoint, error) {
	from, to, err := s.Range(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.WithContext(ctx).ConfirmedDailySeries(from, to)
	if err != nil {
		return nil, storageError("revenue series", err)
	}
	return rows, nil
}

func (s *DashboardService) Split(ctx context.Context, from, to time.Time) (*RevenueSplit, error) {
	from, to, err := s.Range(from, to)
	if err != nil {
		return nil, err
	}
	st := s.store.WithContext(ctx)
	byProduct, err := st.ConfirmedSplit("product_type", from, to)
	if err != nil {
		return nil, storageError("revenue split", err)
	}
	byChannel, err := st.ConfirmedSplit("channel", from, to)
	if err != nil {
		return nil, storageError("revenue split", err)
	}
	return &RevenueSplit{ByProduct: byProduct, ByChannel: byChannel}, nil
}

// Ops lists work waiting for staff: pending transactions and reward
// vouchers that expire within a week.
func (s *DashboardService) Ops(ctx context.Context) (*OpsOverview, error) {
	now := s.now().UTC()
	st := s.store.WithContext(ctx)

	pending, err := st.PendingTransactions(opsPendingLimit)
	if err != nil {
		return nil, storageError("pending transactions", err)
	}
	count, err := st.CountTransactionsByStatus(models.TransactionPending)
	if err != nil {
		return nil, storageError("pending transactions", err)
	}
	expiring, err := st.RewardVouchersExpiringBetween(now, now.Add(opsVoucherHorizon), opsVoucherLimit)
	if err != nil {
		return nil, storageError("expiring vouchers", err)
	}
	return &OpsOverview{
		PendingTransactions:    pending,
		PendingCount:           count,
		ExpiringRewardVouchers: expiring,
	}, nil
}
