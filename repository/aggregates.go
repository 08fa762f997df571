package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/IkingariSolorzano/cinepoints-be/models"
)

// TopCustomerRow is one line of the spend leaderboard.
type TopCustomerRow struct {
	CustomerID        uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	Phone             string      `json:"phone"`
	Tier              models.Tier `json:"tier"`
	PointsAvailable   int64       `json:"points_available"`
	NetSpend          int64       `json:"net_spend"`
	TransactionsCount int64       `json:"transactions_count"`
	Tickets           int64       `json:"tickets"`
}

// TopSpenders groups confirmed transactions purchased at or after since by
// customer. Customers with no qualifying transaction appear with zero
// spend. Rows are ordered by net spend, then transaction count.
func (s *Store) TopSpenders(since time.Time, limit int) ([]TopCustomerRow, error) {
	var rows []TopCustomerRow
	err := s.db.Raw(`
		SELECT
			c.id AS customer_id,
			c.name,
			c.phone,
			c.tier,
			c.total_points AS points_available,
			COALESCE(SUM(t.amount_net), 0) AS net_spend,
			COUNT(t.id) AS transactions_count,
			COALESCE(SUM(CASE WHEN t.product_type = ? THEN 1 ELSE 0 END), 0) AS tickets
		FROM customers c
		LEFT JOIN transactions t ON c.id = t.customer_id
			AND t.status = ?
			AND t.purchase_date >= ?
		WHERE c.deleted_at IS NULL
		GROUP BY c.id, c.name, c.phone, c.tier, c.total_points
		ORDER BY net_spend DESC, transactions_count DESC
		LIMIT ?
	`, models.ProductTicket, models.TransactionConfirmed, since, limit).Scan(&rows).Error
	return rows, err
}

// ExpiryDue is the unspent part of a customer's lapsed EARN lots.
type ExpiryDue struct {
	CustomerID uuid.UUID
	Points     int64
}

// ExpiryCandidates consumes points FIFO: every REDEEM and EXPIRE debit is
// charged against the oldest lots first, so what remains of lots whose
// expired_at has passed is due to expire. A non-nil customerID narrows the
// scan to one customer.
func (s *Store) ExpiryCandidates(at time.Time, customerID *uuid.UUID) ([]ExpiryDue, error) {
	q := s.db.Model(&models.PointLedger{}).
		Select(`customer_id,
			COALESCE(SUM(CASE WHEN type = ? AND expired_at <= ? THEN points ELSE 0 END), 0)
			- COALESCE(SUM(CASE WHEN type IN (?, ?) THEN -points ELSE 0 END), 0) AS due`,
			models.LedgerEarn, at, models.LedgerRedeem, models.LedgerExpire).
		Group("customer_id")
	if customerID != nil {
		q = q.Where("customer_id = ?", *customerID)
	}

	var rows []ExpiryDue
	err := s.db.Table("(?) AS lapsed", q).
		Select("customer_id, due AS points").
		Where("due > 0").
		Scan(&rows).Error
	return rows, err
}

type SpendSummary struct {
	GrossRevenue int64 `json:"gross_revenue"`
	NetRevenue   int64 `json:"net_revenue"`
	Transactions int64 `json:"transactions"`
}

func (s *Store) ConfirmedSummary(from, to time.Time) (SpendSummary, error) {
	var summary SpendSummary
	err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount_gross), 0) AS gross_revenue, COALESCE(SUM(amount_net), 0) AS net_revenue, COUNT(id) AS transactions").
		Where("status = ? AND purchase_date >= ? AND purchase_date <= ?", models.TransactionConfirmed, from, to).
		Scan(&summary).Error
	return summary, err
}

func (s *Store) CustomersCreatedBetween(from, to time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.Customer{}).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Count(&count).Error
	return count, err
}

type SplitRow struct {
	Label     string `json:"key"`
	AmountNet int64  `json:"amount_net"`
}

// ConfirmedSplit sums net revenue per value of column, which must be
// product_type or channel.
func (s *Store) ConfirmedSplit(column string, from, to time.Time) ([]SplitRow, error) {
	var rows []SplitRow
	err := s.db.Model(&models.Transaction{}).
		Select(column+" AS label, COALESCE(SUM(amount_net), 0) AS amount_net").
		Where("status = ? AND purchase_date >= ? AND purchase_date <= ?", models.TransactionConfirmed, from, to).
		Group(column).
		Order("amount_net DESC").
		Scan(&rows).Error
	return rows, err
}

type SeriesPoint struct {
	Date  string `json:"date"`
	Gross int64  `json:"gross"`
	Net   int64  `json:"net"`
}

func (s *Store) ConfirmedDailySeries(from, to time.Time) ([]SeriesPoint, error) {
	var rows []SeriesPoint
	err := s.db.Raw(`
		SELECT CAST(DATE(purchase_date) AS TEXT) AS date,
			COALESCE(SUM(amount_gross), 0) AS gross,
			COALESCE(SUM(amount_net), 0) AS net
		FROM transactions
		WHERE status = ? AND purchase_date >= ? AND purchase_date <= ?
		GROUP BY DATE(purchase_date)
		ORDER BY DATE(purchase_date) ASC
	`, models.TransactionConfirmed, from, to).Scan(&rows).Error
	return rows, err
}
