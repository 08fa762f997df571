package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/IkingariSolorzano/cinepoints-be/models"
)

// LatestRule returns the rule with the highest sequence, or
// gorm.ErrRecordNotFound when the log is empty.
func (s *Store) LatestRule() (*models.PointRule, error) {
	var rule models.PointRule
	if err := s.db.Order("sequence DESC").First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// InsertRuleIfAbsent inserts rule unless its sequence is already taken.
func (s *Store) InsertRuleIfAbsent(rule *models.PointRule) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sequence"}},
		DoNothing: true,
	}).Create(rule).Error
}

func (s *Store) NextRuleSequence() (int64, error) {
	var max int64
	err := s.db.Model(&models.PointRule{}).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	return max + 1, err
}

func (s *Store) CreateRule(rule *models.PointRule) error {
	return s.db.Create(rule).Error
}

func (s *Store) FindTransaction(id uuid.UUID) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) HasEarnEntry(transactionID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.PointLedger{}).
		Where("transaction_id = ? AND type = ?", transactionID, models.LedgerEarn).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) InsertLedger(entry *models.PointLedger) error {
	return s.db.Create(entry).Error
}

func (s *Store) LedgerEntries(customerID uuid.UUID, limit int) ([]models.PointLedger, error) {
	var entries []models.PointLedger
	err := s.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (s *Store) LedgerSum(customerID uuid.UUID) (int64, error) {
	var sum int64
	err := s.db.Model(&models.PointLedger{}).
		Where("customer_id = ?", customerID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	return sum, err
}

func (s *Store) CirculatingPoints() (int64, error) {
	var sum int64
	err := s.db.Model(&models.PointLedger{}).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	return sum, err
}

func (s *Store) FindCustomer(id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) CustomerExists(id uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (s *Store) IncrementPoints(customerID uuid.UUID, points int64) (int64, error) {
	res := s.db.Model(&models.Customer{}).
		Where("id = ?", customerID).
		UpdateColumn("total_points", gorm.Expr("total_points + ?", points))
	return res.RowsAffected, res.Error
}

// DecrementPointsIfSufficient subtracts points only when the balance
// covers them, in a single conditional UPDATE. Zero rows affected means the
// customer is missing or the balance is too low.
func (s *Store) DecrementPointsIfSufficient(customerID uuid.UUID, points int64) (int64, error) {
	res := s.db.Model(&models.Customer{}).
		Where("id = ? AND total_points >= ?", customerID, points).
		UpdateColumn("total_points", gorm.Expr("total_points - ?", points))
	return res.RowsAffected, res.Error
}

func (s *Store) PointsBalance(customerID uuid.UUID) (int64, error) {
	var balance int64
	err := s.db.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Select("total_points").
		Scan(&balance).Error
	return balance, err
}

// ConfirmedSpendSince sums amount_net over the customer's confirmed
// transactions purchased at or after since.
func (s *Store) ConfirmedSpendSince(customerID uuid.UUID, since time.Time) (int64, error) {
	var total int64
	err := s.db.Model(&models.Transaction{}).
		Where("customer_id = ? AND status = ? AND purchase_date >= ?", customerID, models.TransactionConfirmed, since).
		Select("COALESCE(SUM(amount_net), 0)").
		Scan(&total).Error
	return total, err
}

func (s *Store) CloseOpenTier(customerID uuid.UUID, at time.Time) error {
	return s.db.Model(&models.TierHistory{}).
		Where("customer_id = ? AND to_date IS NULL", customerID).
		Update("to_date", at).Error
}

func (s *Store) OpenTier(entry *models.TierHistory) error {
	return s.db.Create(entry).Error
}

func (s *Store) SetTier(customerID uuid.UUID, tier models.Tier) error {
	return s.db.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("tier", tier).Error
}

func (s *Store) TierHistory(customerID uuid.UUID) ([]models.TierHistory, error) {
	var rows []models.TierHistory
	err := s.db.Where("customer_id = ?", customerID).
		Order("from_date ASC").
		Find(&rows).Error
	return rows, err
}

func (s *Store) CreateRewardVoucher(v *models.RewardVoucher) error {
	return s.db.Create(v).Error
}

func (s *Store) RewardVouchers(customerID uuid.UUID) ([]models.RewardVoucher, error) {
	var vouchers []models.RewardVoucher
	err := s.db.Where("customer_id = ?", customerID).
		Order("issued_at DESC").
		Find(&vouchers).Error
	return vouchers, err
}

func (s *Store) FindRewardVoucherByCode(code string) (*models.RewardVoucher, error) {
	var v models.RewardVoucher
	if err := s.db.First(&v, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// MarkRewardVoucherUsed flips an issued, unexpired voucher to USED. Zero
// rows affected means it was not usable.
func (s *Store) MarkRewardVoucherUsed(code string, at time.Time) (int64, error) {
	res := s.db.Model(&models.RewardVoucher{}).
		Where("code = ? AND status = ? AND expires_at > ?", code, models.VoucherIssued, at).
		Updates(map[string]interface{}{
			"status":  models.VoucherUsed,
			"used_at": at,
		})
	return res.RowsAffected, res.Error
}

func (s *Store) ExpireRewardVouchers(at time.Time) (int64, error) {
	res := s.db.Model(&models.RewardVoucher{}).
		Where("status = ? AND expires_at <= ?", models.VoucherIssued, at).
		Update("status", models.VoucherExpired)
	return res.RowsAffected, res.Error
}

func (s *Store) RewardVouchersExpiringBetween(from, to time.Time, limit int) ([]models.RewardVoucher, error) {
	var vouchers []models.RewardVoucher
	err := s.db.Where("status = ? AND expires_at >= ? AND expires_at <= ?", models.VoucherIssued, from, to).
		Order("expires_at ASC").
		Limit(limit).
		Find(&vouchers).Error
	return vouchers, err
}
