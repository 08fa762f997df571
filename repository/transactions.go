package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/IkingariSolorzano/cinepoints-be/models"
)

type TransactionFilter struct {
	Status     models.TransactionStatus
	CustomerID *uuid.UUID
	Limit      int
	Offset     int
}

func (s *Store) CreateTransaction(t *models.Transaction) error {
	return s.db.Create(t).Error
}

func (s *Store) filteredTransactions(f TransactionFilter) *gorm.DB {
	q := s.db.Model(&models.Transaction{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	return q
}

// ListTransactions returns one page of transactions, newest purchase
// first, and the total number matching f.
func (s *Store) ListTransactions(f TransactionFilter) ([]models.Transaction, int64, error) {
	var total int64
	if err := s.filteredTransactions(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []models.Transaction
	err := s.filteredTransactions(f).
		Preload("Customer").
		Order("purchase_date DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&txs).Error
	return txs, total, err
}

// SetTransactionStatus moves a transaction out of from. Zero rows affected
// means it was no longer in that status.
func (s *Store) SetTransactionStatus(id uuid.UUID, from, to models.TransactionStatus) (int64, error) {
	res := s.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (s *Store) CountTransactionsByStatus(status models.TransactionStatus) (int64, error) {
	var count int64
	err := s.db.Model(&models.Transaction{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// PendingTransactions returns the oldest pending transactions first.
func (s *Store) PendingTransactions(limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.Preload("Customer").
		Where("status = ?", models.TransactionPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (s *Store) TransactionsCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.Transaction{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}
