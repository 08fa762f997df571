package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/IkingariSolorzano/cinepoints-be/models"
)

func (s *Store) CreateCustomer(c *models.Customer) error {
	return s.db.Create(c).Error
}

// SearchCustomers lists customers newest first. A non-empty query matches
// name, phone or email.
func (s *Store) SearchCustomers(query string, limit int) ([]models.Customer, error) {
	var customers []models.Customer
	q := s.db.Order("created_at DESC").Limit(limit)
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	err := q.Find(&customers).Error
	return customers, err
}

// CustomerWithTransactions loads a customer and its latest transactions.
func (s *Store) CustomerWithTransactions(id uuid.UUID, limit int) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.Preload("Transactions", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC").Limit(limit)
	}).First(&customer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) UpdateCustomer(id uuid.UUID, fields map[string]interface{}) (int64, error) {
	res := s.db.Model(&models.Customer{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}
