package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tier string

const (
	TierBronze  Tier = "BRONZE"
	TierSilver  Tier = "SILVER"
	TierGold    Tier = "GOLD"
	TierDiamond Tier = "DIAMOND"
)

type Customer struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Phone       string         `json:"phone" gorm:"uniqueIndex;not null"`
	Email       string         `json:"email"`
	TotalPoints int64          `json:"total_points" gorm:"not null;default:0"`
	Tier        Tier           `json:"tier" gorm:"size:16;not null;default:'BRONZE'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Transactions []Transaction `json:"transactions,omitempty"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Tier == "" {
		c.Tier = TierBronze
	}
	return nil
}

// TierHistory is one interval of a customer's tier. ToDate nil marks the
// open interval; a customer has at most one.
type TierHistory struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID  `json:"customer_id" gorm:"type:uuid;not null;index"`
	Tier       Tier       `json:"tier" gorm:"size:16;not null"`
	FromDate   time.Time  `json:"from_date" gorm:"not null"`
	ToDate     *time.Time `json:"to_date"`
}

func (TierHistory) TableName() string {
	return "tier_history"
}

func (h *TierHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
