package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PointRule is one entry of the conversion-rule log. Rows are never
// updated; the highest Sequence is the active rule.
type PointRule struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	Sequence           int64     `json:"sequence" gorm:"uniqueIndex;not null"`
	ConversionUnit     int64     `json:"conversion_unit" gorm:"not null"`
	TicketMultiplier   float64   `json:"ticket_multiplier" gorm:"not null"`
	ComboMultiplier    float64   `json:"combo_multiplier" gorm:"not null"`
	AppWebBonus        float64   `json:"app_web_bonus" gorm:"not null"`
	PointsExpiryMonths int       `json:"points_expiry_months" gorm:"not null"`
	CreatedAt          time.Time `json:"created_at"`
}

type LedgerType string

const (
	LedgerEarn   LedgerType = "EARN"
	LedgerRedeem LedgerType = "REDEEM"
	LedgerExpire LedgerType = "EXPIRE"
)

// PointLedger is an append-only point movement. Points is signed: positive
// for EARN, negative for REDEEM and EXPIRE. The (transaction_id, type)
// index admits one EARN per transaction; other types leave TransactionID
// nil.
type PointLedger struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CustomerID    uuid.UUID      `json:"customer_id" gorm:"type:uuid;not null;index"`
	TransactionID *uuid.UUID     `json:"transaction_id,omitempty" gorm:"type:uuid;uniqueIndex:idx_ledger_tx_type"`
	Points        int64          `json:"points" gorm:"not null"`
	Type          LedgerType     `json:"type" gorm:"size:16;not null;uniqueIndex:idx_ledger_tx_type"`
	RuleSnapshot  datatypes.JSON `json:"rule_snapshot,omitempty"`
	ExpiredAt     *time.Time     `json:"expired_at,omitempty" gorm:"index"`
	CreatedAt     time.Time      `json:"created_at" gorm:"index"`
}

func (PointLedger) TableName() string {
	return "point_ledger"
}

func (l *PointLedger) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type RewardVoucherStatus string

const (
	VoucherIssued  RewardVoucherStatus = "ISSUED"
	VoucherUsed    RewardVoucherStatus = "USED"
	VoucherExpired RewardVoucherStatus = "EXPIRED"
)

const RewardTypeDiscountPercent = "DISCOUNT_PERCENT"

type RewardVoucher struct {
	ID              uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	CustomerID      uuid.UUID           `json:"customer_id" gorm:"type:uuid;not null;index"`
	RewardID        string              `json:"reward_id" gorm:"size:32"`
	RewardType      string              `json:"reward_type" gorm:"size:32;not null"`
	DiscountPercent int                 `json:"discount_percent" gorm:"not null"`
	PointsCost      int64               `json:"points_cost" gorm:"not null"`
	Code            string              `json:"code" gorm:"uniqueIndex;size:48;not null"`
	Status          RewardVoucherStatus `json:"status" gorm:"size:16;not null;default:'ISSUED';index"`
	IssuedAt        time.Time           `json:"issued_at"`
	ExpiresAt       time.Time           `json:"expires_at" gorm:"index"`
	UsedAt          *time.Time          `json:"used_at,omitempty"`
}

func (v *RewardVoucher) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&AuditLog{},
		&Customer{},
		&Transaction{},
		&PointRule{},
		&PointLedger{},
		&TierHistory{},
		&RewardVoucher{},
	); err != nil {
		return err
	}
	// At most one open tier interval per customer.
	return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_tier_history_open ON tier_history (customer_id) WHERE to_date IS NULL").Error
}
