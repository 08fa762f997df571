package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionConfirmed TransactionStatus = "CONFIRMED"
	TransactionRejected  TransactionStatus = "REJECTED"
)

type ProductType string

const (
	ProductTicket ProductType = "TICKET"
	ProductCombo  ProductType = "COMBO"
)

type Channel string

const (
	ChannelApp     Channel = "APP"
	ChannelWeb     Channel = "WEB"
	ChannelOffline Channel = "OFFLINE"
)

// Transaction is a customer purchase. Amounts are whole currency units.
type Transaction struct {
	ID              uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	CustomerID      uuid.UUID         `json:"customer_id" gorm:"type:uuid;not null;index"`
	Customer        *Customer         `json:"customer,omitempty"`
	AmountGross     int64             `json:"amount_gross" gorm:"not null"`
	AmountNet       int64             `json:"amount_net" gorm:"not null"`
	TicketCount     int               `json:"ticket_count" gorm:"default:1"`
	PurchaseDate    time.Time         `json:"purchase_date" gorm:"not null;index"`
	ProductType     ProductType       `json:"product_type" gorm:"size:16;not null"`
	Channel         Channel           `json:"channel" gorm:"size:16;not null;default:'OFFLINE'"`
	MovieName       string            `json:"movie_name"`
	CinemaName      string            `json:"cinema_name"`
	DiscountPercent int               `json:"discount_percent" gorm:"default:0"`
	VoucherCode     string            `json:"voucher_code"`
	ProofImageURL   string            `json:"proof_image_url"`
	Status          TransactionStatus `json:"status" gorm:"size:16;not null;default:'PENDING';index"`
	CreatedByID     *uuid.UUID        `json:"created_by_id" gorm:"type:uuid"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
