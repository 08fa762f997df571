package services

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
	"github.com/IkingariSolorzano/cinepoints-be/websocket"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
)

type TransactionParams struct {
	CustomerID      uuid.UUID          `json:"customer_id" validate:"required"`
	AmountGross     int64              `json:"amount_gross" validate:"gt=0"`
	AmountNet       *int64             `json:"amount_net" validate:"omitempty,gte=0"`
	TicketCount     int                `json:"ticket_count" validate:"gte=0"`
	PurchaseDate    time.Time          `json:"purchase_date" validate:"required"`
	ProductType     models.ProductType `json:"product_type" validate:"required,oneof=TICKET COMBO"`
	Channel         models.Channel     `json:"channel" validate:"omitempty,oneof=APP WEB OFFLINE"`
	MovieName       string             `json:"movie_name"`
	CinemaName      string             `json:"cinema_name"`
	DiscountPercent int                `json:"discount_percent" validate:"gte=0,lte=100"`
	VoucherCode     string             `json:"voucher_code"`
	ProofImageURL   string             `json:"proof_image_url" validate:"omitempty,url"`
}

type TransactionService struct {
	store    *repository.Store
	loyalty  *LoyaltyService
	events   Publisher
	validate *validator.Validate
}

func NewTransactionService(store *repository.Store, loyalty *LoyaltyService, events Publisher) *TransactionService {
	if events == nil {
		events = nopPublisher{}
	}
	return &TransactionService{
		store:    store,
		loyalty:  loyalty,
		events:   events,
		validate: validator.New(),
	}
}

// Create records a PENDING purchase. Net defaults to gross, ticket count
// to 1 and channel to OFFLINE.
func (s *TransactionService) Create(ctx context.Context, params TransactionParams, createdBy *uuid.UUID) (*models.Transaction, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, invalidInput("transaction: %v", err)
	}

	net := params.AmountGross
	if params.AmountNet != nil {
		net = *params.AmountNet
	}
	if net > params.AmountGross {
		return nil, invalidInput("amount_net cannot exceed amount_gross")
	}
	tickets := params.TicketCount
	if tickets == 0 {
		tickets = 1
	}
	channel := params.Channel
	if channel == "" {
		channel = models.ChannelOffline
	}

	st := s.store.WithContext(ctx)
	exists, err := st.CustomerExists(params.CustomerID)
	if err != nil {
		return nil, storageError("load customer", err)
	}
	if !exists {
		return nil, notFound("customer")
	}

	tx := &models.Transaction{
		CustomerID:      params.CustomerID,
		AmountGross:     params.AmountGross,
		AmountNet:       net,
		TicketCount:     tickets,
		PurchaseDate:    params.PurchaseDate.UTC(),
		ProductType:     params.ProductType,
		Channel:         channel,
		MovieName:       params.MovieName,
		CinemaName:      params.CinemaName,
		DiscountPercent: params.DiscountPercent,
		VoucherCode:     params.VoucherCode,
		ProofImageURL:   params.ProofImageURL,
		Status:          models.TransactionPending,
		CreatedByID:     createdBy,
	}
	if err := st.CreateTransaction(tx); err != nil {
		return nil, storageError("create transaction", err)
	}

	s.publish(websocket.EventTransactionCreated, tx)
	return tx, nil
}

func (s *TransactionService) List(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultTransactionLimit
	}
	if filter.Limit > maxTransactionLimit {
		filter.Limit = maxTransactionLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	txs, total, err := s.store.WithContext(ctx).ListTransactions(filter)
	if err != nil {
		return nil, 0, storageError("list transactions", err)
	}
	return txs, total, nil
}

// Confirm moves a PENDING transaction to CONFIRMED and then credits points
// and re-evaluates the tier. Loyalty failures are logged and never undo the
// confirmation. The returned flag is false when the transaction was already
// confirmed. REJECTED is terminal: confirming a rejected transaction fails
// with ErrInvalidInput and earns nothing.
func (s *TransactionService) Confirm(ctx context.Context, id uuid.UUID) (*models.Transaction, bool, error) {
	tx, changed, err := s.transition(ctx, id, models.TransactionConfirmed)
	if err != nil || !changed {
		return tx, false, err
	}

	s.publish(websocket.EventTransactionConfirmed, tx)
	if _, err := s.loyalty.EarnPoints(ctx, tx.ID); err != nil {
		log.Printf("[LOYALTY] Earn failed for transaction %s: %v", tx.ID, err)
	}
	if _, err := s.loyalty.CheckTier(ctx, tx.CustomerID); err != nil {
		log.Printf("[LOYALTY] Tier check failed for customer %s: %v", tx.CustomerID, err)
	}
	return tx, true, nil
}

// Reject moves a PENDING transaction to REJECTED. Confirmed transactions
// cannot be rejected.
func (s *TransactionService) Reject(ctx context.Context, id uuid.UUID) (*models.Transaction, bool, error) {
	tx, changed, err := s.transition(ctx, id, models.TransactionRejected)
	if err != nil || !changed {
		return tx, false, err
	}
	s.publish(websocket.EventTransactionRejected, tx)
	return tx, true, nil
}

func (s *TransactionService) transition(ctx context.Context, id uuid.UUID, to models.TransactionStatus) (*models.Transaction, bool, error) {
	var (
		result  *models.Transaction
		changed bool
	)
	err := s.store.Transaction(ctx, func(st *repository.Store) error {
		tx, err := st.FindTransaction(id)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("transaction")
			}
			return err
		}
		result = tx
		switch {
		case tx.Status == to:
			return nil
		case tx.Status != models.TransactionPending:
			return invalidInput("cannot move a %s transaction to %s", tx.Status, to)
		}

		rows, err := st.SetTransactionStatus(id, models.TransactionPending, to)
		if err != nil {
			return err
		}
		if rows == 0 {
			return invalidInput("transaction %s changed concurrently", id)
		}
		tx.Status = to
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, storageError("update transaction", err)
	}
	return result, changed, nil
}

func (s *TransactionService) publish(event string, tx *models.Transaction) {
	s.events.Publish(event, websocket.TransactionEvent{
		TransactionID: tx.ID.String(),
		CustomerID:    tx.CustomerID.String(),
		Status:        string(tx.Status),
		AmountNet:     tx.AmountNet,
	})
}
