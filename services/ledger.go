package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
)

const (
	defaultLedgerLimit = 20
	maxLedgerLimit     = 200
)

// Reconciliation compares the spendable balance with the ledger sum.
type Reconciliation struct {
	CustomerID  uuid.UUID `json:"customer_id"`
	TotalPoints int64     `json:"total_points"`
	LedgerSum   int64     `json:"ledger_sum"`
	Drift       int64     `json:"drift"`
}

func (r Reconciliation) Balanced() bool {
	return r.Drift == 0
}

// LedgerService owns the append-only point ledger. Entries are written
// only from inside the loyalty engine's atomic units.
type LedgerService struct {
	store *repository.Store
}

func NewLedgerService(store *repository.Store) *LedgerService {
	return &LedgerService{store: store}
}

func (s *LedgerService) appendEarn(tx *repository.Store, customerID, transactionID uuid.UUID, points int64, rule *models.PointRule, expiredAt, at time.Time) error {
	raw, err := json.Marshal(ruleSnapshot(rule))
	if err != nil {
		return err
	}
	return tx.InsertLedger(&models.PointLedger{
		CustomerID:    customerID,
		TransactionID: &transactionID,
		Points:        points,
		Type:          models.LedgerEarn,
		RuleSnapshot:  datatypes.JSON(raw),
		ExpiredAt:     &expiredAt,
		CreatedAt:     at,
	})
}

func (s *LedgerService) appendDebit(tx *repository.Store, customerID uuid.UUID, kind models.LedgerType, points int64, meta map[string]any, at time.Time) error {
	entry := &models.PointLedger{
		CustomerID: customerID,
		Points:     -points,
		Type:       kind,
		CreatedAt:  at,
	}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		entry.RuleSnapshot = datatypes.JSON(raw)
	}
	if kind == models.LedgerExpire {
		entry.ExpiredAt = &at
	}
	return tx.InsertLedger(entry)
}

// Entries returns the newest ledger entries for a customer.
func (s *LedgerService) Entries(ctx context.Context, customerID uuid.UUID, limit int) ([]models.PointLedger, error) {
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	if limit > maxLedgerLimit {
		limit = maxLedgerLimit
	}
	entries, err := s.store.WithContext(ctx).LedgerEntries(customerID, limit)
	if err != nil {
		return nil, storageError("list ledger", err)
	}
	return entries, nil
}

func (s *LedgerService) Reconcile(ctx context.Context, customerID uuid.UUID) (*Reconciliation, error) {
	st := s.store.WithContext(ctx)
	customer, err := st.FindCustomer(customerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("customer")
		}
		return nil, storageError("load customer", err)
	}
	sum, err := st.LedgerSum(customerID)
	if err != nil {
		return nil, storageError("sum ledger", err)
	}
	return &Reconciliation{
		CustomerID:  customerID,
		TotalPoints: customer.TotalPoints,
		LedgerSum:   sum,
		Drift:       customer.TotalPoints - sum,
	}, nil
}

// RuleSnapshot is the copy of a rule stored with each EARN entry.
type RuleSnapshot struct {
	Sequence           int64   `json:"sequence"`
	ConversionUnit     int64   `json:"conversion_unit"`
	TicketMultiplier   float64 `json:"ticket_multiplier"`
	ComboMultiplier    float64 `json:"combo_multiplier"`
	AppWebBonus        float64 `json:"app_web_bonus"`
	PointsExpiryMonths int     `json:"points_expiry_months"`
}

func ruleSnapshot(rule *models.PointRule) RuleSnapshot {
	return RuleSnapshot{
		Sequence:           rule.Sequence,
		ConversionUnit:     rule.ConversionUnit,
		TicketMultiplier:   rule.TicketMultiplier,
		ComboMultiplier:    rule.ComboMultiplier,
		AppWebBonus:        rule.AppWebBonus,
		PointsExpiryMonths: rule.PointsExpiryMonths,
	}
}
