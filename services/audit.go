package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
)

const (
	AuditCreateCustomer    = "CREATE_CUSTOMER"
	AuditUpdateCustomer    = "UPDATE_CUSTOMER"
	AuditCreateTransaction = "CREATE_TRANSACTION"
	AuditConfirmTx         = "CONFIRM_TRANSACTION"
	AuditRejectTx          = "REJECT_TRANSACTION"
	AuditRedeemPoints      = "REDEEM_POINTS"
	AuditRedeemVoucher     = "REDEEM_VOUCHER"
	AuditUseVoucher        = "USE_REWARD_VOUCHER"
	AuditUpdateRules       = "UPDATE_RULES"
	AuditCreateUser        = "CREATE_USER"

	EntityCustomer      = "CUSTOMER"
	EntityTransaction   = "TRANSACTION"
	EntityPointRule     = "POINT_RULE"
	EntityRewardVoucher = "REWARD_VOUCHER"
	EntityUser          = "USER"

	defaultAuditLimit = 100
)

// AuditService records staff actions after they succeed.
type AuditService struct {
	store *repository.Store
}

func NewAuditService(store *repository.Store) *AuditService {
	return &AuditService{store: store}
}

// Record writes one audit row. Failures are only logged.
func (s *AuditService) Record(ctx context.Context, userID uuid.UUID, action, entityType, entityID string, meta map[string]any) {
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			log.Printf("[AUDIT] Cannot encode meta for %s: %v", action, err)
		} else {
			entry.MetaJSON = datatypes.JSON(raw)
		}
	}
	if err := s.store.WithContext(ctx).CreateAuditLog(entry); err != nil {
		log.Printf("[AUDIT] Failed to record %s on %s %s: %v", action, entityType, entityID, err)
	}
}

func (s *AuditService) List(ctx context.Context, entityType string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > defaultAuditLimit {
		limit = defaultAuditLimit
	}
	logs, err := s.store.WithContext(ctx).AuditLogs(entityType, limit)
	if err != nil {
		return nil, storageError("list audit logs", err)
	}
	return logs, nil
}
