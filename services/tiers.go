package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
)

// Spend thresholds are inclusive lower bounds in currency units.
const (
	SilverThreshold  int64 = 2_000_000
	GoldThreshold    int64 = 5_000_000
	DiamondThreshold int64 = 10_000_000
)

// TierForSpend maps trailing net spend to a tier; the highest matching
// threshold wins.
func TierForSpend(spend int64) models.Tier {
	switch {
	case spend >= DiamondThreshold:
		return models.TierDiamond
	case spend >= GoldThreshold:
		return models.TierGold
	case spend >= SilverThreshold:
		return models.TierSilver
	default:
		return models.TierBronze
	}
}

// TierWindowStart is the start of the 12-month sliding window used both for
// tier evaluation and the spend leaderboard.
func TierWindowStart(now time.Time) time.Time {
	return now.AddDate(-1, 0, 0)
}

type TierService struct {
	store *repository.Store
}

func NewTierService(store *repository.Store) *TierService {
	return &TierService{store: store}
}

// open starts the first interval for a new customer.
func (s *TierService) open(tx *repository.Store, customerID uuid.UUID, tier models.Tier, at time.Time) error {
	return tx.OpenTier(&models.TierHistory{
		CustomerID: customerID,
		Tier:       tier,
		FromDate:   at,
	})
}

// transition closes the open interval, opens one at tier and updates the
// customer. Callers run it inside a single transaction.
func (s *TierService) transition(tx *repository.Store, customerID uuid.UUID, tier models.Tier, at time.Time) error {
	if err := tx.CloseOpenTier(customerID, at); err != nil {
		return err
	}
	if err := s.open(tx, customerID, tier, at); err != nil {
		return err
	}
	return tx.SetTier(customerID, tier)
}

func (s *TierService) History(ctx context.Context, customerID uuid.UUID) ([]models.TierHistory, error) {
	rows, err := s.store.WithContext(ctx).TierHistory(customerID)
	if err != nil {
		return nil, storageError("list tier history", err)
	}
	return rows, nil
}
