package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
)

const defaultRuleSequence = 1

// ruleSequenceAttempts bounds retries when two admins publish a rule at
// the same moment and race for the next sequence number.
const ruleSequenceAttempts = 3

// DefaultPointRule is the rule installed when the log is empty.
func DefaultPointRule() models.PointRule {
	return models.PointRule{
		Sequence:           defaultRuleSequence,
		ConversionUnit:     10000,
		TicketMultiplier:   1.0,
		ComboMultiplier:    1.5,
		AppWebBonus:        0.1,
		PointsExpiryMonths: 12,
	}
}

// RuleParams is the admin input for a new rule. Pointers distinguish a
// missing field from an explicit zero.
type RuleParams struct {
	ConversionUnit     *int64   `json:"conversion_unit" validate:"required,gt=0"`
	TicketMultiplier   *float64 `json:"ticket_multiplier" validate:"required,gte=0"`
	ComboMultiplier    *float64 `json:"combo_multiplier" validate:"required,gte=0"`
	AppWebBonus        *float64 `json:"app_web_bonus" validate:"required,gte=0"`
	PointsExpiryMonths *int     `json:"points_expiry_months" validate:"required,gte=1"`
}

type RuleService struct {
	store    *repository.Store
	validate *validator.Validate
	now      func() time.Time
}

func NewRuleService(store *repository.Store) *RuleService {
	return &RuleService{
		store:    store,
		validate: validator.New(),
		now:      time.Now,
	}
}

// GetActiveRule returns the most recent rule, installing the default on
// first use.
func (s *RuleService) GetActiveRule(ctx context.Context) (*models.PointRule, error) {
	return s.activeRule(s.store.WithContext(ctx))
}

// activeRule works on any store handle so earning can read the rule inside
// its own transaction. The default is inserted with ON CONFLICT DO NOTHING
// on sequence 1, so concurrent first calls converge on a single row.
func (s *RuleService) activeRule(st *repository.Store) (*models.PointRule, error) {
	rule, err := st.LatestRule()
	if err == nil {
		return rule, nil
	}
	if !repository.IsNotFound(err) {
		return nil, storageError("load active rule", err)
	}

	def := DefaultPointRule()
	def.CreatedAt = s.now().UTC()
	if err := st.InsertRuleIfAbsent(&def); err != nil {
		return nil, storageError("install default rule", err)
	}
	rule, err = st.LatestRule()
	if err != nil {
		return nil, storageError("load active rule", err)
	}
	return rule, nil
}

// CreateRule appends a new rule to the log. It becomes active immediately;
// earlier rules are left untouched.
func (s *RuleService) CreateRule(ctx context.Context, params RuleParams) (*models.PointRule, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, invalidInput("rule params: %v", err)
	}

	var lastErr error
	for attempt := 0; attempt < ruleSequenceAttempts; attempt++ {
		var rule models.PointRule
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			seq, err := tx.NextRuleSequence()
			if err != nil {
				return err
			}
			rule = models.PointRule{
				Sequence:           seq,
				ConversionUnit:     *params.ConversionUnit,
				TicketMultiplier:   *params.TicketMultiplier,
				ComboMultiplier:    *params.ComboMultiplier,
				AppWebBonus:        *params.AppWebBonus,
				PointsExpiryMonths: *params.PointsExpiryMonths,
				CreatedAt:          s.now().UTC(),
			}
			return tx.CreateRule(&rule)
		})
		if err == nil {
			return &rule, nil
		}
		if !repository.IsDuplicate(err) {
			return nil, storageError("create rule", err)
		}
		lastErr = err
	}
	return nil, storageError("create rule", lastErr)
}
