package services

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/IkingariSolorzano/cinepoints-be/metrics"
	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
	"github.com/IkingariSolorzano/cinepoints-be/websocket"
)

const (
	rewardVoucherTTL      = 30 * 24 * time.Hour
	defaultTopCustomers   = 10
	maxTopCustomers       = 100
	tierTransitionRetries = 2

	// pointsEpsilon absorbs float error such as 7 * (0.6 + 0.4) landing on
	// 6.999999999 before the floor.
	pointsEpsilon = 1e-9
)

// Publisher receives loyalty events after their atomic unit commits.
type Publisher interface {
	Publish(event string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// TierChange reports the outcome of a tier evaluation.
type TierChange struct {
	CustomerID uuid.UUID   `json:"customer_id"`
	Spend      int64       `json:"spend"`
	From       models.Tier `json:"from"`
	To         models.Tier `json:"to"`
	Changed    bool        `json:"changed"`
}

// VoucherRedemption is the result of exchanging points for a reward.
type VoucherRedemption struct {
	Voucher         *models.RewardVoucher `json:"voucher"`
	PointsRemaining int64                 `json:"points_remaining"`
}

// ExpiryReport summarizes one run of the points expiry job.
type ExpiryReport struct {
	Customers int   `json:"customers"`
	Points    int64 `json:"points"`
}

// LoyaltyService is the points and tier engine. It keeps no state between
// calls; every mutation of balance, ledger and tier history happens inside a
// single store transaction.
type LoyaltyService struct {
	store   *repository.Store
	rules   *RuleService
	ledger  *LedgerService
	tiers   *TierService
	catalog *RewardCatalog
	events  Publisher
	metrics *metrics.LoyaltyMetrics
	codes   CodeGenerator
	now     func() time.Time
}

type LoyaltyOption func(*LoyaltyService)

func WithClock(now func() time.Time) LoyaltyOption {
	return func(s *LoyaltyService) {
		s.now = now
		s.rules.now = now
	}
}

func WithCodeGenerator(gen CodeGenerator) LoyaltyOption {
	return func(s *LoyaltyService) {
		s.codes = gen
	}
}

func WithPublisher(p Publisher) LoyaltyOption {
	return func(s *LoyaltyService) {
		if p != nil {
			s.events = p
		}
	}
}

func WithMetrics(m *metrics.LoyaltyMetrics) LoyaltyOption {
	return func(s *LoyaltyService) {
		s.metrics = m
	}
}

func NewLoyaltyService(store *repository.Store, catalog *RewardCatalog, opts ...LoyaltyOption) *LoyaltyService {
	if catalog == nil {
		catalog = DefaultRewardCatalog()
	}
	s := &LoyaltyService{
		store:   store,
		rules:   NewRuleService(store),
		ledger:  NewLedgerService(store),
		tiers:   NewTierService(store),
		catalog: catalog,
		events:  nopPublisher{},
		metrics: metrics.Loyalty(),
		codes:   NewVoucherCode,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LoyaltyService) Rules() *RuleService { return s.rules }

func (s *LoyaltyService) Ledger() *LedgerService { return s.ledger }

func (s *LoyaltyService) Tiers() *TierService { return s.tiers }

func (s *LoyaltyService) Catalog() *RewardCatalog { return s.catalog }

func (s *LoyaltyService) clock() time.Time {
	return s.now().UTC()
}

func (s *LoyaltyService) publish(event string, payload interface{}) {
	s.events.Publish(event, payload)
}

// CalculatePoints applies rule to a transaction:
// floor(floor(net / unit) * (multiplier + channel bonus)).
func CalculatePoints(rule *models.PointRule, tx *models.Transaction) int64 {
	if rule.ConversionUnit <= 0 || tx.AmountNet <= 0 {
		return 0
	}
	base := tx.AmountNet / rule.ConversionUnit
	if base <= 0 {
		return 0
	}
	multiplier := rule.ComboMultiplier
	if tx.ProductType == models.ProductTicket {
		multiplier = rule.TicketMultiplier
	}
	bonus := 0.0
	if tx.Channel == models.ChannelApp || tx.Channel == models.ChannelWeb {
		bonus = rule.AppWebBonus
	}
	earned := int64(math.Floor(float64(base)*(multiplier+bonus) + pointsEpsilon))
	if earned < 0 {
		return 0
	}
	return earned
}

// EarnPoints credits a confirmed transaction once. Missing, unconfirmed or
// already credited transactions are a silent no-op, so callers may invoke it
// speculatively and retry freely. It returns the points credited.
func (s *LoyaltyService) EarnPoints(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	var (
		earned     int64
		customerID uuid.UUID
		skipped    string
	)

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		t, err := tx.FindTransaction(transactionID)
		if err != nil {
			if repository.IsNotFound(err) {
				skipped = "missing"
				return nil
			}
			return err
		}
		if t.Status != models.TransactionConfirmed {
			skipped = "unconfirmed"
			return nil
		}
		done, err := tx.HasEarnEntry(t.ID)
		if err != nil {
			return err
		}
		if done {
			skipped = "already_earned"
			return nil
		}

		rule, err := s.rules.activeRule(tx)
		if err != nil {
			return err
		}
		points := CalculatePoints(rule, t)
		if points <= 0 {
			skipped = "below_unit"
			return nil
		}

		now := s.clock()
		expiredAt := now.AddDate(0, rule.PointsExpiryMonths, 0)
		if err := s.ledger.appendEarn(tx, t.CustomerID, t.ID, points, rule, expiredAt, now); err != nil {
			return err
		}
		rows, err := tx.IncrementPoints(t.CustomerID, points)
		if err != nil {
			return err
		}
		if rows == 0 {
			return notFound("customer")
		}
		earned, customerID = points, t.CustomerID
		return nil
	})
	if err != nil {
		// A concurrent caller inserted the EARN row first.
		if repository.IsDuplicate(err) {
			s.metrics.EarnSkipped("already_earned")
			return 0, nil
		}
		return 0, storageError("earn points", err)
	}
	if earned == 0 {
		s.metrics.EarnSkipped(skipped)
		return 0, nil
	}

	log.Printf("[LOYALTY] Customer %s earned %d points from transaction %s", customerID, earned, transactionID)
	s.metrics.PointsEarned(earned)
	s.publish(websocket.EventPointsEarned, websocket.PointsEvent{
		CustomerID:    customerID.String(),
		TransactionID: transactionID.String(),
		Points:        earned,
	})
	return earned, nil
}

// CheckTier recomputes the customer's tier from confirmed net spend over
// the trailing 12 months. Upgrades and downgrades are handled alike; an
// unchanged tier writes nothing.
func (s *LoyaltyService) CheckTier(ctx context.Context, customerID uuid.UUID) (*TierChange, error) {
	var (
		change *TierChange
		err    error
	)
	for attempt := 0; attempt < tierTransitionRetries; attempt++ {
		change, err = s.checkTier(ctx, customerID)
		// The open-interval unique index rejects a concurrent transition;
		// re-evaluate against the committed state.
		if err == nil || !repository.IsDuplicate(err) {
			break
		}
	}
	if err != nil {
		return nil, storageError("check tier", err)
	}
	if change.Changed {
		log.Printf("[LOYALTY] Customer %s moved from %s to %s", customerID, change.From, change.To)
		s.metrics.TierChanged(string(change.From), string(change.To))
		s.publish(websocket.EventTierChanged, websocket.TierEvent{
			CustomerID: customerID.String(),
			From:       string(change.From),
			To:         string(change.To),
		})
	}
	return change, nil
}

func (s *LoyaltyService) checkTier(ctx context.Context, customerID uuid.UUID) (*TierChange, error) {
	now := s.clock()
	change := &TierChange{CustomerID: customerID}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		customer, err := tx.FindCustomer(customerID)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("customer")
			}
			return err
		}
		spend, err := tx.ConfirmedSpendSince(customerID, TierWindowStart(now))
		if err != nil {
			return err
		}
		change.Spend = spend
		change.From = customer.Tier
		change.To = TierForSpend(spend)
		if change.From == change.To {
			return nil
		}
		change.Changed = true
		return s.tiers.transition(tx, customerID, change.To, now)
	})
	return change, err
}

// debit subtracts points with a single conditional update. When nothing
// is updated a follow-up read tells a missing customer from a short balance.
func (s *LoyaltyService) debit(tx *repository.Store, customerID uuid.UUID, points int64) error {
	rows, err := tx.DecrementPointsIfSufficient(customerID, points)
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	exists, err := tx.CustomerExists(customerID)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("customer")
	}
	return ErrInsufficientBalance
}

func (s *LoyaltyService) redemptionFailed(err error) {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		s.metrics.RedemptionFailed("insufficient_balance")
	case errors.Is(err, ErrNotFound):
		s.metrics.RedemptionFailed("not_found")
	case errors.Is(err, ErrInvalidReward):
		s.metrics.RedemptionFailed("invalid_reward")
	case errors.Is(err, ErrInvalidInput):
		s.metrics.RedemptionFailed("invalid_input")
	default:
		s.metrics.RedemptionFailed("storage")
	}
}

// RedeemPoints removes points from a customer's balance. Concurrent
// redemptions can never overdraw: the check and the decrement are one
// statement.
func (s *LoyaltyService) RedeemPoints(ctx context.Context, customerID uuid.UUID, points int64) error {
	if points <= 0 {
		err := invalidInput("points must be greater than 0")
		s.redemptionFailed(err)
		return err
	}
	now := s.clock()
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := s.debit(tx, customerID, points); err != nil {
			return err
		}
		return s.ledger.appendDebit(tx, customerID, models.LedgerRedeem, points, nil, now)
	})
	if err != nil {
		err = storageError("redeem points", err)
		s.redemptionFailed(err)
		return err
	}

	s.metrics.PointsRedeemed("points", points)
	s.publish(websocket.EventPointsRedeemed, websocket.PointsEvent{
		CustomerID: customerID.String(),
		Points:     -points,
		Reason:     "manual",
	})
	return nil
}

// RedeemVoucher exchanges a catalog reward's cost for an ISSUED discount
// voucher valid for 30 days.
func (s *LoyaltyService) RedeemVoucher(ctx context.Context, customerID uuid.UUID, rewardID string) (*VoucherRedemption, error) {
	reward, ok := s.catalog.Lookup(rewardID)
	if !ok {
		s.redemptionFailed(ErrInvalidReward)
		return nil, ErrInvalidReward
	}

	now := s.clock()
	var voucher *models.RewardVoucher
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := s.debit(tx, customerID, reward.PointsCost); err != nil {
			return err
		}
		v, err := s.issueVoucher(tx, customerID, reward, now)
		if err != nil {
			return err
		}
		voucher = v
		return s.ledger.appendDebit(tx, customerID, models.LedgerRedeem, reward.PointsCost, map[string]any{
			"rewardId":    reward.ID,
			"voucherCode": v.Code,
		}, now)
	})
	if err != nil {
		err = storageError("redeem voucher", err)
		s.redemptionFailed(err)
		return nil, err
	}

	remaining, err := s.store.WithContext(ctx).PointsBalance(customerID)
	if err != nil {
		return nil, storageError("read balance", err)
	}

	log.Printf("[LOYALTY] Customer %s redeemed %s for voucher %s", customerID, reward.ID, voucher.Code)
	s.metrics.PointsRedeemed("voucher", reward.PointsCost)
	s.metrics.RewardVoucherIssued(reward.ID)
	s.publish(websocket.EventRewardVoucherIssued, websocket.RewardVoucherEvent{
		CustomerID: customerID.String(),
		Code:       voucher.Code,
		RewardID:   reward.ID,
		Status:     string(voucher.Status),
	})
	return &VoucherRedemption{Voucher: voucher, PointsRemaining: remaining}, nil
}

// issueVoucher inserts the voucher under a savepoint, regenerating the code
// when it collides with an existing one.
func (s *LoyaltyService) issueVoucher(tx *repository.Store, customerID uuid.UUID, reward Reward, now time.Time) (*models.RewardVoucher, error) {
	for attempt := 0; attempt < voucherCodeAttempts; attempt++ {
		v := &models.RewardVoucher{
			CustomerID:      customerID,
			RewardID:        reward.ID,
			RewardType:      models.RewardTypeDiscountPercent,
			DiscountPercent: reward.DiscountPercent,
			PointsCost:      reward.PointsCost,
			Code:            s.codes(now),
			Status:          models.VoucherIssued,
			IssuedAt:        now,
			ExpiresAt:       now.Add(rewardVoucherTTL),
		}
		err := tx.Savepoint(func(sp *repository.Store) error {
			return sp.CreateRewardVoucher(v)
		})
		if err == nil {
			return v, nil
		}
		if !repository.IsDuplicate(err) {
			return nil, err
		}
		log.Printf("[LOYALTY] Voucher code %s collided, regenerating", v.Code)
	}
	return nil, errors.Join(ErrStorageFailure, errors.New("voucher code collisions exhausted"))
}

// GetTopCustomers ranks customers by confirmed net spend over the same
// 12-month window CheckTier uses. A limit of zero or less returns the top
// 10; limits above 100 are clamped to 100.
func (s *LoyaltyService) GetTopCustomers(ctx context.Context, limit int) ([]repository.TopCustomerRow, error) {
	if limit <= 0 {
		limit = defaultTopCustomers
	}
	if limit > maxTopCustomers {
		limit = maxTopCustomers
	}
	rows, err := s.store.WithContext(ctx).TopSpenders(TierWindowStart(s.clock()), limit)
	if err != nil {
		return nil, storageError("top customers", err)
	}
	return rows, nil
}

// ExpirePoints removes the unspent remainder of lapsed EARN lots. Each
// customer is settled in its own transaction with the due amount
// recomputed there, so a redemption racing the job is never double counted.
func (s *LoyaltyService) ExpirePoints(ctx context.Context) (*ExpiryReport, error) {
	now := s.clock()
	candidates, err := s.store.WithContext(ctx).ExpiryCandidates(now, nil)
	if err != nil {
		return nil, storageError("scan expiry", err)
	}

	report := &ExpiryReport{}
	for _, c := range candidates {
		expired, err := s.expireCustomer(ctx, c.CustomerID, now)
		if err != nil {
			log.Printf("[LOYALTY] Expiry failed for customer %s: %v", c.CustomerID, err)
			continue
		}
		if expired == 0 {
			continue
		}
		report.Customers++
		report.Points += expired
		s.metrics.PointsExpired(expired)
		s.publish(websocket.EventPointsExpired, websocket.PointsEvent{
			CustomerID: c.CustomerID.String(),
			Points:     -expired,
			Reason:     "expiry",
		})
	}
	if report.Points > 0 {
		log.Printf("[LOYALTY] Expired %d points across %d customers", report.Points, report.Customers)
	}
	return report, nil
}

func (s *LoyaltyService) expireCustomer(ctx context.Context, customerID uuid.UUID, now time.Time) (int64, error) {
	var expired int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		due, err := tx.ExpiryCandidates(now, &customerID)
		if err != nil || len(due) == 0 {
			return err
		}
		balance, err := tx.PointsBalance(customerID)
		if err != nil {
			return err
		}
		points := due[0].Points
		if points > balance {
			points = balance
		}
		if points <= 0 {
			return nil
		}
		if err := s.debit(tx, customerID, points); err != nil {
			return err
		}
		expired = points
		return s.ledger.appendDebit(tx, customerID, models.LedgerExpire, points, nil, now)
	})
	if errors.Is(err, ErrInsufficientBalance) {
		// Balance dropped between read and decrement; next run settles it.
		return 0, nil
	}
	return expired, storageError("expire points", err)
}

// UseRewardVoucher marks an issued, unexpired voucher as used. A voucher
// can be used once.
func (s *LoyaltyService) UseRewardVoucher(ctx context.Context, code string) (*models.RewardVoucher, error) {
	if code == "" {
		return nil, invalidInput("voucher code is required")
	}
	now := s.clock()
	var voucher *models.RewardVoucher
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		rows, err := tx.MarkRewardVoucherUsed(code, now)
		if err != nil {
			return err
		}
		v, err := tx.FindRewardVoucherByCode(code)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("reward voucher")
			}
			return err
		}
		if rows == 0 {
			if v.Status == models.VoucherIssued {
				return invalidInput("voucher %s has expired", code)
			}
			return invalidInput("voucher %s is %s", code, v.Status)
		}
		voucher = v
		return nil
	})
	if err != nil {
		return nil, storageError("use reward voucher", err)
	}
	s.publish(websocket.EventRewardVoucherUsed, websocket.RewardVoucherEvent{
		CustomerID: voucher.CustomerID.String(),
		Code:       voucher.Code,
		RewardID:   voucher.RewardID,
		Status:     string(voucher.Status),
	})
	return voucher, nil
}

// ExpireRewardVouchers moves issued vouchers past their expiry to EXPIRED.
func (s *LoyaltyService) ExpireRewardVouchers(ctx context.Context) (int64, error) {
	n, err := s.store.WithContext(ctx).ExpireRewardVouchers(s.clock())
	if err != nil {
		return 0, storageError("expire reward vouchers", err)
	}
	if n > 0 {
		log.Printf("[LOYALTY] Expired %d reward vouchers", n)
		s.metrics.RewardVouchersExpired(n)
	}
	return n, nil
}

func (s *LoyaltyService) RewardVouchers(ctx context.Context, customerID uuid.UUID) ([]models.RewardVoucher, error) {
	vouchers, err := s.store.WithContext(ctx).RewardVouchers(customerID)
	if err != nil {
		return nil, storageError("list reward vouchers", err)
	}
	return vouchers, nil
}
