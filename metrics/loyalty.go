package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type LoyaltyMetrics struct {
	pointsEarned   prometheus.Counter
	pointsRedeemed *prometheus.CounterVec
	redeemFailures *prometheus.CounterVec
	pointsExpired  prometheus.Counter
	tierChanges    *prometheus.CounterVec
	vouchersIssued *prometheus.CounterVec
	earnSkipped    *prometheus.CounterVec
	vouchersLapsed prometheus.Counter
}

var (
	loyaltyOnce     sync.Once
	loyaltyRegistry *LoyaltyMetrics
)

// Loyalty returns the process-wide loyalty collectors, registering them
// with the default registry on first use.
func Loyalty() *LoyaltyMetrics {
	loyaltyOnce.Do(func() {
		loyaltyRegistry = &LoyaltyMetrics{
			pointsEarned: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "loyalty_points_earned_total",
				Help: "Points credited from confirmed transactions.",
			}),
			pointsRedeemed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_points_redeemed_total",
				Help: "Points debited by redemptions, by kind.",
			}, []string{"kind"}),
			redeemFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_redemption_failures_total",
				Help: "Rejected redemptions by reason.",
			}, []string{"reason"}),
			pointsExpired: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "loyalty_points_expired_total",
				Help: "Points removed by the expiry job.",
			}),
			tierChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_tier_changes_total",
				Help: "Tier transitions by source and target tier.",
			}, []string{"from", "to"}),
			vouchersIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_reward_vouchers_issued_total",
				Help: "Reward vouchers issued by reward id.",
			}, []string{"reward"}),
			earnSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_earn_skipped_total",
				Help: "Earn calls that credited nothing, by reason.",
			}, []string{"reason"}),
			vouchersLapsed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "loyalty_reward_vouchers_expired_total",
				Help: "Issued reward vouchers moved to EXPIRED.",
			}),
		}
		prometheus.MustRegister(
			loyaltyRegistry.pointsEarned,
			loyaltyRegistry.pointsRedeemed,
			loyaltyRegistry.redeemFailures,
			loyaltyRegistry.pointsExpired,
			loyaltyRegistry.tierChanges,
			loyaltyRegistry.vouchersIssued,
			loyaltyRegistry.earnSkipped,
			loyaltyRegistry.vouchersLapsed,
		)
	})
	return loyaltyRegistry
}

func (m *LoyaltyMetrics) PointsEarned(points int64) {
	if m == nil || points <= 0 {
		return
	}
	m.pointsEarned.Add(float64(points))
}

func (m *LoyaltyMetrics) EarnSkipped(reason string) {
	if m == nil {
		return
	}
	m.earnSkipped.WithLabelValues(reason).Inc()
}

func (m *LoyaltyMetrics) PointsRedeemed(kind string, points int64) {
	if m == nil || points <= 0 {
		return
	}
	m.pointsRedeemed.WithLabelValues(kind).Add(float64(points))
}

func (m *LoyaltyMetrics) RedemptionFailed(reason string) {
	if m == nil {
		return
	}
	m.redeemFailures.WithLabelValues(reason).Inc()
}

func (m *LoyaltyMetrics) PointsExpired(points int64) {
	if m == nil || points <= 0 {
		return
	}
	m.pointsExpired.Add(float64(points))
}

func (m *LoyaltyMetrics) TierChanged(from, to string) {
	if m == nil {
		return
	}
	m.tierChanges.WithLabelValues(from, to).Inc()
}

func (m *LoyaltyMetrics) RewardVoucherIssued(rewardID string) {
	if m == nil {
		return
	}
	m.vouchersIssued.WithLabelValues(rewardID).Inc()
}

func (m *LoyaltyMetrics) RewardVouchersExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.vouchersLapsed.Add(float64(n))
}
