package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/IkingariSolorzano/cinepoints-be/services"
	"github.com/IkingariSolorzano/cinepoints-be/websocket"
)

const jobTimeout = 5 * time.Minute

// Expirer is the part of the loyalty engine the scheduler drives.
type Expirer interface {
	ExpirePoints(ctx context.Context) (*services.ExpiryReport, error)
	ExpireRewardVouchers(ctx context.Context) (int64, error)
}

type Config struct {
	PointsExpirySpec  string
	VoucherExpirySpec string
}

// Scheduler runs the periodic loyalty jobs. Overlapping runs of the same
// job are skipped.
type Scheduler struct {
	cron    *cron.Cron
	loyalty Expirer
	events  services.Publisher
}

func NewScheduler(cfg Config, loyalty Expirer, events services.Publisher) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		loyalty: loyalty,
		events:  events,
	}
	if _, err := s.cron.AddFunc(cfg.PointsExpirySpec, s.ExpirePoints); err != nil {
		return nil, fmt.Errorf("schedule points expiry %q: %w", cfg.PointsExpirySpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.VoucherExpirySpec, s.ExpireRewardVouchers); err != nil {
		return nil, fmt.Errorf("schedule voucher expiry %q: %w", cfg.VoucherExpirySpec, err)
	}
	log.Printf("[CRON] points expiry=%q voucher expiry=%q", cfg.PointsExpirySpec, cfg.VoucherExpirySpec)
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) ExpirePoints() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := s.loyalty.ExpirePoints(ctx)
	if err != nil {
		log.Printf("[CRON] Points expiry failed: %v", err)
		return
	}
	if report.Points > 0 {
		s.refresh("points_expired")
	}
}

func (s *Scheduler) ExpireRewardVouchers() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.loyalty.ExpireRewardVouchers(ctx)
	if err != nil {
		log.Printf("[CRON] Reward voucher expiry failed: %v", err)
		return
	}
	if n > 0 {
		s.refresh("reward_vouchers_expired")
	}
}

func (s *Scheduler) refresh(reason string) {
	if s.events == nil {
		return
	}
	s.events.Publish(websocket.EventDashboardRefresh, websocket.DashboardRefreshEvent{Reason: reason})
}
