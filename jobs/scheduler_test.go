package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IkingariSolorzano/cinepoints-be/services"
	"github.com/IkingariSolorzano/cinepoints-be/websocket"
)

type fakeExpirer struct {
	report   *services.ExpiryReport
	vouchers int64
	err      error
}

func (f *fakeExpirer) ExpirePoints(context.Context) (*services.ExpiryReport, error) {
	return f.report, f.err
}

func (f *fakeExpirer) ExpireRewardVouchers(context.Context) (int64, error) {
	return f.vouchers, f.err
}

type events struct {
	mu    sync.Mutex
	names []string
}

func (e *events) Publish(event string, _ interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.names = append(e.names, event)
}

var specs = Config{PointsExpirySpec: "0 3 * * *", VoucherExpirySpec: "*/15 * * * *"}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(Config{PointsExpirySpec: "nope", VoucherExpirySpec: "*/15 * * * *"}, &fakeExpirer{}, nil)
	require.Error(t, err)

	_, err = NewScheduler(Config{PointsExpirySpec: "0 3 * * *", VoucherExpirySpec: "61 * * * *"}, &fakeExpirer{}, nil)
	require.Error(t, err)
}

func TestJobsRefreshDashboardOnlyWhenSomethingExpired(t *testing.T) {
	fake := &fakeExpirer{report: &services.ExpiryReport{}}
	ev := &events{}
	s, err := NewScheduler(specs, fake, ev)
	require.NoError(t, err)

	s.ExpirePoints()
	s.ExpireRewardVouchers()
	require.Empty(t, ev.names)

	fake.report = &services.ExpiryReport{Customers: 1, Points: 40}
	fake.vouchers = 2
	s.ExpirePoints()
	s.ExpireRewardVouchers()
	require.Equal(t, []string{websocket.EventDashboardRefresh, websocket.EventDashboardRefresh}, ev.names)
}

func TestJobsSurviveErrors(t *testing.T) {
	ev := &events{}
	s, err := NewScheduler(specs, &fakeExpirer{err: errors.New("db down")}, ev)
	require.NoError(t, err)

	s.ExpirePoints()
	s.ExpireRewardVouchers()
	require.Empty(t, ev.names)

	s.Start()
	s.Stop()
}
