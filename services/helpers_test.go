package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection serializes concurrent transactions the way row locks
	// would on postgres.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))
	return db
}

// plantBeforeInsert registers a create callback that runs plant inside the
// inserting transaction right before an INSERT into table, at most limit
// times. The planted row stands in for one a concurrent writer committed
// after the caller's pre-check. It returns how often plant ran.
func plantBeforeInsert(t *testing.T, db *gorm.DB, table string, limit int32, plant func(tx *gorm.DB) error) *atomic.Int32 {
	t.Helper()
	var (
		fired    atomic.Int32
		planting atomic.Bool
	)
	name := "test:plant_" + table
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != table || planting.Load() || fired.Load() >= limit {
			return
		}
		planting.Store(true)
		defer planting.Store(false)
		fired.Add(1)
		if err := plant(tx.Session(&gorm.Session{NewDB: true})); err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Callback().Create().Remove(name) })
	return &fired
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *fixedClock {
	return &fixedClock{now: t.UTC()}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

type recordedEvent struct {
	Name    string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Name: event, Payload: payload})
}

func (p *recordingPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.Name)
	}
	return names
}

var testEpoch = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type env struct {
	db        *gorm.DB
	store     *repository.Store
	clock     *fixedClock
	events    *recordingPublisher
	loyalty   *LoyaltyService
	customers *CustomerService
	txs       *TransactionService
}

func newEnv(t *testing.T, opts ...LoyaltyOption) *env {
	t.Helper()
	db := setupTestDB(t)
	store := repository.New(db)
	clock := newClock(testEpoch)
	events := &recordingPublisher{}
	opts = append([]LoyaltyOption{WithClock(clock.Now), WithPublisher(events)}, opts...)
	loyalty := NewLoyaltyService(store, DefaultRewardCatalog(), opts...)
	customers := NewCustomerService(store, loyalty.Tiers())
	customers.now = clock.Now
	return &env{
		db:        db,
		store:     store,
		clock:     clock,
		events:    events,
		loyalty:   loyalty,
		customers: customers,
		txs:       NewTransactionService(store, loyalty, events),
	}
}

func (e *env) customer(t *testing.T, phone string) *models.Customer {
	t.Helper()
	c, err := e.customers.Create(context.Background(), CustomerParams{Name: "Customer " + phone, Phone: phone})
	require.NoError(t, err)
	return c
}

// setBalance overwrites the balance and records a matching EARN so the
// ledger stays reconciled.
func (e *env) setBalance(t *testing.T, customerID uuid.UUID, points int64) {
	t.Helper()
	now := e.clock.Now()
	expiry := now.AddDate(1, 0, 0)
	require.NoError(t, e.db.Model(&models.Customer{}).Where("id = ?", customerID).
		Update("total_points", points).Error)
	require.NoError(t, e.db.Create(&models.PointLedger{
		CustomerID: customerID,
		Points:     points,
		Type:       models.LedgerEarn,
		ExpiredAt:  &expiry,
		CreatedAt:  now,
	}).Error)
}

// confirmedTx inserts a CONFIRMED transaction directly.
func (e *env) confirmedTx(t *testing.T, customerID uuid.UUID, net int64, product models.ProductType, channel models.Channel, purchased time.Time) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		CustomerID:   customerID,
		AmountGross:  net,
		AmountNet:    net,
		TicketCount:  1,
		PurchaseDate: purchased.UTC(),
		ProductType:  product,
		Channel:      channel,
		Status:       models.TransactionConfirmed,
	}
	require.NoError(t, e.db.Create(tx).Error)
	return tx
}

func (e *env) balance(t *testing.T, customerID uuid.UUID) int64 {
	t.Helper()
	b, err := e.store.PointsBalance(customerID)
	require.NoError(t, err)
	return b
}

func (e *env) ledger(t *testing.T, customerID uuid.UUID) []models.PointLedger {
	t.Helper()
	var entries []models.PointLedger
	require.NoError(t, e.db.Where("customer_id = ?", customerID).Order("created_at ASC, id ASC").Find(&entries).Error)
	return entries
}
