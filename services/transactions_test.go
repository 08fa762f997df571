package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
	"github.com/IkingariSolorzano/cinepoints-be/websocket"
)

func ticketParams(customerID uuid.UUID, gross int64) TransactionParams {
	return TransactionParams{
		CustomerID:   customerID,
		AmountGross:  gross,
		PurchaseDate: testEpoch,
		ProductType:  models.ProductTicket,
	}
}

func TestCreateTransactionDefaults(t *testing.T) {
	e := newEnv(t)
	c := e.customer(t, "0812000001")

	tx, err := e.txs.Create(context.Background(), ticketParams(c.ID, 75000), nil)
	require.NoError(t, err)
	require.Equal(t, models.TransactionPending, tx.Status)
	require.Equal(t, int64(75000), tx.AmountNet)
	require.Equal(t, 1, tx.TicketCount)
	require.Equal(t, models.ChannelOffline, tx.Channel)
	require.Contains(t, e.events.Names(), websocket.EventTransactionCreated)
}

func TestCreateTransactionValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "0812000002")

	over := ticketParams(c.ID, 10000)
	over.AmountNet = ptr(int64(10001))
	_, err := e.txs.Create(ctx, over, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	badProduct := ticketParams(c.ID, 10000)
	badProduct.ProductType = "POPCORN"
	_, err = e.txs.Create(ctx, badProduct, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	zeroGross := ticketParams(c.ID, 0)
	_, err = e.txs.Create(ctx, zeroGross, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.txs.Create(ctx, ticketParams(uuid.New(), 10000), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmTransactionEarnsAndChecksTier(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "0812000003")

	params := ticketParams(c.ID, 2_500_000)
	params.Channel = models.ChannelApp
	tx, err := e.txs.Create(ctx, params, nil)
	require.NoError(t, err)

	confirmed, changed, err := e.txs.Confirm(ctx, tx.ID)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, models.TransactionConfirmed, confirmed.Status)

	// 250 units * (1.0 + 0.1)
	require.Equal(t, int64(275), e.balance(t, c.ID))
	customer, err := e.store.FindCustomer(c.ID)
	require.NoError(t, err)
	require.Equal(t, models.TierSilver, customer.Tier)

	again, changed, err := e.txs.Confirm(ctx, tx.ID)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, models.TransactionConfirmed, again.Status)
	require.Equal(t, int64(275), e.balance(t, c.ID))
	require.Len(t, e.ledger(t, c.ID), 1)

	_, _, err = e.txs.Reject(ctx, tx.ID)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRejectTransaction(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "0812000004")

	tx, err := e.txs.Create(ctx, ticketParams(c.ID, 50000), nil)
	require.NoError(t, err)

	rejected, changed, err := e.txs.Reject(ctx, tx.ID)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, models.TransactionRejected, rejected.Status)

	_, changed, err = e.txs.Reject(ctx, tx.ID)
	require.NoError(t, err)
	require.False(t, changed)

	_, _, err = e.txs.Confirm(ctx, tx.ID)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, e.balance(t, c.ID))

	_, _, err = e.txs.Confirm(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListTransactionsFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.customer(t, "0812000005")
	b := e.customer(t, "0812000006")

	for i := 0; i < 3; i++ {
		_, err := e.txs.Create(ctx, ticketParams(a.ID, 10000), nil)
		require.NoError(t, err)
	}
	e.confirmedTx(t, b.ID, 20000, models.ProductCombo, models.ChannelWeb, testEpoch)

	txs, total, err := e.txs.List(ctx, repository.TransactionFilter{CustomerID: &a.ID, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, txs, 2)

	_, total, err = e.txs.List(ctx, repository.TransactionFilter{Status: models.TransactionConfirmed})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}
