package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankrecon/internal/domain"
)

func TestAccountCreate_SeedsBalancesFromOpening(t *testing.T) {
	svc := NewAccountService(newFakeAccountRepo())

	account := &domain.Account{
		Name:           "Collections",
		Number:         "0099887766",
		Institution:    "First Bank",
		Currency:       "KES",
		OpeningBalance: decimal.NewFromInt(25000),
	}

	require.NoError(t, svc.Create(account))

	assert.NotEmpty(t, account.AccountID)
	assert.True(t, account.CurrentBalance.Equal(decimal.NewFromInt(25000)))
	assert.True(t, account.LastReconciledBalance.Equal(decimal.NewFromInt(25000)))
	assert.True(t, account.IsActive)
}

func TestAccountCreate_MissingFieldsRejected(t *testing.T) {
	svc := NewAccountService(newFakeAccountRepo())

	err := svc.Create(&domain.Account{Number: "1", Institution: "X", Currency: "KES"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	err = svc.Create(&domain.Account{Name: "A", Institution: "X", Currency: "KES"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestAccountGetBalanceSnapshot(t *testing.T) {
	repo := newFakeAccountRepo(testAccount())
	svc := NewAccountService(repo)

	snapshot, err := svc.GetBalanceSnapshot("acc-1")

	require.NoError(t, err)
	assert.Equal(t, "acc-1", snapshot.AccountID)
	assert.True(t, snapshot.CurrentBalance.Equal(decimal.NewFromInt(10000)))

	_, err = svc.GetBalanceSnapshot("acc-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
