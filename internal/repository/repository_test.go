package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"tribehub/internal/database"
	"tribehub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	return db
}

func addr(n int) models.Address {
	return models.MustParseAddress(fmt.Sprintf("0x%040x", n))
}

func TestCollectibleRepository_ReserveUnit(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "unit available", affected: 1, want: true},
		{name: "supply exhausted", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewCollectibleRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "collectibles" SET "total_claimed"=total_claimed + 1`)).
				WithArgs(sqlmock.AnyArg(), 7).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectCommit()

			ok, err := repo.ReserveUnit(context.Background(), 7, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPointRepository_DebitShortBalance(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPointRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "point_balances" SET "balance"=balance - $1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "balance" FROM "point_balances"`)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(50))

	err := repo.Debit(context.Background(), 1, addr(1), 2, 100, time.Now())
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeInsufficientBalance))
	assert.Contains(t, err.Error(), "have 50, need 100")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalances_CreditAndDebit(t *testing.T) {
	t.Parallel()

	db := setupSQLite(t)
	ctx := context.Background()
	now := time.Now()
	points := NewPointRepository(db)

	require.NoError(t, points.Credit(ctx, 1, addr(1), 1, 30, now))
	require.NoError(t, points.Credit(ctx, 1, addr(1), 1, 20, now))

	bal, err := points.Balance(ctx, 1, addr(1), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), bal)

	err = points.Debit(ctx, 1, addr(1), 1, 100, now)
	assert.True(t, models.HasCode(err, models.CodeInsufficientBalance))
	bal, _ = points.Balance(ctx, 1, addr(1), 1)
	assert.Equal(t, int64(50), bal)

	require.NoError(t, points.Debit(ctx, 1, addr(1), 1, 50, now))
	bal, _ = points.Balance(ctx, 1, addr(1), 1)
	assert.Zero(t, bal)

	other, err := points.Balance(ctx, 1, addr(2), 1)
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestTribeRepository_ListPagination(t *testing.T) {
	t.Parallel()

	db := setupSQLite(t)
	ctx := context.Background()
	repo := NewTribeRepository(db)

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Tribe{
			Name:       fmt.Sprintf("Tribe %d", i),
			NameKey:    fmt.Sprintf("tribe %d", i),
			Admin:      addr(i),
			JoinPolicy: models.JoinPolicyPublic,
			Active:     true,
		}))
	}

	tests := []struct {
		name    string
		offset  int
		limit   int
		wantIDs []uint
	}{
		{name: "first page", offset: 0, limit: 2, wantIDs: []uint{1, 2}},
		{name: "last partial page", offset: 4, limit: 2, wantIDs: []uint{5}},
		{name: "offset at total", offset: 5, limit: 2, wantIDs: []uint{}},
		{name: "offset beyond total", offset: 50, limit: 2, wantIDs: []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := repo.List(ctx, tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, int64(5), total)
			ids := []uint{}
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.NotNil(t, items)
		})
	}
}

func TestSignatureRepository_ConsumeOnce(t *testing.T) {
	t.Parallel()

	db := setupSQLite(t)
	ctx := context.Background()
	repo := NewSignatureRepository(db)

	used := func() *models.UsedSignature {
		return &models.UsedSignature{Hash: "0xabc", Purpose: models.SignaturePurposeRedemption, UsedAt: time.Now()}
	}
	first, err := repo.Consume(ctx, used())
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.Consume(ctx, used())
	require.NoError(t, err)
	assert.False(t, second)

	isUsed, err := repo.IsUsed(ctx, "0xabc")
	require.NoError(t, err)
	assert.True(t, isUsed)
}

func TestMembershipRepository_ConsumeInvite(t *testing.T) {
	t.Parallel()

	db := setupSQLite(t)
	ctx := context.Background()
	repo := NewMembershipRepository(db)
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	limited := &models.TribeInvite{TribeID: 1, CodeHash: "h1", MaxUses: 1, CreatedAt: now}
	expired := &models.TribeInvite{TribeID: 1, CodeHash: "h2", MaxUses: 5, ExpiresAt: &past, CreatedAt: now}
	require.NoError(t, repo.CreateInvite(ctx, limited))
	require.NoError(t, repo.CreateInvite(ctx, expired))

	ok, err := repo.ConsumeInvite(ctx, limited.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ConsumeInvite(ctx, limited.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "uses exhausted")

	ok, err = repo.ConsumeInvite(ctx, expired.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "expired")

	found, err := repo.InviteByHash(ctx, 1, "h1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1), found.Uses)

	missing, err := repo.InviteByHash(ctx, 2, "h1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
