package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	repo := NewPostgresRepositoryWithPool(mock)
	repo.delays = []time.Duration{time.Millisecond, time.Millisecond}

	return repo, mock
}

func testSession() *model.Session {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &model.Session{
		ID:        "s1",
		Lines:     []model.CartLine{{ID: "p1", Kind: model.ItemKindProduct, UnitPrice: 300, Quantity: 2}},
		Coupon:    &model.Coupon{Code: "FLAT50", Kind: model.CouponKindFlat, Amount: 50},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPostgresRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	s := testSession()

	mock.ExpectExec("INSERT INTO checkout_sessions").
		WithArgs(s.ID, pgxmock.AnyArg(), s.CreatedAt, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), s))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)
	s := testSession()

	mock.ExpectExec("INSERT INTO checkout_sessions").
		WithArgs(s.ID, pgxmock.AnyArg(), s.CreatedAt, s.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := repo.Create(context.Background(), s)
	assert.ErrorIs(t, err, ErrSessionExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get(t *testing.T) {
	repo, mock := newMockRepo(t)
	s := testSession()

	payload, err := json.Marshal(s)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload FROM checkout_sessions").
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, s, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT payload FROM checkout_sessions").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPostgresRepository_SaveRetriesSerializationFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	s := testSession()

	mock.ExpectExec("UPDATE checkout_sessions SET payload").
		WithArgs(s.ID, pgxmock.AnyArg(), s.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.SerializationFailure})
	mock.ExpectExec("UPDATE checkout_sessions SET payload").
		WithArgs(s.ID, pgxmock.AnyArg(), s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Save(context.Background(), s))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SaveMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	s := testSession()

	mock.ExpectExec("UPDATE checkout_sessions SET payload").
		WithArgs(s.ID, pgxmock.AnyArg(), s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Save(context.Background(), s)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM checkout_sessions WHERE id").
		WithArgs("s1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM checkout_sessions WHERE id").
		WithArgs("s1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "s1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "s1"), ErrSessionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_DeleteExpired(t *testing.T) {
	repo, mock := newMockRepo(t)
	before := time.Now()

	mock.ExpectExec("DELETE FROM checkout_sessions WHERE updated_at").
		WithArgs(before).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteExpired(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
