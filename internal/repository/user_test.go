package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestUserRepository_RotateRefreshToken(t *testing.T) {
	t.Run("swaps when the stored token matches", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(`UPDATE users SET refresh_token = .+ WHERE id = .+ AND refresh_token = .+`).
			WithArgs("next-token", sqlmock.AnyArg(), "user-1", "old-token").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.RotateRefreshToken("user-1", "old-token", "next-token")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale token loses the compare-and-swap", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(`UPDATE users SET refresh_token = .+ WHERE id = .+ AND refresh_token = .+`).
			WithArgs("next-token", sqlmock.AnyArg(), "user-1", "stale-token").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.RotateRefreshToken("user-1", "stale-token", "next-token")
		assert.ErrorIs(t, err, ErrTokenMismatch)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_ConsumeVerificationCode(t *testing.T) {
	t.Run("no matching unexpired code", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`UPDATE users`).
			WithArgs("some-code", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.ConsumeVerificationCode("some-code", time.Now())
		assert.ErrorIs(t, err, ErrCodeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("match verifies and clears in one statement", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "username", "first_name", "last_name", "email", "avatar",
			"password_hash", "provider", "google_id", "is_verified", "refresh_token",
			"verification_code", "verification_expiry", "created_at", "updated_at",
		}).AddRow(
			"user-1", "johndoe", "John", nil, "john@example.com", nil,
			nil, nil, nil, true, "",
			nil, nil, now, now,
		)

		mock.ExpectQuery(`UPDATE users`).
			WithArgs("good-code", sqlmock.AnyArg()).
			WillReturnRows(rows)

		user, err := repo.ConsumeVerificationCode("good-code", now)
		require.NoError(t, err)
		assert.True(t, user.IsVerified)
		assert.Nil(t, user.VerificationCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_SetRefreshToken(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(`UPDATE users SET refresh_token = .+ WHERE id = .+`).
			WithArgs("", sqlmock.AnyArg(), "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetRefreshToken("missing", "")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
