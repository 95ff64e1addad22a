package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylistiq/wardrobe-api/internal/models"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "verified_client", "active", "last_login", "created_at", "updated_at"})
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := userRows().
		AddRow("user-1", "client@example.com", "hash", "Test Client", "CLIENT", true, true, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, verified_client, active, last_login, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("client@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "client@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.True(t, user.VerifiedClient)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmailMissing(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Email: "new@example.com", FullName: "New", Role: models.RoleClient, Active: true}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySetVerifiedClient(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET verified_client = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("user-1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetVerifiedClient(context.Background(), "user-1", true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySetVerifiedClientMissing(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE users SET verified_client`).
		WithArgs("ghost", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetVerifiedClient(context.Background(), "ghost", false)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenRoundTrip(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := &models.RefreshToken{UserID: "user-1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	assert.NotEmpty(t, token.ID)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at", "ip_address", "user_agent"}).
		AddRow(token.ID, "user-1", "tok", token.ExpiresAt, token.CreatedAt, false, nil, "", "")
	mock.ExpectQuery(`SELECT .+ FROM refresh_tokens WHERE token = \$1`).
		WithArgs("tok").
		WillReturnRows(rows)

	stored, err := repo.FindRefreshToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.UserID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1")).
		WithArgs(token.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeRefreshToken(context.Background(), token.ID, time.Now()))

	require.NoError(t, mock.ExpectationsWereMet())
}
