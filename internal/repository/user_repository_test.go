package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/testimonial-service/internal/domain"
)

var userColumnNames = []string{
	"id", "name", "email", "password_hash", "role", "reset_token", "reset_token_expiry", "created_at", "updated_at",
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, role)")).
		WithArgs("Alice", "alice@example.com", "hash", domain.RoleUser).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("u-1", now, now))

	user := &domain.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash", Role: domain.RoleUser}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, now, user.CreatedAt)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("Alice", "alice@example.com", "hash", domain.RoleUser).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := repo.Create(context.Background(), &domain.User{
		Name: "Alice", Email: "alice@example.com", PasswordHash: "hash", Role: domain.RoleUser,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now()
	token := "abc"

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=$1")).
		WithArgs("bob@example.com").
		WillReturnRows(pgxmock.NewRows(userColumnNames).
			AddRow("u-2", "Bobby", "bob@example.com", "hash", domain.RoleAdmin, &token, &now, now, now))

	user, err := repo.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-2", user.ID)
	assert.True(t, user.IsAdmin())
	require.NotNil(t, user.ResetToken)
	assert.Equal(t, "abc", *user.ResetToken)
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=$1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestUserRepository_List(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WillReturnRows(pgxmock.NewRows(userColumnNames).
			AddRow("u-2", "Bobby", "bob@example.com", "hash", domain.RoleUser, (*string)(nil), (*time.Time)(nil), now, now).
			AddRow("u-1", "Alice", "alice@example.com", "hash", domain.RoleAdmin, (*string)(nil), (*time.Time)(nil), now, now))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u-2", users[0].ID)
	assert.Nil(t, users[0].ResetToken)
}

func TestUserRepository_SetResetToken(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	expiry := time.Now().Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET reset_token=$1, reset_token_expiry=$2")).
		WithArgs("tok", expiry, "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetResetToken(context.Background(), "u-1", "tok", expiry))
}

func TestUserRepository_ResetPasswordClearsToken(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("reset_token=NULL, reset_token_expiry=NULL")).
		WithArgs("newhash", "u-1", "tok").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.ResetPassword(context.Background(), "u-1", "tok", "newhash"))
}

func TestUserRepository_ResetPasswordConsumedToken(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id=$2 AND reset_token=$3")).
		WithArgs("newhash", "u-1", "tok").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.ResetPassword(context.Background(), "u-1", "tok", "newhash"), pgx.ErrNoRows)
}

func TestUserRepository_UpdateRoleNoRows(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role=$1")).
		WithArgs(domain.RoleAdmin, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateRole(context.Background(), "missing", domain.RoleAdmin)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestUserRepository_DeletePropagatesError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	boom := errors.New("connection reset")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=$1")).
		WithArgs("u-1").
		WillReturnError(boom)

	assert.ErrorIs(t, repo.Delete(context.Background(), "u-1"), boom)
}

func TestUserRepository_MalformedIDReadsAsMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	invalidUUID := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "foo"`}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=$1")).
		WithArgs("foo").
		WillReturnError(invalidUUID)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=$1")).
		WithArgs("foo").
		WillReturnError(invalidUUID)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role=$1")).
		WithArgs(domain.RoleAdmin, "foo").
		WillReturnError(invalidUUID)

	_, err := repo.GetByID(context.Background(), "foo")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(context.Background(), "foo"), pgx.ErrNoRows)
	assert.ErrorIs(t, repo.UpdateRole(context.Background(), "foo", domain.RoleAdmin), pgx.ErrNoRows)
}
