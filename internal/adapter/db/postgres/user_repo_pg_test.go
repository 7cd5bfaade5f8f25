package postgres

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/polymorphisma/userhub/internal/domain/user"
	pkgerrors "github.com/polymorphisma/userhub/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Migrate the schema
	err = db.AutoMigrate(&UserSchema{})
	require.NoError(t, err)

	return db
}

func newTestRepo(t *testing.T) *UserRepoPG {
	return NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
}

func int32ptr(v int32) *int32 { return &v }

func TestUserRepoPG_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, &user.User{
		Name:         "John Doe",
		Email:        "john@example.com",
		PasswordHash: "hashed",
		Age:          int32ptr(30),
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", got.Name)
	assert.Equal(t, "john@example.com", got.Email)
	assert.Equal(t, "hashed", got.PasswordHash)
	require.NotNil(t, got.Age)
	assert.Equal(t, int32(30), *got.Age)
}

func TestUserRepoPG_GetByID_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), 9999)
	require.Error(t, err)

	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepoPG_GetByEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &user.User{Name: "Jane Smith", Email: "jane@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jane Smith", got.Name)

	// Missing email is not an error
	got, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepoPG_Create_DuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &user.User{Name: "John Doe", Email: "dup@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &user.User{Name: "Other", Email: "dup@example.com", PasswordHash: "h"})
	assert.Error(t, err)
}

func TestUserRepoPG_Update_PartialFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, &user.User{Name: "John Doe", Email: "john@example.com", PasswordHash: "original"})
	require.NoError(t, err)

	_, err = repo.Update(ctx, &user.User{ID: id, Name: "John Updated", Age: int32ptr(44)})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John Updated", got.Name)
	assert.Equal(t, "john@example.com", got.Email)
	// Untouched fields survive partial updates
	assert.Equal(t, "original", got.PasswordHash)
	require.NotNil(t, got.Age)
	assert.Equal(t, int32(44), *got.Age)
}

func TestUserRepoPG_Update_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Update(context.Background(), &user.User{ID: 12345, Name: "Ghost"})
	require.Error(t, err)

	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepoPG_Update_NoFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Existing user: a field-less update is a no-op that succeeds
	id, err := repo.Create(ctx, &user.User{Name: "John Doe", Email: "john@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	updatedID, err := repo.Update(ctx, &user.User{ID: id})
	require.NoError(t, err)
	assert.Equal(t, id, updatedID)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", got.Name)

	// Nonexistent user: a field-less update still reports not found
	_, err = repo.Update(ctx, &user.User{ID: 12345})
	require.Error(t, err)

	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepoPG_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, &user.User{Name: "John Doe", Email: "john@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	deletedID, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, deletedID)

	_, err = repo.GetByID(ctx, id)
	assert.Error(t, err)

	// Deleting again reports not found
	_, err = repo.Delete(ctx, id)
	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepoPG_List(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []user.User{
		{Name: "John Doe", Email: "john@example.com", PasswordHash: "h"},
		{Name: "Jane Smith", Email: "jane@example.com", PasswordHash: "h"},
		{Name: "Bob Brown", Email: "bob@other.org", PasswordHash: "h"},
	}
	for i := range seed {
		_, err := repo.Create(ctx, &seed[i])
		require.NoError(t, err)
	}

	t.Run("all users", func(t *testing.T) {
		users, total, err := repo.List(ctx, "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, users, 3)
	})

	t.Run("search by name", func(t *testing.T) {
		users, total, err := repo.List(ctx, "john", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, users, 1)
		assert.Equal(t, "John Doe", users[0].Name)
	})

	t.Run("search by email domain", func(t *testing.T) {
		_, total, err := repo.List(ctx, "example.com", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("pagination", func(t *testing.T) {
		users, total, err := repo.List(ctx, "", 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, users, 1)
	})

	t.Run("injection attempt rejected", func(t *testing.T) {
		_, _, err := repo.List(ctx, "john; DROP TABLE users", 1, 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid search query")
	})
}
