package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskmanager/internal/config"
	"taskmanager/internal/db"
	"taskmanager/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := db.Open(config.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() { _ = db.Close(gormDB) })
	return gormDB
}

func createUser(t *testing.T, repo UserRepository, email string) *model.User {
	t.Helper()
	user := &model.User{Name: "User " + email, Email: email, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	require.NotZero(t, user.ID)
	return user
}

func strPtr(s string) *string { return &s }

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	alice := createUser(t, repo, "alice@example.com")

	byID, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindByID(ctx, alice.ID+100)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	taken, err := repo.EmailTaken(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTaken(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	createUser(t, repo, "dup@example.com")

	err := repo.Create(context.Background(), &model.User{Name: "Other", Email: "dup@example.com", PasswordHash: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestTaskRepository_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	users := NewUserRepository(gormDB)
	tasks := NewTaskRepository(gormDB)

	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")

	first := &model.Task{Title: "write report", Description: strPtr("quarterly"), OwnerID: alice.ID}
	second := &model.Task{Title: "buy milk", OwnerID: alice.ID}
	require.NoError(t, tasks.Create(ctx, first))
	require.NoError(t, tasks.Create(ctx, second))

	aliceTasks, err := tasks.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceTasks, 2)
	assert.Equal(t, first.ID, aliceTasks[0].ID)
	assert.Equal(t, "quarterly", *aliceTasks[0].Description)
	assert.Nil(t, aliceTasks[1].Description)

	bobTasks, err := tasks.ListByOwner(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, bobTasks)
	assert.Empty(t, bobTasks)

	_, err = tasks.FindByIDForOwner(ctx, first.ID, bob.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := tasks.FindByIDForOwner(ctx, first.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "write report", found.Title)

	err = tasks.DeleteForOwner(ctx, first.ID, bob.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, tasks.DeleteForOwner(ctx, first.ID, alice.ID))
	_, err = tasks.FindByIDForOwner(ctx, first.ID, alice.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTaskRepository_Update(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	users := NewUserRepository(gormDB)
	tasks := NewTaskRepository(gormDB)

	alice := createUser(t, users, "alice@example.com")
	task := &model.Task{Title: "draft", Description: strPtr("v1"), OwnerID: alice.ID}
	require.NoError(t, tasks.Create(ctx, task))

	task.Title = "final"
	task.Description = nil
	require.NoError(t, tasks.Update(ctx, task))

	reloaded, err := tasks.FindByIDForOwner(ctx, task.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", reloaded.Title)
	assert.Nil(t, reloaded.Description)
}
