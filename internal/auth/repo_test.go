package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`DROP TABLE IF EXISTS owners`,
		`CREATE TABLE owners (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name TEXT,
			last_name TEXT,
			email TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_login_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func TestOwnerRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := &models.Owner{
		ID:           uuid.New(),
		Username:     "derebe",
		PasswordHash: "encoded",
		IsActive:     true,
	}
	_, err := repo.Create(ctx, owner)
	require.NoError(t, err)

	found, err := repo.FindByUsername(ctx, "derebe")
	require.NoError(t, err)
	require.Equal(t, owner.ID, found.ID)

	byID, err := repo.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "derebe", byID.Username)

	_, err = repo.FindByUsername(ctx, "ghost")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateLastLogin(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := &models.Owner{ID: uuid.New(), Username: "derebe", PasswordHash: "encoded", IsActive: true}
	_, err := repo.Create(ctx, owner)
	require.NoError(t, err)

	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, owner.ID, at))

	found, err := repo.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	require.True(t, found.LastLoginAt.Equal(at))
}

func TestSavePersistsProfileChanges(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := &models.Owner{ID: uuid.New(), Username: "derebe", PasswordHash: "encoded", IsActive: true}
	_, err := repo.Create(ctx, owner)
	require.NoError(t, err)

	first := "Derebe"
	owner.FirstName = &first
	owner.Username = "derebe2"
	require.NoError(t, repo.Save(ctx, owner))

	found, err := repo.FindByUsername(ctx, "derebe2")
	require.NoError(t, err)
	require.NotNil(t, found.FirstName)
	require.Equal(t, "Derebe", *found.FirstName)
}
