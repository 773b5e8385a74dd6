package pharmacy

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
		`DROP TABLE IF EXISTS pharmacies`,
		`CREATE TABLE pharmacies (
			id TEXT PRIMARY KEY,
			external_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			api_key_hash TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_updated_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func seedPharmacy(t *testing.T, conn *gorm.DB, externalID string, active bool) *models.Pharmacy {
	t.Helper()
	row := &models.Pharmacy{
		ID:         uuid.New(),
		ExternalID: externalID,
		Name:       "Pharmacy " + externalID,
		APIKeyHash: "$argon2id$stub",
		OwnerID:    uuid.New(),
		IsActive:   active,
	}
	require.NoError(t, conn.Create(row).Error)
	return row
}

func TestRepositoryFindByExternalID(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seeded := seedPharmacy(t, conn, "pharmacy_1", true)

	found, err := repo.FindByExternalID(ctx, "pharmacy_1")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, found.ID)
	require.Equal(t, "pharmacy_1", found.ExternalID)

	_, err = repo.FindByExternalID(ctx, "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryTouchLastUpdatedNeverMovesBackwards(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	row := seedPharmacy(t, conn, "pharmacy_1", true)

	later := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	require.NoError(t, repo.TouchLastUpdated(ctx, row.ID, later))

	found, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastUpdatedAt)
	require.True(t, found.LastUpdatedAt.Equal(later))

	// A replayed older snapshot must not rewind the watermark.
	require.NoError(t, repo.TouchLastUpdated(ctx, row.ID, earlier))

	found, err = repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	require.True(t, found.LastUpdatedAt.Equal(later))
}

func TestRepositorySetLastUpdatedOverwrites(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	row := seedPharmacy(t, conn, "pharmacy_1", true)

	at := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, repo.SetLastUpdated(ctx, row.ID, &at))

	found, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastUpdatedAt)

	require.NoError(t, repo.SetLastUpdated(ctx, row.ID, nil))
	found, err = repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	require.Nil(t, found.LastUpdatedAt)
}

func TestRepositoryFindFirstActiveSkipsInactive(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seedPharmacy(t, conn, "inactive_1", false)
	active := seedPharmacy(t, conn, "pharmacy_2", true)

	found, err := repo.FindFirstActive(ctx)
	require.NoError(t, err)
	require.Equal(t, active.ExternalID, found.ExternalID)

	rows, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
