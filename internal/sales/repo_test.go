package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
	"github.com/derebetadesse/pharmacloud-backend/pkg/enums"
	"github.com/derebetadesse/pharmacloud-backend/pkg/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`DROP TABLE IF EXISTS sales_period_snapshots`,
		`CREATE TABLE sales_period_snapshots (
			id TEXT PRIMARY KEY,
			pharmacy_id TEXT NOT NULL,
			period TEXT NOT NULL,
			data TEXT NOT NULL,
			hash TEXT NOT NULL,
			uploaded_at DATETIME NOT NULL,
			created_at DATETIME,
			updated_at DATETIME,
			CONSTRAINT sales_period_snapshots_pharmacy_period_key UNIQUE (pharmacy_id, period)
		)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func TestUpsertOverwritesInPlace(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	pharmacyID := uuid.New()
	first := &models.SalesPeriodSnapshot{
		ID:         uuid.New(),
		PharmacyID: pharmacyID,
		Period:     enums.PeriodMonthly,
		Data:       types.Document(`{"units":40}`),
		Hash:       "hash-1",
		UploadedAt: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(ctx, first))

	replay := &models.SalesPeriodSnapshot{
		ID:         uuid.New(),
		PharmacyID: pharmacyID,
		Period:     enums.PeriodMonthly,
		Data:       types.Document(`{"units":55}`),
		Hash:       "hash-2",
		UploadedAt: time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(ctx, replay))

	row, err := repo.GetPeriod(ctx, pharmacyID, enums.PeriodMonthly)
	require.NoError(t, err)
	require.Equal(t, first.ID, row.ID)
	require.Equal(t, "hash-2", row.Hash)
	require.JSONEq(t, `{"units":55}`, string(row.Data))

	var count int64
	require.NoError(t, conn.Model(&models.SalesPeriodSnapshot{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUpsertKeepsPharmaciesSeparate(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	for _, pharmacyID := range []uuid.UUID{a, b} {
		require.NoError(t, repo.Upsert(ctx, &models.SalesPeriodSnapshot{
			ID:         uuid.New(),
			PharmacyID: pharmacyID,
			Period:     enums.PeriodDaily,
			Data:       types.Document(`{}`),
			Hash:       "h-" + pharmacyID.String(),
			UploadedAt: time.Now().UTC(),
		}))
	}

	var count int64
	require.NoError(t, conn.Model(&models.SalesPeriodSnapshot{}).Count(&count).Error)
	require.EqualValues(t, 2, count)

	row, err := repo.GetPeriod(ctx, a, enums.PeriodDaily)
	require.NoError(t, err)
	require.Equal(t, "h-"+a.String(), row.Hash)
}

func TestGetLatestPeriodPicksNewestUpload(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	pharmacyID := uuid.New()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	uploads := map[enums.Period]time.Time{
		enums.PeriodDaily:  base,
		enums.PeriodYearly: base.Add(72 * time.Hour),
		enums.PeriodWeekly: base.Add(24 * time.Hour),
	}
	for period, at := range uploads {
		require.NoError(t, repo.Upsert(ctx, &models.SalesPeriodSnapshot{
			ID:         uuid.New(),
			PharmacyID: pharmacyID,
			Period:     period,
			Data:       types.Document(`{}`),
			Hash:       "h",
			UploadedAt: at,
		}))
	}

	row, err := repo.GetLatestPeriod(ctx, pharmacyID)
	require.NoError(t, err)
	require.Equal(t, enums.PeriodYearly, row.Period)

	_, err = repo.GetLatestPeriod(ctx, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
