package sync

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/derebetadesse/pharmacloud-backend/internal/analytics"
	"github.com/derebetadesse/pharmacloud-backend/internal/pharmacy"
	"github.com/derebetadesse/pharmacloud-backend/internal/sales"
	"github.com/derebetadesse/pharmacloud-backend/pkg/config"
	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
	"github.com/derebetadesse/pharmacloud-backend/pkg/enums"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
	"github.com/derebetadesse/pharmacloud-backend/pkg/types"
)

type fakeAnalyticsRepo struct {
	rows map[string]*models.AnalyticsPeriodSnapshot
}

func analyticsKey(pharmacyID uuid.UUID, period enums.Period) string {
	return pharmacyID.String() + "/" + period.String()
}

func (f *fakeAnalyticsRepo) WithTx(tx *gorm.DB) analytics.Repository { return f }

func (f *fakeAnalyticsRepo) UpsertPeriod(ctx context.Context, snap *models.AnalyticsPeriodSnapshot) error {
	f.rows[analyticsKey(snap.PharmacyID, snap.Period)] = snap
	return nil
}

func (f *fakeAnalyticsRepo) GetPeriod(ctx context.Context, pharmacyID uuid.UUID, period enums.Period) (*models.AnalyticsPeriodSnapshot, error) {
	if row, ok := f.rows[analyticsKey(pharmacyID, period)]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAnalyticsRepo) GetLatestPeriod(ctx context.Context, pharmacyID uuid.UUID) (*models.AnalyticsPeriodSnapshot, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAnalyticsRepo) UpsertLegacy(ctx context.Context, snap *models.AnalyticsSnapshot) error {
	return nil
}

func (f *fakeAnalyticsRepo) GetLegacy(ctx context.Context, pharmacyID uuid.UUID) (*models.AnalyticsSnapshot, error) {
	return nil, gorm.ErrRecordNotFound
}

type fakeSalesRepo struct {
	rows map[string]*models.SalesPeriodSnapshot
}

func (f *fakeSalesRepo) WithTx(tx *gorm.DB) sales.Repository { return f }

func (f *fakeSalesRepo) Upsert(ctx context.Context, snap *models.SalesPeriodSnapshot) error {
	f.rows[analyticsKey(snap.PharmacyID, snap.Period)] = snap
	return nil
}

func (f *fakeSalesRepo) GetPeriod(ctx context.Context, pharmacyID uuid.UUID, period enums.Period) (*models.SalesPeriodSnapshot, error) {
	if row, ok := f.rows[analyticsKey(pharmacyID, period)]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSalesRepo) GetLatestPeriod(ctx context.Context, pharmacyID uuid.UUID) (*models.SalesPeriodSnapshot, error) {
	return nil, gorm.ErrRecordNotFound
}

type fakeDirectory struct {
	byExternal map[string]*models.Pharmacy
}

func (f *fakeDirectory) FindCredential(ctx context.Context, pharmacyID string) (string, error) {
	return "", pkgerrors.New(pkgerrors.CodeNotFound, "pharmacy not found")
}

func (f *fakeDirectory) Resolve(ctx context.Context, pharmacyID string) (*models.Pharmacy, error) {
	if row, ok := f.byExternal[pharmacyID]; ok {
		return row, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pharmacy not found")
}

func (f *fakeDirectory) ResolveDefault(ctx context.Context) (*models.Pharmacy, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pharmacies registered")
}

func (f *fakeDirectory) LastUpdated(ctx context.Context) (*pharmacy.LastUpdatedDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pharmacies registered")
}

type fakeWatermarkRepo struct {
	touched map[uuid.UUID]time.Time
}

func (f *fakeWatermarkRepo) WithTx(tx *gorm.DB) pharmacy.Repository { return f }

func (f *fakeWatermarkRepo) Create(ctx context.Context, row *models.Pharmacy) (*models.Pharmacy, error) {
	return row, nil
}

func (f *fakeWatermarkRepo) FindByExternalID(ctx context.Context, externalID string) (*models.Pharmacy, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWatermarkRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Pharmacy, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWatermarkRepo) FindFirstActive(ctx context.Context) (*models.Pharmacy, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWatermarkRepo) ListActive(ctx context.Context) ([]models.Pharmacy, error) {
	return nil, nil
}

func (f *fakeWatermarkRepo) TouchLastUpdated(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.touched[id] = at
	return nil
}

func (f *fakeWatermarkRepo) SetLastUpdated(ctx context.Context, id uuid.UUID, at *time.Time) error {
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type syncFixture struct {
	svc       *service
	analytics *fakeAnalyticsRepo
	sales     *fakeSalesRepo
	watermark *fakeWatermarkRepo
	target    *models.Pharmacy
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	target := &models.Pharmacy{ID: uuid.New(), ExternalID: "pharmacy_1", Name: "Main", IsActive: true}
	analyticsRepo := &fakeAnalyticsRepo{rows: map[string]*models.AnalyticsPeriodSnapshot{}}
	salesRepo := &fakeSalesRepo{rows: map[string]*models.SalesPeriodSnapshot{}}
	watermark := &fakeWatermarkRepo{touched: map[uuid.UUID]time.Time{}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(
		NewDecoder(config.SyncConfig{}),
		analyticsRepo,
		salesRepo,
		&fakeDirectory{byExternal: map[string]*models.Pharmacy{"pharmacy_1": target}},
		watermark,
		passthroughTx{},
		nil,
		logg,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &syncFixture{
		svc:       svc.(*service),
		analytics: analyticsRepo,
		sales:     salesRepo,
		watermark: watermark,
		target:    target,
	}
}

func TestIngestPeriodStoresBothDocuments(t *testing.T) {
	fx := newSyncFixture(t)
	raw := []byte(`{"analytics":{"revenue":10},"sales":{"units":3},"hash":"client-hash","uploadedAt":"2026-03-01T12:00:00Z"}`)

	receipt, err := fx.svc.IngestPeriod(context.Background(), "pharmacy_1", "daily", raw, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.PharmacyID != "pharmacy_1" || receipt.Period != "daily" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	key := analyticsKey(fx.target.ID, enums.PeriodDaily)
	analyticsRow, ok := fx.analytics.rows[key]
	if !ok {
		t.Fatal("analytics snapshot not stored")
	}
	salesRow, ok := fx.sales.rows[key]
	if !ok {
		t.Fatal("sales snapshot not stored")
	}
	if analyticsRow.Hash != "client-hash" || salesRow.Hash != "client-hash" {
		t.Fatal("client hash must flow to both rows")
	}

	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !analyticsRow.UploadedAt.Equal(want) {
		t.Fatalf("uploadedAt mismatch: %v", analyticsRow.UploadedAt)
	}
	if touchedAt, ok := fx.watermark.touched[fx.target.ID]; !ok || !touchedAt.Equal(want) {
		t.Fatalf("watermark touch expected at %v, got %v", want, touchedAt)
	}
}

func TestIngestPeriodReplayOverwrites(t *testing.T) {
	fx := newSyncFixture(t)

	first := []byte(`{"analytics":{"revenue":10},"uploadedAt":"2026-03-01T12:00:00Z"}`)
	if _, err := fx.svc.IngestPeriod(context.Background(), "pharmacy_1", "weekly", first, ""); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	replay := []byte(`{"analytics":{"revenue":99},"uploadedAt":"2026-03-02T12:00:00Z"}`)
	if _, err := fx.svc.IngestPeriod(context.Background(), "pharmacy_1", "weekly", replay, ""); err != nil {
		t.Fatalf("replay ingest: %v", err)
	}

	if len(fx.analytics.rows) != 1 {
		t.Fatalf("replay must overwrite, have %d rows", len(fx.analytics.rows))
	}
	row := fx.analytics.rows[analyticsKey(fx.target.ID, enums.PeriodWeekly)]
	if string(row.Data) != `{"revenue":99}` {
		t.Fatalf("replay data lost: %s", row.Data)
	}
}

func TestIngestPeriodGzippedPayload(t *testing.T) {
	fx := newSyncFixture(t)
	raw := gzipBytes(t, []byte(`{"sales":{"units":7}}`))

	if _, err := fx.svc.IngestPeriod(context.Background(), "pharmacy_1", "monthly", raw, "gzip"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row, ok := fx.sales.rows[analyticsKey(fx.target.ID, enums.PeriodMonthly)]
	if !ok {
		t.Fatal("sales snapshot not stored")
	}
	if string(row.Data) != `{"units":7}` {
		t.Fatalf("inflated data mismatch: %s", row.Data)
	}
	if len(fx.analytics.rows) != 0 {
		t.Fatal("absent analytics document must not write a row")
	}
}

func TestIngestPeriodHashFallback(t *testing.T) {
	fx := newSyncFixture(t)
	body := `{"analytics":{"revenue":10}}`

	if _, err := fx.svc.IngestPeriod(context.Background(), "pharmacy_1", "daily", []byte(body), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := fx.analytics.rows[analyticsKey(fx.target.ID, enums.PeriodDaily)]
	if row.Hash != analytics.HashDocument(types.Document(body)) {
		t.Fatalf("fallback hash must cover the whole envelope, got %q", row.Hash)
	}
}

func TestIngestPeriodInvalidPeriod(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.svc.IngestPeriod(context.Background(), "pharmacy_1", "hourly", []byte(`{"analytics":{}}`), "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if len(fx.analytics.rows) != 0 || len(fx.watermark.touched) != 0 {
		t.Fatal("nothing may be written on validation failure")
	}
}

func TestIngestPeriodUnknownPharmacy(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.svc.IngestPeriod(context.Background(), "pharmacy_9", "daily", []byte(`{"analytics":{}}`), "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestIngestPeriodCorruptPayload(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.svc.IngestPeriod(context.Background(), "pharmacy_1", "daily", []byte{0x1F, 0x8B, 0x00}, "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDecode {
		t.Fatalf("expected DECODE_ERROR, got %v", err)
	}
	if len(fx.analytics.rows) != 0 || len(fx.watermark.touched) != 0 {
		t.Fatal("nothing may be written on decode failure")
	}
}

func TestIngestPeriodBadTimestamp(t *testing.T) {
	fx := newSyncFixture(t)

	_, err := fx.svc.IngestPeriod(context.Background(), "pharmacy_1", "daily", []byte(`{"analytics":{},"uploadedAt":"yesterday"}`), "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestIngestPeriodEmptyEnvelopeSkipsWrites(t *testing.T) {
	fx := newSyncFixture(t)

	receipt, err := fx.svc.IngestPeriod(context.Background(), "pharmacy_1", "yearly", []byte(`{"hash":"h"}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Period != "yearly" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if len(fx.analytics.rows) != 0 || len(fx.sales.rows) != 0 {
		t.Fatal("no documents means no snapshot rows")
	}
	if len(fx.watermark.touched) != 0 {
		t.Fatal("watermark must not move without a stored snapshot")
	}
}
