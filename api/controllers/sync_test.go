package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	syncsvc "github.com/derebetadesse/pharmacloud-backend/internal/sync"
	"github.com/derebetadesse/pharmacloud-backend/pkg/config"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
)

type fakeSyncService struct {
	receipt   *syncsvc.Receipt
	err       error
	gotRaw    []byte
	gotHint   string
	gotPeriod string
	gotID     string
}

func (f *fakeSyncService) IngestPeriod(ctx context.Context, pharmacyID, periodToken string, raw []byte, transportHint string) (*syncsvc.Receipt, error) {
	f.gotID = pharmacyID
	f.gotPeriod = periodToken
	f.gotRaw = raw
	f.gotHint = transportHint
	return f.receipt, f.err
}

func syncRequest(body []byte, encoding string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/sync/period/pharmacy_1/daily", bytes.NewReader(body))
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}
	return withChiParams(req, map[string]string{"pharmacyId": "pharmacy_1", "period": "daily"})
}

func TestSyncPeriodPassesBodyAndHint(t *testing.T) {
	svc := &fakeSyncService{receipt: &syncsvc.Receipt{PharmacyID: "pharmacy_1", Period: "daily"}}
	handler := SyncPeriod(svc, config.SyncConfig{}, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, syncRequest([]byte(`{"analytics":{}}`), "gzip"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotID != "pharmacy_1" || svc.gotPeriod != "daily" {
		t.Fatalf("path params lost: id=%q period=%q", svc.gotID, svc.gotPeriod)
	}
	if string(svc.gotRaw) != `{"analytics":{}}` {
		t.Fatalf("body must pass through untouched, got %q", svc.gotRaw)
	}
	if svc.gotHint != "gzip" {
		t.Fatalf("transport hint lost, got %q", svc.gotHint)
	}

	data := decodeSuccess(t, rec)
	if data["pharmacyId"] != "pharmacy_1" || data["period"] != "daily" {
		t.Fatalf("unexpected ack %+v", data)
	}
}

func TestSyncPeriodBodyCap(t *testing.T) {
	svc := &fakeSyncService{}
	handler := SyncPeriod(svc, config.SyncConfig{MaxBodyBytes: 32}, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, syncRequest([]byte(strings.Repeat("a", 64)), ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	envelope := decodeError(t, rec)
	if envelope.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if svc.gotRaw != nil {
		t.Fatal("service must not see an oversized body")
	}
}

func TestSyncPeriodDecodeFailureMapsTo400(t *testing.T) {
	svc := &fakeSyncService{err: pkgerrors.New(pkgerrors.CodeDecode, "invalid JSON payload")}
	handler := SyncPeriod(svc, config.SyncConfig{}, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, syncRequest([]byte("not json"), ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	envelope := decodeError(t, rec)
	if envelope.Error.Code != "DECODE_ERROR" {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
}

func TestSyncPeriodUnknownPharmacyMapsTo404(t *testing.T) {
	svc := &fakeSyncService{err: pkgerrors.New(pkgerrors.CodeNotFound, "pharmacy not found")}
	handler := SyncPeriod(svc, config.SyncConfig{}, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, syncRequest([]byte(`{}`), ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
