package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendelo/parcelbridge/internal/batch"
	"github.com/vendelo/parcelbridge/internal/store"
	"github.com/vendelo/parcelbridge/internal/telemetry"
	"github.com/vendelo/parcelbridge/pkg/consign"
	"github.com/vendelo/parcelbridge/pkg/consign/parcelway"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := otelzap.New(zap.NewNop())
	carrier := parcelway.NewWithAPIClient(parcelway.Config{}, parcelway.NewMockAPIClient(), logger, nil)

	orderStore := store.NewMemory()
	orderStore.SeedConfig(1, &store.Config{
		APIKey:     "test-key",
		ExportMode: batch.ModeShipments,
		Defaults: consign.MerchantDefaults{
			Carrier:         "postnl",
			PackageType:     consign.PackageTypePackage,
			WeightUnit:      consign.WeightGram,
			CountryOfOrigin: "NL",
		},
	})
	orderStore.SeedOrder(&store.Order{
		ID:          1,
		StoreID:     1,
		IncrementID: "100000001",
		Status:      store.StatusProcessing,
		Address: consign.Address{
			Name:        "Piet Hein",
			StreetLines: []string{"Teststraat 123A"},
			PostalCode:  "1234 AB",
			City:        "Amsterdam",
			Country:     "NL",
		},
		Items: []consign.OrderItem{
			{Name: "Ceramic mug", Qty: 2, Weight: 250, Price: decimal.NewFromFloat(12.95)},
		},
	})

	orchestrator := batch.New(
		orderStore,
		carrier,
		consign.DefaultRegistry(),
		nil,
		logger,
		telemetry.NewMetricsWith(prometheus.NewRegistry()),
		nil,
	)
	return New(Config{Port: 0}, orchestrator, logger)
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Export_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	s.handleExport(rec, httptest.NewRequest(http.MethodGet, "/export", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Export_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader("{not json"))
	s.handleExport(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Export_Success(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/export",
		strings.NewReader(`{"storeId": 1, "orderIds": [1]}`))
	s.handleExport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp exportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "labels_downloaded", resp.Stage)
	assert.NotEmpty(t, resp.BatchID)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "100000001", resp.Orders[0].IncrementID)
	assert.NotZero(t, resp.Orders[0].ConsignmentID)
	assert.Equal(t, "/export/labels/"+resp.BatchID, resp.LabelURL)

	// The rendered label is downloadable afterwards.
	labelRec := httptest.NewRecorder()
	s.handleLabels(labelRec, httptest.NewRequest(http.MethodGet, resp.LabelURL, nil))
	assert.Equal(t, http.StatusOK, labelRec.Code)
	assert.Equal(t, "application/pdf", labelRec.Header().Get("Content-Type"))
	assert.Contains(t, labelRec.Body.String(), "%PDF")
}

func TestServer_Export_MissingAPIKey(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	// Store 2 has no configuration.
	req := httptest.NewRequest(http.MethodPost, "/export",
		strings.NewReader(`{"storeId": 2, "orderIds": [1]}`))
	s.handleExport(rec, req)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	var resp exportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
	assert.NotEmpty(t, resp.Warnings)
}

func TestServer_Export_NothingSelected(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/export",
		strings.NewReader(`{"storeId": 1, "orderIds": []}`))
	s.handleExport(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServer_Labels_Unknown(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	s.handleLabels(rec, httptest.NewRequest(http.MethodGet, "/export/labels/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
