package parcelway

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vendelo/parcelbridge/pkg/consign"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCreateShipments        func(ctx context.Context, apiKey string, shipments []Shipment) ([]ShipmentID, error)
	OnGetShipments           func(ctx context.Context, apiKey string, ids []int64) ([]ShipmentState, error)
	OnCreateFulfilmentOrders func(ctx context.Context, apiKey string, orders []FulfilmentOrder) error
	OnGetLabels              func(ctx context.Context, apiKey string, ids []int64, format string) ([]byte, error)

	nextID int64
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{nextID: 7000}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return consign.NewRemoteAPIError("MOCK_ERROR", "Simulated API error")
	}
	return nil
}

// CreateShipments creates mock shipments with sequential ids.
func (m *MockAPIClient) CreateShipments(ctx context.Context, apiKey string, shipments []Shipment) ([]ShipmentID, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipments != nil {
		return m.OnCreateShipments(ctx, apiKey, shipments)
	}

	ids := make([]ShipmentID, len(shipments))
	for i, s := range shipments {
		ids[i] = ShipmentID{
			ID:                  atomic.AddInt64(&m.nextID, 1),
			ReferenceIdentifier: s.ReferenceIdentifier,
		}
	}
	return ids, nil
}

// GetShipments returns mock shipment state with generated barcodes.
func (m *MockAPIClient) GetShipments(ctx context.Context, apiKey string, ids []int64) ([]ShipmentState, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetShipments != nil {
		return m.OnGetShipments(ctx, apiKey, ids)
	}

	states := make([]ShipmentState, len(ids))
	for i, id := range ids {
		states[i] = ShipmentState{
			ID:      id,
			Status:  2, // registered
			Barcode: "3SPARC" + uuid.New().String()[:9],
		}
	}
	return states, nil
}

// CreateFulfilmentOrders accepts mock fulfilment orders.
func (m *MockAPIClient) CreateFulfilmentOrders(ctx context.Context, apiKey string, orders []FulfilmentOrder) error {
	if err := m.simulate(); err != nil {
		return err
	}
	if m.OnCreateFulfilmentOrders != nil {
		return m.OnCreateFulfilmentOrders(ctx, apiKey, orders)
	}
	return nil
}

// GetLabels returns a mock PDF document.
func (m *MockAPIClient) GetLabels(ctx context.Context, apiKey string, ids []int64, format string) ([]byte, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetLabels != nil {
		return m.OnGetLabels(ctx, apiKey, ids, format)
	}
	return []byte("%PDF-1.4 mock-labels"), nil
}

var _ APIClient = (*MockAPIClient)(nil)
