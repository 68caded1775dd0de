package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory OrderStore used by tests and the development
// server. Each instance owns its working set exclusively.
type Memory struct {
	mu        sync.RWMutex
	orders    map[int64]*Order
	shipments map[int64]*Shipment // keyed by shipment id
	tracks    map[int64]*Track
	configs   map[int64]*Config

	nextShipmentID int64
	nextTrackID    int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		orders:         make(map[int64]*Order),
		shipments:      make(map[int64]*Shipment),
		tracks:         make(map[int64]*Track),
		configs:        make(map[int64]*Config),
		nextShipmentID: 100,
		nextTrackID:    500,
	}
}

// SeedOrder adds an order to the store.
func (m *Memory) SeedOrder(o *Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

// SeedConfig sets the configuration for a store scope.
func (m *Memory) SeedConfig(storeID int64, cfg *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[storeID] = cfg
}

// Order loads one order.
func (m *Memory) Order(ctx context.Context, id int64) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
}

// CreateShipment creates (or returns) the shipment record for an order.
func (m *Memory) CreateShipment(ctx context.Context, orderID int64) (*Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}

	for _, s := range m.shipments {
		if s.OrderID == orderID {
			return s, nil
		}
	}

	qty := 0
	for _, item := range order.Items {
		qty += item.Qty
	}
	m.nextShipmentID++
	shipment := &Shipment{ID: m.nextShipmentID, OrderID: orderID, TotalQty: qty}
	m.shipments[shipment.ID] = shipment
	return shipment, nil
}

// Shipments returns the shipment records for the given orders, in order-id
// selection order.
func (m *Memory) Shipments(ctx context.Context, orderIDs []int64) ([]*Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Shipment
	for _, orderID := range orderIDs {
		for _, s := range m.shipments {
			if s.OrderID == orderID {
				result = append(result, s)
			}
		}
	}
	return result, nil
}

// CreateTrack attaches a new empty track record to a shipment.
func (m *Memory) CreateTrack(ctx context.Context, shipmentID int64) (*Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shipment, ok := m.shipments[shipmentID]
	if !ok {
		return nil, fmt.Errorf("shipment %d: %w", shipmentID, ErrNotFound)
	}

	m.nextTrackID++
	track := &Track{
		ID:          m.nextTrackID,
		ShipmentID:  shipmentID,
		OrderID:     shipment.OrderID,
		CarrierCode: TrackCarrierCode,
		Title:       TrackTitle,
		Qty:         shipment.TotalQty,
	}
	m.tracks[track.ID] = track
	return track, nil
}

// UpdateTrack stores remote identifiers on a track record.
func (m *Memory) UpdateTrack(ctx context.Context, trackID int64, consignmentID int64, trackingNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, ok := m.tracks[trackID]
	if !ok {
		return fmt.Errorf("track %d: %w", trackID, ErrNotFound)
	}
	if consignmentID != 0 {
		track.ConsignmentID = consignmentID
	}
	if trackingNumber != "" {
		track.TrackingNumber = trackingNumber
	}
	return nil
}

// SetOrderStatus updates the local order state.
func (m *Memory) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	order.Status = status
	return nil
}

// StoreConfig reads the store-scoped configuration.
func (m *Memory) StoreConfig(ctx context.Context, storeID int64) (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if cfg, ok := m.configs[storeID]; ok {
		return cfg, nil
	}
	return nil, fmt.Errorf("store %d config: %w", storeID, ErrNotFound)
}

// Track returns a track record by id, for test assertions.
func (m *Memory) Track(id int64) *Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tracks[id]
}

var _ OrderStore = (*Memory)(nil)
