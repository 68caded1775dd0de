// Package store is the local order/shipment persistence collaborator. The
// pipeline only depends on the OrderStore interface; the host commerce
// system provides the real implementation.
package store

import (
	"context"
	"errors"

	"github.com/vendelo/parcelbridge/pkg/consign"
)

// Track carrier code and title shown on local shipment records.
const (
	TrackCarrierCode = "parcelway"
	TrackTitle       = "Parcelway"
)

// Order statuses used by the pipeline.
const (
	StatusNew        = "new"
	StatusProcessing = "processing"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Order is a local order with everything the consignment builder reads.
type Order struct {
	ID              int64
	StoreID         int64
	IncrementID     string
	Status          string
	Address         consign.Address
	Items           []consign.OrderItem
	CheckoutPayload []byte
}

// Shipment is a local shipment record belonging to an order.
type Shipment struct {
	ID       int64
	OrderID  int64
	TotalQty int
}

// Track is the track-and-trace record attached to a shipment. After
// submission it carries the remote consignment id and tracking number.
type Track struct {
	ID             int64
	ShipmentID     int64
	OrderID        int64
	CarrierCode    string
	Title          string
	Qty            int
	ConsignmentID  int64
	TrackingNumber string
}

// Config is the store-scoped configuration: the API credential and the
// merchant defaults that seed every consignment.
type Config struct {
	APIKey     string
	ExportMode string // "shipments" or "pps"
	Defaults   consign.MerchantDefaults
}

// OrderStore is the local persistence collaborator.
type OrderStore interface {
	// Order loads one order with address and line items.
	Order(ctx context.Context, id int64) (*Order, error)

	// CreateShipment creates a shipment record for an order that has none
	// and returns it; for an already-shipped order it returns the existing
	// record.
	CreateShipment(ctx context.Context, orderID int64) (*Shipment, error)

	// Shipments returns the shipment records for the given orders.
	Shipments(ctx context.Context, orderIDs []int64) ([]*Shipment, error)

	// CreateTrack attaches a new empty track record to a shipment.
	CreateTrack(ctx context.Context, shipmentID int64) (*Track, error)

	// UpdateTrack stores the remote consignment id and tracking number on
	// a track record.
	UpdateTrack(ctx context.Context, trackID int64, consignmentID int64, trackingNumber string) error

	// SetOrderStatus updates the local order state.
	SetOrderStatus(ctx context.Context, orderID int64, status string) error

	// StoreConfig reads the store-scoped configuration.
	StoreConfig(ctx context.Context, storeID int64) (*Config, error)
}
