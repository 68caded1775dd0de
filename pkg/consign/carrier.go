package consign

import "context"

// Carrier is the remote shipping platform client. Implementations submit
// finished consignments and produce labels; all calls are synchronous.
type Carrier interface {
	// Name returns the platform identifier.
	Name() string

	// CreateConsignments submits consignments and returns the remote ids
	// and tracking numbers in submission order.
	CreateConsignments(ctx context.Context, consignments []*Consignment) ([]CreateResult, error)

	// GetConsignments refreshes the status of previously created
	// consignments, including tracking numbers assigned after label
	// rendering.
	GetConsignments(ctx context.Context, apiKey string, ids []int64) ([]CreateResult, error)

	// RequestFulfilment hands the orders to the platform's fulfilment
	// service; no labels are produced locally.
	RequestFulfilment(ctx context.Context, apiKey string, orders []FulfilmentOrder) error

	// FetchLabels renders the labels for the given consignments as one
	// binary document.
	FetchLabels(ctx context.Context, apiKey string, ids []int64, format LabelFormat) ([]byte, error)
}
