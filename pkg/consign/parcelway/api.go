package parcelway

import (
	"context"
)

// APIClient defines the Parcelway API operations the client depends on.
// This abstraction allows for mock implementations during testing and the
// real HTTP implementation in production.
type APIClient interface {
	// CreateShipments submits shipment concepts and returns their remote ids.
	CreateShipments(ctx context.Context, apiKey string, shipments []Shipment) ([]ShipmentID, error)

	// GetShipments fetches the current state of shipments, including
	// barcodes assigned after label generation.
	GetShipments(ctx context.Context, apiKey string, ids []int64) ([]ShipmentState, error)

	// CreateFulfilmentOrders hands orders to the platform fulfilment service.
	CreateFulfilmentOrders(ctx context.Context, apiKey string, orders []FulfilmentOrder) error

	// GetLabels renders the labels for the given shipments as one PDF.
	GetLabels(ctx context.Context, apiKey string, ids []int64, format string) ([]byte, error)
}

// ============================================================================
// API Request/Response Types (match the Parcelway REST API structure)
// ============================================================================

// Shipment is one entry in a POST /shipments request.
type Shipment struct {
	ReferenceIdentifier string              `json:"reference_identifier,omitempty"`
	Carrier             int                 `json:"carrier" validate:"required"`
	Recipient           *Address            `json:"recipient" validate:"required"`
	Options             ShipmentOptions     `json:"options"`
	Pickup              *PickupLocation     `json:"pickup,omitempty"`
	PhysicalProperties  *PhysicalProperties `json:"physical_properties,omitempty"`
	CustomsDeclaration  *CustomsDeclaration `json:"customs_declaration,omitempty"`
}

// Address is the recipient block of a shipment.
type Address struct {
	CC           string `json:"cc" validate:"required,len=2"`
	Company      string `json:"company,omitempty"`
	Person       string `json:"person" validate:"required"`
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number,omitempty"`
	NumberSuffix string `json:"number_suffix,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	City         string `json:"city" validate:"required"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

// ShipmentOptions are the carrier options of a shipment.
type ShipmentOptions struct {
	PackageType      int        `json:"package_type" validate:"required"`
	DeliveryType     int        `json:"delivery_type,omitempty"`
	DeliveryDate     string     `json:"delivery_date,omitempty"`
	Signature        int        `json:"signature"`
	OnlyRecipient    int        `json:"only_recipient"`
	Return           int        `json:"return"`
	LargeFormat      int        `json:"large_format"`
	AgeCheck         int        `json:"age_check"`
	Insurance        *Insurance `json:"insurance,omitempty"`
	LabelDescription string     `json:"label_description,omitempty"`
}

// Insurance is an insured amount in minor currency units.
type Insurance struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PickupLocation is the pickup block of a pickup shipment.
type PickupLocation struct {
	CC              string `json:"cc" validate:"required,len=2"`
	PostalCode      string `json:"postal_code" validate:"required"`
	Street          string `json:"street" validate:"required"`
	Number          string `json:"number" validate:"required"`
	City            string `json:"city" validate:"required"`
	LocationName    string `json:"location_name" validate:"required"`
	LocationCode    string `json:"location_code,omitempty"`
	RetailNetworkID string `json:"retail_network_id,omitempty"`
}

// PhysicalProperties carries the shipment weight in grams.
type PhysicalProperties struct {
	Weight int `json:"weight" validate:"required,gt=0"`
}

// CustomsDeclaration is the customs manifest of a cross-border shipment.
type CustomsDeclaration struct {
	Contents int           `json:"contents"` // 1 = commercial goods
	Invoice  string        `json:"invoice,omitempty"`
	Items    []CustomsItem `json:"items" validate:"required,dive"`
}

// CustomsItem is one declared manifest line.
type CustomsItem struct {
	Description    string    `json:"description" validate:"required"`
	Amount         int       `json:"amount" validate:"required,gt=0"`
	Weight         int       `json:"weight"`
	ItemValue      ItemValue `json:"item_value"`
	Classification int       `json:"classification"`
	Country        string    `json:"country" validate:"required,len=2"`
}

// ItemValue is a customs item value in minor currency units.
type ItemValue struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// FulfilmentOrder is one entry in a POST /fulfilment/orders request.
type FulfilmentOrder struct {
	ExternalIdentifier string                `json:"external_identifier" validate:"required"`
	Recipient          *Address              `json:"recipient" validate:"required"`
	OrderLines         []FulfilmentOrderLine `json:"order_lines" validate:"required,dive"`
}

// FulfilmentOrderLine is one order line of a fulfilment order.
type FulfilmentOrderLine struct {
	Description string `json:"description" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	PriceCents  int64  `json:"price"`
}

// ShipmentID identifies a created shipment.
type ShipmentID struct {
	ID                  int64  `json:"id"`
	ReferenceIdentifier string `json:"reference_identifier"`
}

// ShipmentState is the platform's view of an existing shipment.
type ShipmentState struct {
	ID      int64  `json:"id"`
	Status  int    `json:"status"`
	Barcode string `json:"barcode"`
}

// createShipmentsRequest is the envelope of POST /shipments.
type createShipmentsRequest struct {
	Data struct {
		Shipments []Shipment `json:"shipments"`
	} `json:"data"`
}

// createShipmentsResponse is the envelope of the POST /shipments response.
type createShipmentsResponse struct {
	Data struct {
		IDs []ShipmentID `json:"ids"`
	} `json:"data"`
}

// getShipmentsResponse is the envelope of GET /shipments/{ids}.
type getShipmentsResponse struct {
	Data struct {
		Shipments []ShipmentState `json:"shipments"`
	} `json:"data"`
}

// createFulfilmentRequest is the envelope of POST /fulfilment/orders.
type createFulfilmentRequest struct {
	Data struct {
		Orders []FulfilmentOrder `json:"orders"`
	} `json:"data"`
}

// apiErrorResponse is the platform's error envelope.
type apiErrorResponse struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Message string `json:"message,omitempty"`
}
