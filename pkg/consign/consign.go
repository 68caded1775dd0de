// Package consign converts e-commerce shipment records into carrier-ready
// consignments for the Parcelway shipping platform.
package consign

import (
	"time"

	"github.com/shopspring/decimal"
)

// PackageType is a carrier-defined delivery category.
type PackageType int

const (
	PackageTypePackage      PackageType = 1
	PackageTypeMailbox      PackageType = 2
	PackageTypeLetter       PackageType = 3
	PackageTypeDigitalStamp PackageType = 4
)

// packageTypeNames maps the symbolic names used in merchant settings and
// request options to their numeric carrier codes.
var packageTypeNames = map[string]PackageType{
	"package":       PackageTypePackage,
	"mailbox":       PackageTypeMailbox,
	"letter":        PackageTypeLetter,
	"digital_stamp": PackageTypeDigitalStamp,
}

// String returns the symbolic name for a package type.
func (p PackageType) String() string {
	switch p {
	case PackageTypePackage:
		return "package"
	case PackageTypeMailbox:
		return "mailbox"
	case PackageTypeLetter:
		return "letter"
	case PackageTypeDigitalStamp:
		return "digital_stamp"
	default:
		return "unknown"
	}
}

// DeliveryType is the carrier delivery moment chosen at checkout.
type DeliveryType int

const (
	DeliveryMorning       DeliveryType = 1
	DeliveryStandard      DeliveryType = 2
	DeliveryEvening       DeliveryType = 3
	DeliveryPickup        DeliveryType = 4
	DeliveryPickupExpress DeliveryType = 5
)

var deliveryTypeNames = map[string]DeliveryType{
	"morning":        DeliveryMorning,
	"standard":       DeliveryStandard,
	"evening":        DeliveryEvening,
	"pickup":         DeliveryPickup,
	"pickup_express": DeliveryPickupExpress,
}

// IsPickup reports whether the delivery type routes to a pickup location.
func (d DeliveryType) IsPickup() bool {
	return d == DeliveryPickup || d == DeliveryPickupExpress
}

// LabelFormat is the paper format of rendered shipping labels.
type LabelFormat string

const (
	LabelA4 LabelFormat = "A4"
	LabelA6 LabelFormat = "A6"
)

// HomeCountry is the carrier's home country. Age-checked deliveries and
// split-street addresses only apply to consignments within it.
const HomeCountry = "NL"

// euCountries is the set of destinations that ship without a customs
// declaration from the home country.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "CY": {}, "CZ": {}, "DE": {}, "DK": {},
	"EE": {}, "ES": {}, "FI": {}, "FR": {}, "GR": {}, "HR": {}, "HU": {},
	"IE": {}, "IT": {}, "LT": {}, "LU": {}, "LV": {}, "MT": {}, "NL": {},
	"PL": {}, "PT": {}, "RO": {}, "SE": {}, "SI": {}, "SK": {},
}

// NeedsCustomsDeclaration reports whether shipping to the destination
// country requires a customs manifest.
func NeedsCustomsDeclaration(countryCode string) bool {
	_, eu := euCountries[countryCode]
	return !eu
}

// Recipient is the consignment's destination address block.
type Recipient struct {
	Country      string
	Company      string
	Person       string
	Street       string
	Number       string
	NumberSuffix string
	PostalCode   string
	City         string
	Phone        string
	Email        string
}

// PickupLocation is an alternate delivery point chosen at checkout.
type PickupLocation struct {
	Country         string
	PostalCode      string
	Street          string
	Number          string
	City            string
	LocationName    string
	LocationCode    string
	RetailNetworkID string
}

// PhysicalProperties carries the total shipment weight in grams. Only
// populated for weight-governed package types.
type PhysicalProperties struct {
	WeightGrams int
}

// CustomsItem is one declared line in a cross-border customs manifest.
type CustomsItem struct {
	Description    string
	Amount         int
	WeightGrams    int
	ItemValueCents int64
	Classification int
	Country        string
}

// Consignment is the carrier-facing shipment request record. It is built
// fresh per shipment and never mutated after leaving the builder, except to
// attach the remote consignment id and tracking number.
type Consignment struct {
	Carrier       string
	APIKey        string
	ReferenceID   string
	ConsignmentID int64 // remote id, zero until submitted (or on re-export)

	Recipient Recipient

	LabelDescription string
	DeliveryDate     *time.Time
	DeliveryType     DeliveryType
	PackageType      PackageType

	OnlyRecipient bool
	Signature     bool
	Return        bool
	LargeFormat   bool
	AgeCheck      bool

	InsuranceCents int64
	InvoiceRef     string

	// SaveRecipientAddress is always false: label creation never persists
	// new address book entries on the platform.
	SaveRecipientAddress bool

	Pickup   *PickupLocation
	Physical *PhysicalProperties
	Customs  []CustomsItem

	TrackingNumber string
}

// OrderItem is one shipped order line.
type OrderItem struct {
	Name            string
	Qty             int
	Weight          float64 // in the merchant's configured weight unit
	Price           decimal.Decimal
	ProductID       int64
	Classification  int     // harmonized classification code, 0 when absent
	CountryOfOrigin string  // manufacture country, empty when unset
	AgeRestricted   *bool   // per-product age restriction attribute
}

// Address is the raw shipping address as stored on the order.
type Address struct {
	StreetLines []string
	PostalCode  string
	City        string
	Country     string
	Company     string
	Name        string
	Phone       string
	Email       string
}

// FullStreet joins the stored street lines into one line.
func (a Address) FullStreet() string {
	s := ""
	for i, line := range a.StreetLines {
		if i > 0 {
			s += " "
		}
		s += line
	}
	return s
}

// WeightUnit is the merchant-configured unit of the order item weights.
type WeightUnit string

const (
	WeightGram     WeightUnit = "gram"
	WeightKilogram WeightUnit = "kilogram"
)

// ToGrams converts a weight in the configured unit to whole grams.
func (u WeightUnit) ToGrams(w float64) int {
	if u == WeightKilogram {
		return int(w*1000 + 0.5)
	}
	return int(w + 0.5)
}

// MerchantDefaults is the store-scoped configuration that seeds every
// consignment. It is constructed once per batch and treated as immutable.
type MerchantDefaults struct {
	Carrier                 string
	PackageType             PackageType
	AgeCheck                bool
	Signature               bool
	OnlyRecipient           bool
	Return                  bool
	LargeFormat             bool
	InsuranceCents          int64
	DigitalStampWeightGrams int
	WeightUnit              WeightUnit
	CountryOfOrigin         string
	LabelDescription        string // template, supports {order_nr} {delivery_date} {product_name}
}

// RequestOptions are the per-request overrides selected in the admin UI.
// Pointer fields distinguish "not set" from an explicit false/zero.
type RequestOptions struct {
	PackageType        string // symbolic name, numeric string, or "default"
	AgeCheck           *bool
	Signature          *bool
	OnlyRecipient      *bool
	Return             *bool
	LargeFormat        *bool
	InsuranceCents     *int64
	DigitalStampWeight *int // grams
	RequestType        string
	TrackEmail         bool
	LabelFormat        LabelFormat
}

// ConceptOnly reports whether the request asked for concept creation
// without label rendering.
func (o RequestOptions) ConceptOnly() bool {
	return o.RequestType == "concept"
}

// ShipmentContext is the read-once input to the consignment builder.
type ShipmentContext struct {
	OrderID         int64
	IncrementID     string // human-readable order number
	ShipmentID      int64
	TotalQty        int
	Address         Address
	Items           []OrderItem
	CheckoutPayload []byte // structured delivery-options document, may be absent or malformed
	Options         RequestOptions
	Defaults        MerchantDefaults
	APIKey          string
	ConsignmentID   int64 // existing remote consignment id, for re-export
}

// CreateResult is the remote platform's answer to a consignment submission.
type CreateResult struct {
	ConsignmentID  int64
	TrackingNumber string
}

// FulfilmentOrder is one order in a fulfilment-mode export.
type FulfilmentOrder struct {
	ExternalID string
	Recipient  Recipient
	Items      []OrderItem
}
