package consign

import (
	"encoding/json"
	"fmt"
	"time"
)

// OptionsSource tags how the delivery options for a shipment were obtained.
type OptionsSource int

const (
	// SourceCheckout means the structured checkout payload decoded cleanly.
	SourceCheckout OptionsSource = iota
	// SourceNormalized means the payload was absent or malformed and the
	// options were reconstructed from raw request options and merchant
	// defaults.
	SourceNormalized
)

// ShipmentOptionFlags are the optional feature flags carried by the
// checkout payload. Pointer fields distinguish "not chosen" from an
// explicit false.
type ShipmentOptionFlags struct {
	Signature     *bool `json:"signature,omitempty"`
	OnlyRecipient *bool `json:"only_recipient,omitempty"`
	Return        *bool `json:"return,omitempty"`
	LargeFormat   *bool `json:"large_format,omitempty"`
	AgeCheck      *bool `json:"age_check,omitempty"`
}

// DeliveryOptions is the reconciled delivery selection for one shipment.
// The strict and the normalized path must agree on carrier, delivery type,
// date and pickup details.
type DeliveryOptions struct {
	Carrier      string
	Date         *time.Time
	DeliveryType DeliveryType
	Pickup       *PickupLocation
	Flags        ShipmentOptionFlags
}

// DecodedOptions is the tagged result of delivery-options resolution.
type DecodedOptions struct {
	Source  OptionsSource
	Options DeliveryOptions
}

// checkoutPayload is the wire shape the storefront attaches to the order at
// checkout time.
type checkoutPayload struct {
	Carrier         string              `json:"carrier"`
	Date            string              `json:"date"`
	DeliveryType    string              `json:"deliveryType"`
	IsPickup        bool                `json:"isPickup"`
	PickupLocation  *pickupPayload      `json:"pickupLocation"`
	ShipmentOptions ShipmentOptionFlags `json:"shipmentOptions"`
}

type pickupPayload struct {
	Country         string `json:"cc"`
	PostalCode      string `json:"postal_code"`
	Street          string `json:"street"`
	Number          string `json:"number"`
	City            string `json:"city"`
	LocationName    string `json:"location_name"`
	LocationCode    string `json:"location_code"`
	RetailNetworkID string `json:"retail_network_id"`
}

// DecodeDeliveryOptions attempts a strict decode of the checkout payload
// and falls back to normalizing the raw request options into an equivalent
// options value when the payload is absent or malformed. The fallback never
// fails; the result is tagged with its source.
func DecodeDeliveryOptions(payload []byte, opts RequestOptions, defaults MerchantDefaults) DecodedOptions {
	if parsed, err := decodeCheckoutPayload(payload); err == nil {
		return DecodedOptions{Source: SourceCheckout, Options: *parsed}
	}
	return DecodedOptions{Source: SourceNormalized, Options: normalizeOptions(opts, defaults)}
}

func decodeCheckoutPayload(payload []byte) (*DeliveryOptions, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("no checkout payload")
	}

	var raw checkoutPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decoding checkout payload: %w", err)
	}
	if raw.Carrier == "" {
		return nil, fmt.Errorf("checkout payload has no carrier")
	}
	deliveryType, ok := deliveryTypeNames[raw.DeliveryType]
	if !ok {
		return nil, fmt.Errorf("checkout payload has unknown delivery type %q", raw.DeliveryType)
	}
	if raw.IsPickup && raw.PickupLocation == nil {
		return nil, fmt.Errorf("pickup delivery without pickup location")
	}

	out := &DeliveryOptions{
		Carrier:      raw.Carrier,
		DeliveryType: deliveryType,
		Flags:        raw.ShipmentOptions,
	}
	if raw.Date != "" {
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			return nil, fmt.Errorf("checkout payload has invalid date %q", raw.Date)
		}
		out.Date = &date
	}
	if raw.IsPickup {
		out.Pickup = &PickupLocation{
			Country:         raw.PickupLocation.Country,
			PostalCode:      raw.PickupLocation.PostalCode,
			Street:          raw.PickupLocation.Street,
			Number:          raw.PickupLocation.Number,
			City:            raw.PickupLocation.City,
			LocationName:    raw.PickupLocation.LocationName,
			LocationCode:    raw.PickupLocation.LocationCode,
			RetailNetworkID: raw.PickupLocation.RetailNetworkID,
		}
	}
	return out, nil
}

// normalizeOptions reconstructs an equivalent delivery selection from the
// per-request options and merchant defaults: standard home delivery with
// the merchant's carrier, no date preference, request flags carried over.
func normalizeOptions(opts RequestOptions, defaults MerchantDefaults) DeliveryOptions {
	return DeliveryOptions{
		Carrier:      defaults.Carrier,
		DeliveryType: DeliveryStandard,
		Flags: ShipmentOptionFlags{
			Signature:     opts.Signature,
			OnlyRecipient: opts.OnlyRecipient,
			Return:        opts.Return,
			LargeFormat:   opts.LargeFormat,
			AgeCheck:      opts.AgeCheck,
		},
	}
}

// boolProvider yields an optional boolean; nil means "no opinion".
type boolProvider func() *bool

// firstBool evaluates providers in order and returns the first present
// value. The layered option merge (request override > checkout flag >
// merchant default) is expressed as one such chain per flag.
func firstBool(providers ...boolProvider) bool {
	for _, p := range providers {
		if v := p(); v != nil {
			return *v
		}
	}
	return false
}

// set lifts a concrete boolean into a provider.
func set(v bool) boolProvider {
	return func() *bool { return &v }
}

// given lifts an optional boolean into a provider.
func given(v *bool) boolProvider {
	return func() *bool { return v }
}
