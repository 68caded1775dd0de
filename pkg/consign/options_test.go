package consign_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendelo/parcelbridge/pkg/consign"
)

func boolPtr(b bool) *bool { return &b }

func TestDecodeDeliveryOptions_CheckoutPayload(t *testing.T) {
	payload := []byte(`{
		"carrier": "postnl",
		"date": "2026-09-01",
		"deliveryType": "evening",
		"isPickup": false,
		"shipmentOptions": {"signature": true, "only_recipient": false}
	}`)

	got := consign.DecodeDeliveryOptions(payload, consign.RequestOptions{}, consign.MerchantDefaults{})

	assert.Equal(t, consign.SourceCheckout, got.Source)
	assert.Equal(t, "postnl", got.Options.Carrier)
	assert.Equal(t, consign.DeliveryEvening, got.Options.DeliveryType)
	require.NotNil(t, got.Options.Date)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), *got.Options.Date)
	require.NotNil(t, got.Options.Flags.Signature)
	assert.True(t, *got.Options.Flags.Signature)
	require.NotNil(t, got.Options.Flags.OnlyRecipient)
	assert.False(t, *got.Options.Flags.OnlyRecipient)
	assert.Nil(t, got.Options.Flags.Return)
}

func TestDecodeDeliveryOptions_PickupPayload(t *testing.T) {
	payload := []byte(`{
		"carrier": "postnl",
		"deliveryType": "pickup",
		"isPickup": true,
		"pickupLocation": {
			"cc": "NL",
			"postal_code": "2132JE",
			"street": "Burgemeester van Stamplein",
			"number": "270",
			"city": "Hoofddorp",
			"location_name": "Albert Heijn",
			"location_code": "163",
			"retail_network_id": "PNPNL-01"
		}
	}`)

	got := consign.DecodeDeliveryOptions(payload, consign.RequestOptions{}, consign.MerchantDefaults{})

	assert.Equal(t, consign.SourceCheckout, got.Source)
	assert.Equal(t, consign.DeliveryPickup, got.Options.DeliveryType)
	require.NotNil(t, got.Options.Pickup)
	assert.Equal(t, "Albert Heijn", got.Options.Pickup.LocationName)
	assert.Equal(t, "PNPNL-01", got.Options.Pickup.RetailNetworkID)
}

func TestDecodeDeliveryOptions_AbsentPayloadFallsBack(t *testing.T) {
	opts := consign.RequestOptions{Signature: boolPtr(true)}
	defaults := consign.MerchantDefaults{Carrier: "dhlparcel"}

	got := consign.DecodeDeliveryOptions(nil, opts, defaults)

	assert.Equal(t, consign.SourceNormalized, got.Source)
	assert.Equal(t, "dhlparcel", got.Options.Carrier)
	assert.Equal(t, consign.DeliveryStandard, got.Options.DeliveryType)
	assert.Nil(t, got.Options.Date)
	require.NotNil(t, got.Options.Flags.Signature)
	assert.True(t, *got.Options.Flags.Signature)
}

func TestDecodeDeliveryOptions_MalformedPayloadFallsBack(t *testing.T) {
	defaults := consign.MerchantDefaults{Carrier: "postnl"}

	for _, payload := range [][]byte{
		[]byte(`{not json`),
		[]byte(`{"deliveryType": "standard"}`),                         // no carrier
		[]byte(`{"carrier": "postnl", "deliveryType": "teleport"}`),    // unknown delivery type
		[]byte(`{"carrier": "postnl", "deliveryType": "pickup", "isPickup": true}`), // pickup without location
		[]byte(`{"carrier": "postnl", "deliveryType": "standard", "date": "tomorrow"}`),
	} {
		got := consign.DecodeDeliveryOptions(payload, consign.RequestOptions{}, defaults)

		assert.Equal(t, consign.SourceNormalized, got.Source, "payload %s", payload)
		assert.Equal(t, "postnl", got.Options.Carrier)
	}
}

func TestRequestOptions_ConceptOnly(t *testing.T) {
	assert.True(t, consign.RequestOptions{RequestType: "concept"}.ConceptOnly())
	assert.False(t, consign.RequestOptions{RequestType: "download"}.ConceptOnly())
	assert.False(t, consign.RequestOptions{}.ConceptOnly())
}
