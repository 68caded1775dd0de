package consign_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendelo/parcelbridge/pkg/consign"
	"go.uber.org/zap"
)

func newTestBuilder(hooks consign.BuildHooks) *consign.Builder {
	logger := otelzap.New(zap.NewNop())
	return consign.NewBuilder(consign.DefaultRegistry(), logger, hooks)
}

func testShipmentContext() *consign.ShipmentContext {
	return &consign.ShipmentContext{
		OrderID:     1,
		IncrementID: "100000001",
		ShipmentID:  101,
		TotalQty:    2,
		Address: consign.Address{
			StreetLines: []string{"Teststraat 123A"},
			PostalCode:  "1234 AB",
			City:        "Amsterdam",
			Country:     "NL",
			Name:        "Piet Hein",
			Email:       "piet@example.com",
		},
		Items: []consign.OrderItem{
			{Name: "Ceramic mug", Qty: 2, Weight: 250, Price: decimal.NewFromFloat(12.95)},
		},
		Defaults: consign.MerchantDefaults{
			Carrier:         "postnl",
			PackageType:     consign.PackageTypePackage,
			WeightUnit:      consign.WeightGram,
			CountryOfOrigin: "NL",
		},
		APIKey: "test-key",
	}
}

func TestBuilder_Build_Basic(t *testing.T) {
	ctx := testShipmentContext()

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.Equal(t, "postnl", cons.Carrier)
	assert.Equal(t, "101", cons.ReferenceID)
	assert.Equal(t, "100000001", cons.InvoiceRef)
	assert.Equal(t, consign.PackageTypePackage, cons.PackageType)
	assert.Equal(t, consign.DeliveryStandard, cons.DeliveryType)
	assert.False(t, cons.SaveRecipientAddress)

	assert.Equal(t, "Teststraat", cons.Recipient.Street)
	assert.Equal(t, "123", cons.Recipient.Number)
	assert.Equal(t, "A", cons.Recipient.NumberSuffix)
	assert.Equal(t, "1234AB", cons.Recipient.PostalCode)
	assert.Equal(t, "Piet Hein", cons.Recipient.Person)

	// Domestic shipment: no customs, no weight block for a plain package.
	assert.Nil(t, cons.Customs)
	assert.Nil(t, cons.Physical)
}

func TestBuilder_Build_MissingAPIKey(t *testing.T) {
	ctx := testShipmentContext()
	ctx.APIKey = ""

	_, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	assert.ErrorIs(t, err, consign.ErrMissingAPIKey)
}

func TestBuilder_Build_UnsplittableStreetKeepsRaw(t *testing.T) {
	var warned []string
	var resetOrders []int64
	builder := newTestBuilder(consign.BuildHooks{
		Warn:       func(orderRef, message string) { warned = append(warned, message) },
		ResetOrder: func(orderID int64) { resetOrders = append(resetOrders, orderID) },
	})

	ctx := testShipmentContext()
	ctx.Address.StreetLines = []string{"Teststraat"}

	cons, err := builder.Build(ctx)

	// Not fatal: the consignment still builds with the raw street line.
	require.NoError(t, err)
	assert.Equal(t, "Teststraat", cons.Recipient.Street)
	assert.Empty(t, cons.Recipient.Number)

	require.Len(t, warned, 1)
	assert.Contains(t, warned[0], "100000001")
	assert.Equal(t, []int64{1}, resetOrders)
}

func TestBuilder_Build_CheckoutPayloadDrivesDelivery(t *testing.T) {
	ctx := testShipmentContext()
	ctx.CheckoutPayload = []byte(`{
		"carrier": "postnl",
		"date": "2026-09-01",
		"deliveryType": "evening",
		"shipmentOptions": {"signature": true}
	}`)

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.Equal(t, consign.DeliveryEvening, cons.DeliveryType)
	require.NotNil(t, cons.DeliveryDate)
	assert.Equal(t, "2026-09-01", cons.DeliveryDate.Format("2006-01-02"))
	assert.True(t, cons.Signature)
}

func TestBuilder_Build_FlagPrecedence(t *testing.T) {
	// Request override wins over the checkout flag, which wins over the
	// merchant default.
	ctx := testShipmentContext()
	ctx.Defaults.Signature = true
	ctx.CheckoutPayload = []byte(`{
		"carrier": "postnl",
		"deliveryType": "standard",
		"shipmentOptions": {"signature": false, "only_recipient": true}
	}`)
	ctx.Options.Signature = boolPtr(true)

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.True(t, cons.Signature)      // request override
	assert.True(t, cons.OnlyRecipient)  // checkout flag
	assert.False(t, cons.Return)        // merchant default
}

func TestBuilder_Build_PickupForcesNoReturn(t *testing.T) {
	ctx := testShipmentContext()
	ctx.Options.Return = boolPtr(true)
	ctx.CheckoutPayload = []byte(`{
		"carrier": "postnl",
		"deliveryType": "pickup",
		"isPickup": true,
		"pickupLocation": {
			"cc": "NL",
			"postal_code": "2132JE",
			"street": "Burgemeester van Stamplein",
			"number": "270",
			"city": "Hoofddorp",
			"location_name": "Albert Heijn"
		}
	}`)

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	require.NotNil(t, cons.Pickup)
	assert.Equal(t, "Albert Heijn", cons.Pickup.LocationName)
	assert.False(t, cons.Return)
}

func TestBuilder_Build_PickupWithoutLocation(t *testing.T) {
	// A payload can name a pickup delivery type without flagging isPickup;
	// the builder then has no location to ship to.
	ctx := testShipmentContext()
	ctx.CheckoutPayload = []byte(`{"carrier": "postnl", "deliveryType": "pickup"}`)

	_, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	var buildErr *consign.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "pickup", buildErr.Step)
}

func TestBuilder_Build_UnknownCarrier(t *testing.T) {
	ctx := testShipmentContext()
	ctx.CheckoutPayload = []byte(`{"carrier": "fedex", "deliveryType": "standard"}`)

	_, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, consign.ErrUnknownCarrier)
}

func TestBuilder_Build_AgeCheckForcesPackage(t *testing.T) {
	restricted := true
	ctx := testShipmentContext()
	ctx.Defaults.PackageType = consign.PackageTypeMailbox
	ctx.Items[0].AgeRestricted = &restricted

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.True(t, cons.AgeCheck)
	assert.Equal(t, consign.PackageTypePackage, cons.PackageType)
}

func TestBuilder_Build_AgeCheckOnlyDomestic(t *testing.T) {
	restricted := true
	ctx := testShipmentContext()
	ctx.Address.Country = "BE"
	ctx.Address.PostalCode = "2000"
	ctx.Items[0].AgeRestricted = &restricted

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.False(t, cons.AgeCheck)
}

func TestBuilder_Build_RequestAgeCheckOverridesProduct(t *testing.T) {
	restricted := true
	ctx := testShipmentContext()
	ctx.Items[0].AgeRestricted = &restricted
	ctx.Options.AgeCheck = boolPtr(false)

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.False(t, cons.AgeCheck)
}

func TestBuilder_Build_UnsupportedPackageTypeFallsBack(t *testing.T) {
	ctx := testShipmentContext()
	ctx.Defaults.Carrier = "bpost"
	ctx.Options.PackageType = "mailbox"

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.Equal(t, "bpost", cons.Carrier)
	assert.Equal(t, consign.PackageTypePackage, cons.PackageType)
}

func TestBuilder_Build_InsuranceOverride(t *testing.T) {
	insured := int64(25000)
	ctx := testShipmentContext()
	ctx.Defaults.InsuranceCents = 10000
	ctx.Options.InsuranceCents = &insured

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(25000), cons.InsuranceCents)
}

func TestBuilder_Build_CustomsForNonEU(t *testing.T) {
	ctx := testShipmentContext()
	ctx.Address.Country = "US"
	ctx.Address.PostalCode = "90210"
	ctx.Address.StreetLines = []string{"1 Infinite Loop"}

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	require.Len(t, cons.Customs, 1)
	assert.Equal(t, "Ceramic mug", cons.Customs[0].Description)
	assert.Equal(t, int64(1200), cons.Customs[0].ItemValueCents)
	assert.Equal(t, "NL", cons.Customs[0].Country)
}

func TestBuilder_Build_DigitalStampWeight(t *testing.T) {
	ctx := testShipmentContext()
	ctx.Options.PackageType = "digital_stamp"
	ctx.Items = []consign.OrderItem{
		{Name: "Card", Qty: 1, Weight: 100, Price: decimal.NewFromFloat(2.50)},
		{Name: "Envelope", Qty: 1, Weight: 150, Price: decimal.NewFromFloat(1.00)},
	}

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.Equal(t, consign.PackageTypeDigitalStamp, cons.PackageType)
	require.NotNil(t, cons.Physical)
	assert.Equal(t, 250, cons.Physical.WeightGrams)
}

func TestBuilder_Build_DigitalStampWithoutWeight(t *testing.T) {
	ctx := testShipmentContext()
	ctx.Options.PackageType = "digital_stamp"
	ctx.Items = []consign.OrderItem{
		{Name: "Card", Qty: 1, Weight: 0},
	}

	_, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	assert.ErrorIs(t, err, consign.ErrNoWeightData)
}

func TestBuilder_Build_LabelDescription(t *testing.T) {
	ctx := testShipmentContext()
	ctx.Defaults.LabelDescription = "Order {order_nr} - {product_name}"

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.Equal(t, "Order 100000001 - Ceramic mug", cons.LabelDescription)
}

func TestBuilder_Build_LabelDescriptionClamped(t *testing.T) {
	ctx := testShipmentContext()
	ctx.Defaults.LabelDescription = "A very long label description that keeps going well past the limit"

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.Len(t, cons.LabelDescription, 45)
}

func TestBuilder_Build_LabelDescriptionDefaultsToOrderNumber(t *testing.T) {
	ctx := testShipmentContext()

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.Equal(t, "100000001", cons.LabelDescription)
}

func TestBuilder_Build_CompanyNameClamped(t *testing.T) {
	ctx := testShipmentContext()
	ctx.Address.Company = "An unreasonably long company name that will not fit on a shipping label"

	cons, err := newTestBuilder(consign.BuildHooks{}).Build(ctx)

	require.NoError(t, err)
	assert.Len(t, cons.Recipient.Company, 50)
}
