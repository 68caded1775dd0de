package parcelway_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendelo/parcelbridge/pkg/consign"
	"github.com/vendelo/parcelbridge/pkg/consign/parcelway"
	"go.uber.org/zap"
)

func newTestClient(mockClient *parcelway.MockAPIClient) *parcelway.Client {
	logger := otelzap.New(zap.NewNop())
	return parcelway.NewWithAPIClient(
		parcelway.Config{},
		mockClient,
		logger,
		nil,
	)
}

func testConsignment() *consign.Consignment {
	return &consign.Consignment{
		Carrier:     "postnl",
		APIKey:      "test-key",
		ReferenceID: "101",
		Recipient: consign.Recipient{
			Country:    "NL",
			Person:     "Piet Hein",
			Street:     "Teststraat",
			Number:     "123",
			PostalCode: "1234AB",
			City:       "Amsterdam",
		},
		PackageType:  consign.PackageTypePackage,
		DeliveryType: consign.DeliveryStandard,
	}
}

func TestClient_Name(t *testing.T) {
	client := newTestClient(parcelway.NewMockAPIClient())
	assert.Equal(t, "parcelway", client.Name())
}

func TestClient_CreateConsignments_Success(t *testing.T) {
	client := newTestClient(parcelway.NewMockAPIClient())

	results, err := client.CreateConsignments(context.Background(), []*consign.Consignment{
		testConsignment(),
		testConsignment(),
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotZero(t, results[0].ConsignmentID)
	assert.Equal(t, results[0].ConsignmentID+1, results[1].ConsignmentID)
}

func TestClient_CreateConsignments_Empty(t *testing.T) {
	client := newTestClient(parcelway.NewMockAPIClient())

	results, err := client.CreateConsignments(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestClient_CreateConsignments_MissingField(t *testing.T) {
	client := newTestClient(parcelway.NewMockAPIClient())

	cons := testConsignment()
	cons.Recipient.Person = ""

	_, err := client.CreateConsignments(context.Background(), []*consign.Consignment{cons})

	var missing *consign.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Field, "person")
}

func TestClient_CreateConsignments_APIError(t *testing.T) {
	mockAPI := parcelway.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	_, err := client.CreateConsignments(context.Background(), []*consign.Consignment{testConsignment()})

	var remoteErr *consign.RemoteAPIError
	require.ErrorAs(t, err, &remoteErr)
}

func TestClient_CreateConsignments_WirePayload(t *testing.T) {
	var captured []parcelway.Shipment
	mockAPI := parcelway.NewMockAPIClient()
	mockAPI.OnCreateShipments = func(ctx context.Context, apiKey string, shipments []parcelway.Shipment) ([]parcelway.ShipmentID, error) {
		captured = shipments
		return []parcelway.ShipmentID{{ID: 9001, ReferenceIdentifier: shipments[0].ReferenceIdentifier}}, nil
	}
	client := newTestClient(mockAPI)

	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	cons := testConsignment()
	cons.DeliveryDate = &date
	cons.Signature = true
	cons.AgeCheck = true
	cons.InsuranceCents = 25000
	cons.LabelDescription = "Order 100000001"

	_, err := client.CreateConsignments(context.Background(), []*consign.Consignment{cons})

	require.NoError(t, err)
	require.Len(t, captured, 1)

	shipment := captured[0]
	assert.Equal(t, 1, shipment.Carrier) // postnl
	assert.Equal(t, "101", shipment.ReferenceIdentifier)
	assert.Equal(t, "NL", shipment.Recipient.CC)
	assert.Equal(t, 1, shipment.Options.PackageType)
	assert.Equal(t, 2, shipment.Options.DeliveryType)
	assert.Equal(t, "2026-09-01 00:00:00", shipment.Options.DeliveryDate)
	assert.Equal(t, 1, shipment.Options.Signature)
	assert.Equal(t, 0, shipment.Options.OnlyRecipient)
	assert.Equal(t, 1, shipment.Options.AgeCheck)
	assert.Equal(t, "Order 100000001", shipment.Options.LabelDescription)
	require.NotNil(t, shipment.Options.Insurance)
	assert.Equal(t, int64(25000), shipment.Options.Insurance.Amount)
	assert.Equal(t, "EUR", shipment.Options.Insurance.Currency)
}

func TestClient_CreateConsignments_CustomsBlock(t *testing.T) {
	var captured []parcelway.Shipment
	mockAPI := parcelway.NewMockAPIClient()
	mockAPI.OnCreateShipments = func(ctx context.Context, apiKey string, shipments []parcelway.Shipment) ([]parcelway.ShipmentID, error) {
		captured = shipments
		return []parcelway.ShipmentID{{ID: 9002}}, nil
	}
	client := newTestClient(mockAPI)

	cons := testConsignment()
	cons.InvoiceRef = "100000001"
	cons.Customs = []consign.CustomsItem{
		{Description: "Mug", Amount: 2, WeightGrams: 600, ItemValueCents: 1200, Country: "NL"},
	}

	_, err := client.CreateConsignments(context.Background(), []*consign.Consignment{cons})

	require.NoError(t, err)
	require.Len(t, captured, 1)
	declaration := captured[0].CustomsDeclaration
	require.NotNil(t, declaration)
	assert.Equal(t, 1, declaration.Contents)
	assert.Equal(t, "100000001", declaration.Invoice)
	require.Len(t, declaration.Items, 1)
	assert.Equal(t, int64(1200), declaration.Items[0].ItemValue.Amount)
	assert.Equal(t, "EUR", declaration.Items[0].ItemValue.Currency)
}

func TestClient_GetConsignments(t *testing.T) {
	client := newTestClient(parcelway.NewMockAPIClient())

	results, err := client.GetConsignments(context.Background(), "test-key", []int64{7001, 7002})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(7001), results[0].ConsignmentID)
	assert.Contains(t, results[0].TrackingNumber, "3SPARC")
}

func TestClient_GetConsignments_Empty(t *testing.T) {
	client := newTestClient(parcelway.NewMockAPIClient())

	results, err := client.GetConsignments(context.Background(), "test-key", nil)

	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestClient_RequestFulfilment(t *testing.T) {
	var captured []parcelway.FulfilmentOrder
	mockAPI := parcelway.NewMockAPIClient()
	mockAPI.OnCreateFulfilmentOrders = func(ctx context.Context, apiKey string, orders []parcelway.FulfilmentOrder) error {
		captured = orders
		return nil
	}
	client := newTestClient(mockAPI)

	err := client.RequestFulfilment(context.Background(), "test-key", []consign.FulfilmentOrder{
		{
			ExternalID: "100000001",
			Recipient:  consign.Recipient{Country: "NL", Person: "Piet Hein", Street: "Teststraat", City: "Amsterdam"},
			Items: []consign.OrderItem{
				{Name: "Ceramic mug", Qty: 2, Price: decimal.NewFromFloat(12.95)},
			},
		},
	})

	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, "100000001", captured[0].ExternalIdentifier)
	require.Len(t, captured[0].OrderLines, 1)
	assert.Equal(t, 2, captured[0].OrderLines[0].Quantity)
	assert.Equal(t, int64(1200), captured[0].OrderLines[0].PriceCents)
}

func TestClient_FetchLabels(t *testing.T) {
	var capturedFormat string
	mockAPI := parcelway.NewMockAPIClient()
	mockAPI.OnGetLabels = func(ctx context.Context, apiKey string, ids []int64, format string) ([]byte, error) {
		capturedFormat = format
		return []byte("%PDF-1.4 test"), nil
	}
	client := newTestClient(mockAPI)

	pdf, err := client.FetchLabels(context.Background(), "test-key", []int64{7001}, consign.LabelA6)

	require.NoError(t, err)
	assert.Equal(t, "A6", capturedFormat)
	assert.Contains(t, string(pdf), "%PDF")
}

func TestClient_FetchLabels_DefaultFormat(t *testing.T) {
	var capturedFormat string
	mockAPI := parcelway.NewMockAPIClient()
	mockAPI.OnGetLabels = func(ctx context.Context, apiKey string, ids []int64, format string) ([]byte, error) {
		capturedFormat = format
		return []byte("%PDF-1.4 test"), nil
	}
	client := newTestClient(mockAPI)

	_, err := client.FetchLabels(context.Background(), "test-key", []int64{7001}, "")

	require.NoError(t, err)
	assert.Equal(t, "A4", capturedFormat)
}
