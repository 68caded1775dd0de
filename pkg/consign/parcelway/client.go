// Package parcelway provides integration with the Parcelway shipping
// platform API.
package parcelway

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendelo/parcelbridge/pkg/consign"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const platformName = "parcelway"

// carrierIDs maps carrier names to their numeric Parcelway ids.
var carrierIDs = map[string]int{
	"postnl":    1,
	"bpost":     2,
	"dhlparcel": 9,
}

// Config holds Parcelway configuration.
type Config struct {
	BaseURL string
	UseMock bool // When true, uses the mock API client
}

// Client is the Parcelway platform client. It implements the
// consign.Carrier interface and delegates API calls to the underlying
// APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	validate  *validator.Validate
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Parcelway client. If cfg.UseMock is true, it uses a
// mock API client for testing. Otherwise, it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: 30 * time.Second,
		})
	}
	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Parcelway client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		validate:  validate,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the platform name.
func (c *Client) Name() string {
	return platformName
}

// CreateConsignments submits consignments to Parcelway. Every outbound
// shipment is validated before the remote call; an incomplete shipment
// fails with a MissingFieldError and nothing is submitted.
func (c *Client) CreateConsignments(ctx context.Context, consignments []*consign.Consignment) ([]consign.CreateResult, error) {
	if len(consignments) == 0 {
		return nil, nil
	}

	c.logger.Info("Creating Parcelway consignments",
		zap.Int("count", len(consignments)),
		zap.String("carrier", consignments[0].Carrier),
	)

	shipments := make([]Shipment, len(consignments))
	for i, cons := range consignments {
		shipment := consignmentToAPI(cons)
		if err := c.validateShipment(&shipment); err != nil {
			return nil, err
		}
		shipments[i] = shipment
	}

	ids, err := c.apiClient.CreateShipments(ctx, consignments[0].APIKey, shipments)
	if err != nil {
		c.logger.Error("Parcelway API error", zap.Error(err))
		return nil, err
	}

	results := make([]consign.CreateResult, len(ids))
	for i, id := range ids {
		results[i] = consign.CreateResult{ConsignmentID: id.ID}
	}
	return results, nil
}

// GetConsignments refreshes consignment state from Parcelway.
func (c *Client) GetConsignments(ctx context.Context, apiKey string, ids []int64) ([]consign.CreateResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	states, err := c.apiClient.GetShipments(ctx, apiKey, ids)
	if err != nil {
		c.logger.Error("Parcelway API error", zap.Error(err))
		return nil, err
	}

	results := make([]consign.CreateResult, len(states))
	for i, s := range states {
		results[i] = consign.CreateResult{
			ConsignmentID:  s.ID,
			TrackingNumber: s.Barcode,
		}
	}
	return results, nil
}

// RequestFulfilment hands the orders to the Parcelway fulfilment service.
func (c *Client) RequestFulfilment(ctx context.Context, apiKey string, orders []consign.FulfilmentOrder) error {
	c.logger.Info("Requesting Parcelway fulfilment", zap.Int("count", len(orders)))

	apiOrders := make([]FulfilmentOrder, len(orders))
	for i, o := range orders {
		apiOrders[i] = fulfilmentOrderToAPI(o)
	}

	if err := c.apiClient.CreateFulfilmentOrders(ctx, apiKey, apiOrders); err != nil {
		c.logger.Error("Parcelway API error", zap.Error(err))
		return err
	}
	return nil
}

// FetchLabels renders the labels for the given consignments as one PDF.
func (c *Client) FetchLabels(ctx context.Context, apiKey string, ids []int64, format consign.LabelFormat) ([]byte, error) {
	c.logger.Info("Fetching Parcelway labels",
		zap.Int("count", len(ids)),
		zap.String("format", string(format)),
	)

	if format == "" {
		format = consign.LabelA4
	}

	pdf, err := c.apiClient.GetLabels(ctx, apiKey, ids, string(format))
	if err != nil {
		c.logger.Error("Parcelway API error", zap.Error(err))
		return nil, err
	}
	return pdf, nil
}

// validateShipment checks the outbound payload and maps the first missing
// required field to a MissingFieldError.
func (c *Client) validateShipment(s *Shipment) error {
	err := c.validate.Struct(s)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return &consign.MissingFieldError{Field: verrs[0].Namespace()}
	}
	return err
}

// ============================================================================
// Conversion helpers: consign models -> API models
// ============================================================================

func consignmentToAPI(c *consign.Consignment) Shipment {
	shipment := Shipment{
		ReferenceIdentifier: c.ReferenceID,
		Carrier:             carrierIDs[c.Carrier],
		Recipient: &Address{
			CC:           c.Recipient.Country,
			Company:      c.Recipient.Company,
			Person:       c.Recipient.Person,
			Street:       c.Recipient.Street,
			Number:       c.Recipient.Number,
			NumberSuffix: c.Recipient.NumberSuffix,
			PostalCode:   c.Recipient.PostalCode,
			City:         c.Recipient.City,
			Phone:        c.Recipient.Phone,
			Email:        c.Recipient.Email,
		},
		Options: ShipmentOptions{
			PackageType:      int(c.PackageType),
			DeliveryType:     int(c.DeliveryType),
			Signature:        boolToInt(c.Signature),
			OnlyRecipient:    boolToInt(c.OnlyRecipient),
			Return:           boolToInt(c.Return),
			LargeFormat:      boolToInt(c.LargeFormat),
			AgeCheck:         boolToInt(c.AgeCheck),
			LabelDescription: c.LabelDescription,
		},
	}

	if c.DeliveryDate != nil {
		shipment.Options.DeliveryDate = c.DeliveryDate.Format("2006-01-02 15:04:05")
	}
	if c.InsuranceCents > 0 {
		shipment.Options.Insurance = &Insurance{Amount: c.InsuranceCents, Currency: "EUR"}
	}
	if c.Pickup != nil {
		shipment.Pickup = &PickupLocation{
			CC:              c.Pickup.Country,
			PostalCode:      c.Pickup.PostalCode,
			Street:          c.Pickup.Street,
			Number:          c.Pickup.Number,
			City:            c.Pickup.City,
			LocationName:    c.Pickup.LocationName,
			LocationCode:    c.Pickup.LocationCode,
			RetailNetworkID: c.Pickup.RetailNetworkID,
		}
	}
	if c.Physical != nil {
		shipment.PhysicalProperties = &PhysicalProperties{Weight: c.Physical.WeightGrams}
	}
	if len(c.Customs) > 0 {
		items := make([]CustomsItem, len(c.Customs))
		for i, item := range c.Customs {
			items[i] = CustomsItem{
				Description:    item.Description,
				Amount:         item.Amount,
				Weight:         item.WeightGrams,
				ItemValue:      ItemValue{Amount: item.ItemValueCents, Currency: "EUR"},
				Classification: item.Classification,
				Country:        item.Country,
			}
		}
		shipment.CustomsDeclaration = &CustomsDeclaration{
			Contents: 1,
			Invoice:  c.InvoiceRef,
			Items:    items,
		}
	}

	return shipment
}

func fulfilmentOrderToAPI(o consign.FulfilmentOrder) FulfilmentOrder {
	lines := make([]FulfilmentOrderLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = FulfilmentOrderLine{
			Description: item.Name,
			Quantity:    item.Qty,
			PriceCents:  consign.CentsByPrice(item.Price),
		}
	}
	return FulfilmentOrder{
		ExternalIdentifier: o.ExternalID,
		Recipient: &Address{
			CC:           o.Recipient.Country,
			Company:      o.Recipient.Company,
			Person:       o.Recipient.Person,
			Street:       o.Recipient.Street,
			Number:       o.Recipient.Number,
			NumberSuffix: o.Recipient.NumberSuffix,
			PostalCode:   o.Recipient.PostalCode,
			City:         o.Recipient.City,
			Phone:        o.Recipient.Phone,
			Email:        o.Recipient.Email,
		},
		OrderLines: lines,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure Client implements the Carrier interface
var _ consign.Carrier = (*Client)(nil)
