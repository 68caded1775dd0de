package consign

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// BuildHooks are the builder's per-order side channels. Warn reports a
// non-fatal, human-readable problem with one order; ResetOrder puts the
// order back into the "new" state so a malformed address does not block
// sibling orders in the same batch.
type BuildHooks struct {
	Warn       func(orderRef, message string)
	ResetOrder func(orderID int64)
}

// Builder assembles one Consignment per ShipmentContext.
type Builder struct {
	registry *Registry
	logger   *otelzap.Logger
	hooks    BuildHooks
}

// NewBuilder creates a consignment builder.
func NewBuilder(registry *Registry, logger *otelzap.Logger, hooks BuildHooks) *Builder {
	if hooks.Warn == nil {
		hooks.Warn = func(string, string) {}
	}
	if hooks.ResetOrder == nil {
		hooks.ResetOrder = func(int64) {}
	}
	return &Builder{
		registry: registry,
		logger:   logger,
		hooks:    hooks,
	}
}

// Build converts a shipment record into a carrier-ready consignment.
//
// A missing API key is a configuration error and aborts immediately. A
// street or postal code that cannot be parsed is downgraded to a per-order
// warning: the address fields stay raw, the order status is reset and the
// build continues.
func (b *Builder) Build(ctx *ShipmentContext) (*Consignment, error) {
	if ctx.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	decoded := DecodeDeliveryOptions(ctx.CheckoutPayload, ctx.Options, ctx.Defaults)
	opts := decoded.Options
	if decoded.Source == SourceNormalized {
		b.logger.Debug("Checkout payload absent or malformed, normalized raw options",
			zap.String("order", ctx.IncrementID),
		)
	}

	profile, err := b.registry.Get(opts.Carrier)
	if err != nil {
		return nil, &BuildError{OrderRef: ctx.IncrementID, Step: "carrier", Cause: err}
	}

	c := &Consignment{
		Carrier:       profile.Name,
		APIKey:        ctx.APIKey,
		ReferenceID:   strconv.FormatInt(ctx.ShipmentID, 10),
		ConsignmentID: ctx.ConsignmentID,
		Recipient: Recipient{
			Country: ctx.Address.Country,
			Company: clamp(ctx.Address.Company, profile.MaxCompanyNameLength),
			Person:  ctx.Address.Name,
			City:    ctx.Address.City,
			Phone:   ctx.Address.Phone,
			Email:   ctx.Address.Email,
		},
		SaveRecipientAddress: false,
	}

	b.setAddressFields(c, ctx)

	ageCheck := resolveAgeCheck(ctx.Address.Country, ctx.Options.AgeCheck, ctx.Items, ctx.Defaults.AgeCheck)
	packageType := ResolvePackageType(ctx.Defaults.PackageType, ctx.Options.PackageType, ageCheck)
	if !profile.SupportsPackageType(packageType) {
		b.logger.Debug("Carrier does not support package type, using package",
			zap.String("carrier", profile.Name),
			zap.String("package_type", packageType.String()),
		)
		packageType = PackageTypePackage
	}

	deliveryType := opts.DeliveryType
	if !profile.SupportsDeliveryType(deliveryType) {
		b.logger.Debug("Carrier does not support delivery type, using standard",
			zap.String("carrier", profile.Name),
			zap.Int("delivery_type", int(deliveryType)),
		)
		deliveryType = DeliveryStandard
	}

	c.AgeCheck = ageCheck
	c.PackageType = packageType
	c.DeliveryType = deliveryType
	c.DeliveryDate = opts.Date
	c.InvoiceRef = ctx.IncrementID
	c.LabelDescription = b.labelDescription(ctx, opts, profile)

	c.Signature = firstBool(given(ctx.Options.Signature), given(opts.Flags.Signature), set(ctx.Defaults.Signature))
	c.OnlyRecipient = firstBool(given(ctx.Options.OnlyRecipient), given(opts.Flags.OnlyRecipient), set(ctx.Defaults.OnlyRecipient))
	c.Return = firstBool(given(ctx.Options.Return), given(opts.Flags.Return), set(ctx.Defaults.Return))
	c.LargeFormat = firstBool(given(ctx.Options.LargeFormat), given(opts.Flags.LargeFormat), set(ctx.Defaults.LargeFormat))

	c.InsuranceCents = ctx.Defaults.InsuranceCents
	if ctx.Options.InsuranceCents != nil {
		c.InsuranceCents = *ctx.Options.InsuranceCents
	}

	if c.DeliveryType.IsPickup() {
		if opts.Pickup == nil {
			return nil, &BuildError{
				OrderRef: ctx.IncrementID,
				Step:     "pickup",
				Cause:    fmt.Errorf("pickup delivery without pickup location"),
			}
		}
		pickup := *opts.Pickup
		c.Pickup = &pickup
		// A pickup consignment never carries a return flag.
		c.Return = false
	}

	c.Customs = BuildCustomsItems(ctx.Items, ctx.Address.Country, ctx.Defaults)

	physical, err := CalculateWeight(ctx, packageType)
	if err != nil {
		return nil, err
	}
	c.Physical = physical

	return c, nil
}

// setAddressFields parses the street line and postal code onto the
// consignment. Parse failures are reported as per-order warnings, the
// order's status is reset to new and the raw values are kept.
func (b *Builder) setAddressFields(c *Consignment, ctx *ShipmentContext) {
	c.Recipient.PostalCode = NormalizePostalCode(ctx.Address.PostalCode)

	fullStreet := ctx.Address.FullStreet()
	parts, err := SplitStreet(fullStreet)
	if err != nil {
		human := fmt.Sprintf("An error has occurred while validating order number %s. Check address.", ctx.IncrementID)
		b.hooks.Warn(ctx.IncrementID, human)
		b.logger.Error("Address parse failed",
			zap.String("order", ctx.IncrementID),
			zap.Error(err),
		)
		b.hooks.ResetOrder(ctx.OrderID)

		c.Recipient.Street = fullStreet
		return
	}

	c.Recipient.Street = parts.Street
	c.Recipient.Number = parts.Number
	c.Recipient.NumberSuffix = parts.NumberSuffix
}

// labelDescription renders the merchant's label description template.
func (b *Builder) labelDescription(ctx *ShipmentContext, opts DeliveryOptions, profile CarrierProfile) string {
	description := ctx.Defaults.LabelDescription
	if description == "" {
		description = "{order_nr}"
	}

	date := ""
	if opts.Date != nil {
		date = opts.Date.Format("2006-01-02")
	}
	product := ""
	if len(ctx.Items) > 0 {
		product = ctx.Items[0].Name
	}

	replacer := strings.NewReplacer(
		"{order_nr}", ctx.IncrementID,
		"{delivery_date}", date,
		"{product_name}", product,
	)
	return clamp(replacer.Replace(description), profile.MaxLabelDescription)
}

func clamp(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
