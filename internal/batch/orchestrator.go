// Package batch drives the order export pipeline: per-order validation,
// consignment building, remote submission, label rendering and
// notification, with partial-failure tolerance.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendelo/parcelbridge/internal/store"
	"github.com/vendelo/parcelbridge/internal/telemetry"
	"github.com/vendelo/parcelbridge/pkg/consign"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Mailer sends the track-and-trace notification for one order.
type Mailer interface {
	SendTrackEmail(ctx context.Context, order *store.Order, trackingNumber string) error
}

// Request describes one export batch: the selection made in the admin UI
// plus the export mode.
type Request struct {
	StoreID  int64
	OrderIDs []int64
	Mode     string // ModeShipments or ModePPS; empty falls back to the store config
	Options  consign.RequestOptions
}

// OrderResult is the outcome for a single order in the batch.
type OrderResult struct {
	OrderID        int64
	IncrementID    string
	ShipmentID     int64
	TrackID        int64
	ConsignmentID  int64
	TrackingNumber string
	Err            error
}

// Result is the outcome of one batch run. The caller always gets a result,
// even on partial failure; Warnings carries the queued user-facing
// messages.
type Result struct {
	BatchID  string
	Stage    Stage
	Warnings []string
	Orders   []*OrderResult
	Label    []byte
}

// warn queues a user-facing message.
func (r *Result) warn(message string) {
	r.Warnings = append(r.Warnings, message)
}

// Orchestrator runs export batches. Processing is sequential: side effects
// for order i complete or fail before order i+1 begins, so partial-batch
// failure leaves a well-defined prefix fully processed.
type Orchestrator struct {
	store    store.OrderStore
	carrier  consign.Carrier
	registry *consign.Registry
	mailer   Mailer
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
	tracer   trace.Tracer
}

// New creates a batch orchestrator.
func New(
	orderStore store.OrderStore,
	carrier consign.Carrier,
	registry *consign.Registry,
	mailer Mailer,
	logger *otelzap.Logger,
	metrics *telemetry.Metrics,
	tracer trace.Tracer,
) *Orchestrator {
	return &Orchestrator{
		store:    orderStore,
		carrier:  carrier,
		registry: registry,
		mailer:   mailer,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
	}
}

// run is the working state of one batch invocation. It is owned
// exclusively by that invocation; no cross-request state is shared.
type run struct {
	req    Request
	cfg    *store.Config
	result *Result
	orders []*store.Order
	opts   consign.RequestOptions
}

// Run executes one export batch. It returns an error only for batch-level
// hard stops (missing API key, nothing selected, no shipments); everything
// per-order is reported through Result.Warnings and Result.Orders.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if o.tracer != nil {
		var span trace.Span
		ctx, span = o.tracer.Start(ctx, "batch.run")
		defer span.End()
	}

	started := time.Now()
	r := &run{
		req: req,
		result: &Result{
			BatchID: uuid.New().String(),
			Stage:   StageSelected,
		},
	}

	err := o.execute(ctx, r)
	status := "ok"
	if err != nil {
		status = "error"
		o.logger.Error("Batch aborted",
			zap.String("batch_id", r.result.BatchID),
			zap.String("stage", r.result.Stage.String()),
			zap.Error(err),
		)
	}
	o.metrics.RecordBatch(r.mode(), status, time.Since(started).Seconds())

	return r.result, err
}

func (r *run) mode() string {
	if r.req.Mode != "" {
		return r.req.Mode
	}
	if r.cfg != nil && r.cfg.ExportMode != "" {
		return r.cfg.ExportMode
	}
	return ModeShipments
}

func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	// Entry guard: a missing API credential aborts the whole batch before
	// any remote call, reported once.
	cfg, err := o.store.StoreConfig(ctx, r.req.StoreID)
	if err != nil || cfg.APIKey == "" {
		r.result.warn("You have not entered a correct API key. Configure one in the store settings.")
		return consign.ErrMissingAPIKey
	}
	r.cfg = cfg

	if len(r.req.OrderIDs) == 0 {
		return &consign.StateError{Cause: consign.ErrNothingSelected}
	}

	if err := o.filterAddresses(ctx, r); err != nil {
		return err
	}
	r.result.Stage = StageAddressFiltered

	if len(r.orders) == 0 {
		return &consign.StateError{Cause: consign.ErrNothingSelected}
	}
	r.result.Stage = StageCollected

	o.applyOptions(r)
	r.result.Stage = StageOptionsApplied

	if err := o.createShipments(ctx, r); err != nil {
		return err
	}
	r.result.Stage = StageShipmentsCreated

	if r.mode() == ModePPS {
		return o.requestFulfilment(ctx, r)
	}
	return o.runShipmentPipeline(ctx, r)
}

// filterAddresses validates each selected order independently. Orders
// failing street or postal-code validation are dropped with a per-order
// message; the rest of the batch proceeds.
func (o *Orchestrator) filterAddresses(ctx context.Context, r *run) error {
	for _, orderID := range r.req.OrderIDs {
		order, err := o.store.Order(ctx, orderID)
		if err != nil {
			r.result.warn(fmt.Sprintf("Order %d could not be loaded.", orderID))
			o.logger.Warn("Order load failed", zap.Int64("order_id", orderID), zap.Error(err))
			continue
		}

		dest := order.Address.Country
		if err := consign.ValidateStreet(order.Address.FullStreet(), consign.HomeCountry, dest); err != nil {
			addrErr := &consign.AddressError{
				OrderRef: order.IncrementID,
				Field:    "street",
				Value:    order.Address.FullStreet(),
				Cause:    err,
			}
			r.result.warn(addrErr.Human())
			o.metrics.RecordOrder("address_rejected")
			continue
		}
		if err := consign.ValidatePostalCode(order.Address.PostalCode, dest); err != nil {
			addrErr := &consign.AddressError{
				OrderRef: order.IncrementID,
				Field:    "postcode",
				Value:    order.Address.PostalCode,
				Cause:    err,
			}
			r.result.warn(addrErr.Human())
			o.metrics.RecordOrder("address_rejected")
			continue
		}

		r.orders = append(r.orders, order)
	}
	return nil
}

// applyOptions merges the request-scoped options into the batch uniformly.
// Track emails are always requested for exported orders.
func (o *Orchestrator) applyOptions(r *run) {
	opts := r.req.Options
	opts.TrackEmail = true
	r.opts = opts
}

// createShipments makes sure every order in the batch has a shipment
// record, then re-reads shipment state. A batch without any shipments is a
// hard stop, distinct from a per-order filter failure.
func (o *Orchestrator) createShipments(ctx context.Context, r *run) error {
	for _, order := range r.orders {
		if _, err := o.store.CreateShipment(ctx, order.ID); err != nil {
			r.result.warn(fmt.Sprintf("Could not create a shipment for order %s.", order.IncrementID))
			o.logger.Warn("Shipment creation failed",
				zap.String("order", order.IncrementID),
				zap.Error(err),
			)
		}
	}

	orderIDs := make([]int64, len(r.orders))
	for i, order := range r.orders {
		orderIDs[i] = order.ID
	}
	shipments, err := o.store.Shipments(ctx, orderIDs)
	if err != nil {
		return err
	}
	if len(shipments) == 0 {
		r.result.warn(consign.ErrNoShipment.Error())
		return &consign.StateError{Cause: consign.ErrNoShipment}
	}

	byOrder := make(map[int64]*store.Shipment, len(shipments))
	for _, s := range shipments {
		byOrder[s.OrderID] = s
	}
	for _, order := range r.orders {
		shipment, ok := byOrder[order.ID]
		if !ok {
			r.result.warn(fmt.Sprintf("Order %s has no shipment.", order.IncrementID))
			continue
		}
		r.result.Orders = append(r.result.Orders, &OrderResult{
			OrderID:     order.ID,
			IncrementID: order.IncrementID,
			ShipmentID:  shipment.ID,
		})
	}
	return nil
}

// requestFulfilment is the PPS branch: one remote fulfilment call for the
// whole batch, no per-order label pipeline.
func (o *Orchestrator) requestFulfilment(ctx context.Context, r *run) error {
	orders := make([]consign.FulfilmentOrder, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, consign.FulfilmentOrder{
			ExternalID: order.IncrementID,
			Recipient:  recipientFromAddress(order.Address),
			Items:      order.Items,
		})
	}

	if err := o.carrier.RequestFulfilment(ctx, r.cfg.APIKey, orders); err != nil {
		r.result.warn("The fulfilment request failed. View the log file for more information.")
		o.logger.Error("Fulfilment request failed",
			zap.String("batch_id", r.result.BatchID),
			zap.Error(err),
		)
		o.metrics.RecordCarrierError("fulfilment")
		return nil
	}

	r.result.Stage = StageFulfilmentRequested
	o.logger.Info("Fulfilment requested",
		zap.String("batch_id", r.result.BatchID),
		zap.Int("orders", len(orders)),
	)
	return nil
}

// runShipmentPipeline is the standard branch: sync, build, submit, label,
// notify. Orders are processed one at a time in selection order.
func (o *Orchestrator) runShipmentPipeline(ctx context.Context, r *run) error {
	contexts := o.syncShipments(ctx, r)
	r.result.Stage = StageConsignmentsSynced

	o.createTracks(ctx, r)
	r.result.Stage = StageTracksCreated

	consignments := o.createConcepts(ctx, r, contexts)
	r.result.Stage = StageConceptsCreated

	o.updateTracks(ctx, r)
	r.result.Stage = StageTracksUpdated

	// Nothing printable yet: a concept-only request, or a batch where no
	// consignment survived, stops here.
	if r.opts.ConceptOnly() || len(consignments) == 0 {
		return nil
	}

	o.addReturnShipments(ctx, r, consignments)
	r.result.Stage = StageReturnsAdded

	if !o.renderLabels(ctx, r) {
		return nil
	}
	r.result.Stage = StageLabelsRendered

	o.refreshTracks(ctx, r)
	r.result.Stage = StageTracksUpdated

	o.sendTrackEmails(ctx, r)
	r.result.Stage = StageEmailsSent

	r.result.Stage = StageLabelsDownloaded
	return nil
}

// syncShipments builds the per-order shipment contexts from local state.
func (o *Orchestrator) syncShipments(ctx context.Context, r *run) map[int64]*consign.ShipmentContext {
	contexts := make(map[int64]*consign.ShipmentContext, len(r.result.Orders))
	for _, res := range r.result.Orders {
		order := r.orderByID(res.OrderID)
		if order == nil {
			continue
		}
		qty := 0
		for _, item := range order.Items {
			qty += item.Qty
		}
		contexts[res.OrderID] = &consign.ShipmentContext{
			OrderID:         order.ID,
			IncrementID:     order.IncrementID,
			ShipmentID:      res.ShipmentID,
			TotalQty:        qty,
			Address:         order.Address,
			Items:           order.Items,
			CheckoutPayload: order.CheckoutPayload,
			Options:         r.opts,
			Defaults:        r.cfg.Defaults,
			APIKey:          r.cfg.APIKey,
		}
	}
	return contexts
}

// createTracks attaches a fresh local track record to every shipment.
func (o *Orchestrator) createTracks(ctx context.Context, r *run) {
	for _, res := range r.result.Orders {
		track, err := o.store.CreateTrack(ctx, res.ShipmentID)
		if err != nil {
			res.Err = err
			r.result.warn(fmt.Sprintf("Could not create a track for order %s.", res.IncrementID))
			o.logger.Warn("Track creation failed",
				zap.String("order", res.IncrementID),
				zap.Error(err),
			)
			continue
		}
		res.TrackID = track.ID
	}
}

// createConcepts builds and submits one consignment per order,
// sequentially. A build or submission failure stops that order's pipeline
// and leaves sibling orders untouched.
func (o *Orchestrator) createConcepts(ctx context.Context, r *run, contexts map[int64]*consign.ShipmentContext) []*consign.Consignment {
	builder := consign.NewBuilder(o.registry, o.logger, consign.BuildHooks{
		Warn: func(orderRef, message string) {
			r.result.warn(message)
		},
		ResetOrder: func(orderID int64) {
			if err := o.store.SetOrderStatus(ctx, orderID, store.StatusNew); err != nil {
				o.logger.Warn("Order status reset failed", zap.Int64("order_id", orderID), zap.Error(err))
			}
		},
	})

	var created []*consign.Consignment
	for _, res := range r.result.Orders {
		if res.Err != nil {
			continue
		}
		shipCtx, ok := contexts[res.OrderID]
		if !ok {
			continue
		}

		cons, err := builder.Build(shipCtx)
		if err != nil {
			res.Err = err
			r.result.warn(fmt.Sprintf("Order %s could not be exported: %v.", res.IncrementID, err))
			o.logger.Error("Consignment build failed",
				zap.String("order", res.IncrementID),
				zap.Error(err),
			)
			o.metrics.RecordOrder("build_failed")
			continue
		}

		results, err := o.carrier.CreateConsignments(ctx, []*consign.Consignment{cons})
		if err != nil {
			res.Err = err
			r.result.warn(fmt.Sprintf("Order %s was not accepted by the carrier. View the log file for more information.", res.IncrementID))
			o.logger.Error("Consignment submission failed",
				zap.String("order", res.IncrementID),
				zap.Error(err),
			)
			o.metrics.RecordCarrierError("create")
			continue
		}
		if len(results) > 0 {
			cons.ConsignmentID = results[0].ConsignmentID
			cons.TrackingNumber = results[0].TrackingNumber
			res.ConsignmentID = results[0].ConsignmentID
			res.TrackingNumber = results[0].TrackingNumber
		}
		created = append(created, cons)
		o.metrics.RecordOrder("exported")
	}
	return created
}

// updateTracks writes remote identifiers back onto the local track records.
func (o *Orchestrator) updateTracks(ctx context.Context, r *run) {
	for _, res := range r.result.Orders {
		if res.TrackID == 0 || res.ConsignmentID == 0 {
			continue
		}
		if err := o.store.UpdateTrack(ctx, res.TrackID, res.ConsignmentID, res.TrackingNumber); err != nil {
			o.logger.Warn("Track update failed",
				zap.String("order", res.IncrementID),
				zap.Error(err),
			)
		}
	}
}

// addReturnShipments submits a linked return consignment for every
// consignment that was exported with the return option.
func (o *Orchestrator) addReturnShipments(ctx context.Context, r *run, consignments []*consign.Consignment) {
	var returns []*consign.Consignment
	for _, cons := range consignments {
		if !cons.Return {
			continue
		}
		ret := *cons
		ret.ConsignmentID = 0
		ret.ReferenceID = cons.ReferenceID + "-return"
		returns = append(returns, &ret)
	}
	if len(returns) == 0 {
		return
	}

	if _, err := o.carrier.CreateConsignments(ctx, returns); err != nil {
		r.result.warn("The return shipments could not be created.")
		o.logger.Error("Return shipment creation failed", zap.Error(err))
		o.metrics.RecordCarrierError("return")
	}
}

// renderLabels fetches the label PDF for all exported consignments.
// A rendering failure is recorded and stops the remaining stages; tracks
// already updated stay updated.
func (o *Orchestrator) renderLabels(ctx context.Context, r *run) bool {
	ids := r.exportedIDs()
	if len(ids) == 0 {
		return false
	}

	format := r.opts.LabelFormat
	label, err := o.carrier.FetchLabels(ctx, r.cfg.APIKey, ids, format)
	if err != nil {
		r.result.warn("The labels could not be rendered. View the log file for more information.")
		o.logger.Error("Label rendering failed",
			zap.String("batch_id", r.result.BatchID),
			zap.Error(err),
		)
		o.metrics.RecordCarrierError("labels")
		return false
	}
	r.result.Label = label
	return true
}

// refreshTracks re-reads remote state after label rendering: barcodes are
// assigned by the platform at that point.
func (o *Orchestrator) refreshTracks(ctx context.Context, r *run) {
	ids := r.exportedIDs()
	states, err := o.carrier.GetConsignments(ctx, r.cfg.APIKey, ids)
	if err != nil {
		o.logger.Warn("Consignment refresh failed", zap.Error(err))
		return
	}

	byID := make(map[int64]consign.CreateResult, len(states))
	for _, s := range states {
		byID[s.ConsignmentID] = s
	}
	for _, res := range r.result.Orders {
		state, ok := byID[res.ConsignmentID]
		if !ok || state.TrackingNumber == "" {
			continue
		}
		res.TrackingNumber = state.TrackingNumber
		if res.TrackID != 0 {
			if err := o.store.UpdateTrack(ctx, res.TrackID, res.ConsignmentID, res.TrackingNumber); err != nil {
				o.logger.Warn("Track update failed",
					zap.String("order", res.IncrementID),
					zap.Error(err),
				)
			}
		}
	}
}

// sendTrackEmails dispatches the track-and-trace notification per order.
// A failed email is recorded and never affects sibling orders.
func (o *Orchestrator) sendTrackEmails(ctx context.Context, r *run) {
	if o.mailer == nil || !r.opts.TrackEmail {
		return
	}
	for _, res := range r.result.Orders {
		if res.Err != nil || res.TrackingNumber == "" {
			continue
		}
		order := r.orderByID(res.OrderID)
		if order == nil {
			continue
		}
		if err := o.mailer.SendTrackEmail(ctx, order, res.TrackingNumber); err != nil {
			r.result.warn(fmt.Sprintf("The track email for order %s could not be sent.", res.IncrementID))
			o.logger.Warn("Track email failed",
				zap.String("order", res.IncrementID),
				zap.Error(err),
			)
		}
	}
}

func (r *run) orderByID(id int64) *store.Order {
	for _, order := range r.orders {
		if order.ID == id {
			return order
		}
	}
	return nil
}

func (r *run) exportedIDs() []int64 {
	var ids []int64
	for _, res := range r.result.Orders {
		if res.Err == nil && res.ConsignmentID != 0 {
			ids = append(ids, res.ConsignmentID)
		}
	}
	return ids
}

// recipientFromAddress converts a raw order address into a recipient
// block, splitting the street when possible.
func recipientFromAddress(a consign.Address) consign.Recipient {
	recipient := consign.Recipient{
		Country:    a.Country,
		Company:    a.Company,
		Person:     a.Name,
		PostalCode: consign.NormalizePostalCode(a.PostalCode),
		City:       a.City,
		Phone:      a.Phone,
		Email:      a.Email,
		Street:     a.FullStreet(),
	}
	if parts, err := consign.SplitStreet(a.FullStreet()); err == nil {
		recipient.Street = parts.Street
		recipient.Number = parts.Number
		recipient.NumberSuffix = parts.NumberSuffix
	}
	return recipient
}
