package consign

import (
	"errors"
	"fmt"
)

// Sentinel errors for the export pipeline.
var (
	// ErrMissingAPIKey indicates no API credential is configured for the
	// store. Fatal: the batch aborts before any remote call.
	ErrMissingAPIKey = errors.New("api key is not known, configure one in the store settings")

	// ErrInvalidStreet indicates no house number could be isolated from the
	// street line for a country that requires one.
	ErrInvalidStreet = errors.New("invalid street")

	// ErrInvalidPostalCode indicates the postal code does not match the
	// destination country's format.
	ErrInvalidPostalCode = errors.New("invalid postal code")

	// ErrNoWeightData indicates a digital-stamp shipment has no
	// determinable weight from any source.
	ErrNoWeightData = errors.New("no weight data, a digital stamp shipment cannot be exported without a weight")

	// ErrNothingSelected indicates the batch contains no exportable orders.
	ErrNothingSelected = errors.New("no items selected")

	// ErrNoShipment indicates no shipment records exist for the selection.
	ErrNoShipment = errors.New("order has no shipment")

	// ErrUnknownCarrier indicates the delivery options name a carrier that
	// is not registered.
	ErrUnknownCarrier = errors.New("unknown carrier")
)

// AddressError reports a street or postal-code validation failure for one
// order. It drops that order from the batch and is never fatal to siblings.
type AddressError struct {
	OrderRef string
	Field    string // "street" or "postcode"
	Value    string
	Cause    error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("order %s: %s %q: %v", e.OrderRef, e.Field, e.Value, e.Cause)
}

func (e *AddressError) Unwrap() error {
	return e.Cause
}

// Human returns the user-facing warning message for this failure.
func (e *AddressError) Human() string {
	switch e.Field {
	case "street":
		return fmt.Sprintf("An error has occurred while validating order number %s. Check street.", e.OrderRef)
	default:
		return fmt.Sprintf("An error has occurred while validating order number %s. Check postcode.", e.OrderRef)
	}
}

// WeightError reports an undeterminable weight for a weight-governed
// package type. Fatal for that order's build only.
type WeightError struct {
	OrderRef string
}

func (e *WeightError) Error() string {
	return fmt.Sprintf("order %s: %v", e.OrderRef, ErrNoWeightData)
}

func (e *WeightError) Unwrap() error {
	return ErrNoWeightData
}

// BuildError wraps any failure while assembling one consignment.
type BuildError struct {
	OrderRef string
	Step     string
	Cause    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building consignment for order %s (%s): %v", e.OrderRef, e.Step, e.Cause)
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// RemoteAPIError is a failure reported by the shipping platform. It stops
// the affected order's pipeline at that step; sibling orders continue.
type RemoteAPIError struct {
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

func (e *RemoteAPIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parcelway error (%s): %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("parcelway error (%s): %s", e.Code, e.Message)
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Cause
}

// Is matches RemoteAPIErrors by code.
func (e *RemoteAPIError) Is(target error) bool {
	t, ok := target.(*RemoteAPIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewRemoteAPIError creates a RemoteAPIError.
func NewRemoteAPIError(code, message string) *RemoteAPIError {
	return &RemoteAPIError{Code: code, Message: message}
}

// WithCause adds an underlying cause.
func (e *RemoteAPIError) WithCause(err error) *RemoteAPIError {
	e.Cause = err
	return e
}

// WithStatusCode adds the HTTP status of the failed call.
func (e *RemoteAPIError) WithStatusCode(code int) *RemoteAPIError {
	e.StatusCode = code
	return e
}

// MissingFieldError indicates a consignment is missing a field the platform
// requires. Raised client-side, before the remote call is made.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// StateError is a batch-level early stop with a single user-facing message
// (nothing selected, no shipment records).
type StateError struct {
	Cause error
}

func (e *StateError) Error() string {
	return e.Cause.Error()
}

func (e *StateError) Unwrap() error {
	return e.Cause
}
