package consign

// CalculateWeight computes the total shippable weight in grams for
// weight-governed package types. For any other package type it is a no-op
// and returns nil physical properties.
//
// Resolution order, first positive value wins: explicit request override,
// merchant default, then the sum of per-item declared weights converted
// through the configured weight unit. A digital-stamp shipment can never be
// exported without a determinable weight, since carrier billing depends on
// it.
func CalculateWeight(ctx *ShipmentContext, packageType PackageType) (*PhysicalProperties, error) {
	if packageType != PackageTypeDigitalStamp {
		return nil, nil
	}

	if w := ctx.Options.DigitalStampWeight; w != nil && *w > 0 {
		return &PhysicalProperties{WeightGrams: *w}, nil
	}

	if w := ctx.Defaults.DigitalStampWeightGrams; w > 0 {
		return &PhysicalProperties{WeightGrams: w}, nil
	}

	total := 0
	for _, item := range ctx.Items {
		total += ctx.Defaults.WeightUnit.ToGrams(item.Weight * float64(item.Qty))
	}
	if total <= 0 {
		return nil, &WeightError{OrderRef: ctx.IncrementID}
	}
	return &PhysicalProperties{WeightGrams: total}, nil
}
