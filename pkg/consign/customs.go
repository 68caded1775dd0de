package consign

import "github.com/shopspring/decimal"

// BuildCustomsItems builds the customs manifest lines for a cross-border
// shipment. It returns nil when the destination does not require a customs
// declaration. Building is pure: running it twice on the same input yields
// item-for-item identical output.
func BuildCustomsItems(items []OrderItem, destinationCountry string, defaults MerchantDefaults) []CustomsItem {
	if !NeedsCustomsDeclaration(destinationCountry) {
		return nil
	}

	customs := make([]CustomsItem, 0, len(items))
	for _, item := range items {
		weight := defaults.WeightUnit.ToGrams(item.Weight * float64(item.Qty))
		if weight == 0 {
			weight = 1
		}

		origin := item.CountryOfOrigin
		if origin == "" {
			origin = defaults.CountryOfOrigin
		}

		customs = append(customs, CustomsItem{
			Description:    item.Name,
			Amount:         item.Qty,
			WeightGrams:    weight,
			ItemValueCents: CentsByPrice(item.Price),
			Classification: item.Classification,
			Country:        origin,
		})
	}
	return customs
}

// CentsByPrice converts a unit price to integer minor currency units by
// truncating the price to whole units first, then multiplying.
//
// This deliberately truncates fractional cents: 12.99 becomes 1200, not
// 1299. The behavior is a known discrepancy inherited from the upstream
// implementation and must not be changed to rounding without confirming
// intended behavior with the platform.
func CentsByPrice(price decimal.Decimal) int64 {
	return price.IntPart() * 100
}
