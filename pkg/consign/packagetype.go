package consign

import "strconv"

// PackageTypeDefault is the sentinel request value meaning "use the
// merchant default".
const PackageTypeDefault = "default"

// ResolvePackageType decides the effective package type.
//
// Resolution order: a present, non-"default" request override wins (numeric
// codes are used directly, known symbolic names are mapped); otherwise the
// merchant default applies. When the age check is effective the result is
// unconditionally the plain package type: age verification is incompatible
// with mailbox and stamp delivery.
func ResolvePackageType(merchantDefault PackageType, requestOverride string, ageCheckEffective bool) PackageType {
	resolved := merchantDefault

	if requestOverride != "" && requestOverride != PackageTypeDefault {
		if code, err := strconv.Atoi(requestOverride); err == nil {
			resolved = PackageType(code)
		} else if code, ok := packageTypeNames[requestOverride]; ok {
			resolved = code
		} else {
			resolved = PackageTypePackage
		}
	}

	if ageCheckEffective {
		return PackageTypePackage
	}
	return resolved
}

// resolveAgeCheck decides the effective age check with its own precedence
// table: explicit request flag > per-product age restriction > merchant
// default. Age check never applies outside the carrier's home country.
//
// Kept separate from the package-type resolution on purpose: the two tables
// have different precedence rules.
func resolveAgeCheck(destinationCountry string, request *bool, items []OrderItem, merchantDefault bool) bool {
	if destinationCountry != HomeCountry {
		return false
	}
	if request != nil {
		return *request
	}
	if fromProduct := ageCheckFromItems(items); fromProduct != nil {
		return *fromProduct
	}
	return merchantDefault
}

// ageCheckFromItems returns the per-product age restriction when any item
// declares one, nil when no item carries the attribute.
func ageCheckFromItems(items []OrderItem) *bool {
	var found *bool
	for _, item := range items {
		if item.AgeRestricted == nil {
			continue
		}
		if *item.AgeRestricted {
			t := true
			return &t
		}
		found = item.AgeRestricted
	}
	return found
}
