package consign

import (
	"fmt"
	"regexp"
	"strings"
)

// splitStreetPattern decomposes a full street line into a street name, a
// house number and an optional suffix, e.g. "Teststraat 123A" or
// "Dorpsstraat 12-2".
var splitStreetPattern = regexp.MustCompile(
	`^(.*?)\s(\d{1,5})[\s\-/]?([a-zA-Z]{1}\d{0,3}|-\d{1,4}|\d{2}\w{1,2}|[a-zA-Z]{1,4})?$`,
)

// splitStreetCountries are destinations whose consignments carry street and
// house number as separate fields. Only relevant when shipping from the
// carrier's home country.
var splitStreetCountries = map[string]struct{}{
	"NL": {},
	"BE": {},
}

// postalCodePatterns holds per-country postal code formats, matched after
// stripping all whitespace.
var postalCodePatterns = map[string]*regexp.Regexp{
	"NL": regexp.MustCompile(`^[1-9]\d{3}[A-Za-z]{2}$`),
	"BE": regexp.MustCompile(`^[1-9]\d{3}$`),
	"AT": regexp.MustCompile(`^\d{4}$`),
	"DE": regexp.MustCompile(`^\d{5}$`),
	"FR": regexp.MustCompile(`^\d{5}$`),
	"ES": regexp.MustCompile(`^\d{5}$`),
	"IT": regexp.MustCompile(`^\d{5}$`),
	"PT": regexp.MustCompile(`^\d{4}-?\d{3}$`),
}

// genericPostalCode accepts anything resembling a postal code for countries
// without a specific pattern.
var genericPostalCode = regexp.MustCompile(`^[A-Za-z0-9\-]{2,10}$`)

var whitespace = regexp.MustCompile(`\s+`)

// NormalizePostalCode strips all whitespace from a postal code. Validation
// of a code with internal whitespace is identical to validation of the
// stripped code.
func NormalizePostalCode(code string) string {
	return whitespace.ReplaceAllString(code, "")
}

// StreetParts is the decomposition of a full street line.
type StreetParts struct {
	Street       string
	Number       string
	NumberSuffix string
}

// SplitStreet decomposes a full street line into its parts. It fails when
// no house number can be isolated.
func SplitStreet(fullStreet string) (StreetParts, error) {
	trimmed := strings.TrimSpace(fullStreet)
	m := splitStreetPattern.FindStringSubmatch(trimmed)
	if m == nil || m[1] == "" || m[2] == "" {
		return StreetParts{}, fmt.Errorf("%w: no house number found in %q", ErrInvalidStreet, fullStreet)
	}
	return StreetParts{
		Street:       strings.TrimSpace(m[1]),
		Number:       m[2],
		NumberSuffix: strings.TrimSpace(m[3]),
	}, nil
}

// ValidateStreet checks that a street line decomposes into a street name
// and trailing house number. The check only applies when shipping from the
// carrier's home country to a split-street destination; other country pairs
// pass the line through as-is.
func ValidateStreet(fullStreet, originCountry, destinationCountry string) error {
	if originCountry != HomeCountry {
		return nil
	}
	if _, ok := splitStreetCountries[destinationCountry]; !ok {
		return nil
	}
	_, err := SplitStreet(fullStreet)
	return err
}

// ValidatePostalCode normalizes the code by stripping whitespace and checks
// it against the destination country's format.
func ValidatePostalCode(code, destinationCountry string) error {
	normalized := NormalizePostalCode(code)
	pattern, ok := postalCodePatterns[destinationCountry]
	if !ok {
		pattern = genericPostalCode
	}
	if !pattern.MatchString(normalized) {
		return fmt.Errorf("%w: %q does not match the %s format", ErrInvalidPostalCode, code, destinationCountry)
	}
	return nil
}
