package locale

import (
	"errors"
	"strings"

	"github.com/noah-isme/showcase-api/internal/pricing"
)

// ErrUnknownRegion is returned for path prefixes other than UK, US or EU.
var ErrUnknownRegion = errors.New("locale: unknown region")

// Region is the URL prefix a visitor browses under.
type Region string

const (
	UK Region = "UK"
	US Region = "US"
	EU Region = "EU"
)

// Regions lists the supported regions.
func Regions() []Region {
	return []Region{UK, US, EU}
}

// ParseRegion accepts "uk", "US", "/EU" and friends.
func ParseRegion(value string) (Region, error) {
	r := Region(strings.ToUpper(strings.Trim(strings.TrimSpace(value), "/")))
	switch r {
	case UK, US, EU:
		return r, nil
	}
	return "", ErrUnknownRegion
}

// Currency maps the region to its billing currency.
func (r Region) Currency() pricing.Currency {
	switch r {
	case US:
		return pricing.USD
	case EU:
		return pricing.EUR
	default:
		return pricing.GBP
	}
}

// Prefix returns the path prefix such as "/US".
func (r Region) Prefix() string {
	return "/" + string(r)
}

// RegionFor maps a currency back to its region.
func RegionFor(c pricing.Currency) Region {
	switch c {
	case pricing.USD:
		return US
	case pricing.EUR:
		return EU
	default:
		return UK
	}
}

// AmericanSpelling reports whether copy for this region uses US spelling.
func (r Region) AmericanSpelling() bool {
	return r == US
}
