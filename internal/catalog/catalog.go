package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/showcase-api/internal/pricing"
)

//go:embed plans.yaml
var defaultPlans []byte

var (
	// ErrPlanNotFound is returned for an unknown plan slug or name.
	ErrPlanNotFound = errors.New("catalog: plan not found")
	// ErrPriceNotFound means the plan has no published price for the currency and period.
	ErrPriceNotFound = errors.New("catalog: price not found")
	// ErrInvalidPeriod is returned for billing periods other than monthly or annual.
	ErrInvalidPeriod = errors.New("catalog: invalid billing period")
)

// Period is a billing period.
type Period string

const (
	Monthly Period = "monthly"
	Annual  Period = "annual"
)

// ParsePeriod defaults to monthly for an empty value.
func ParsePeriod(value string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(value))) {
	case "", Monthly:
		return Monthly, nil
	case Annual, "yearly":
		return Annual, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
}

func (p Period) itemSuffix() string {
	if p == Annual {
		return "Yearly"
	}
	return "Monthly"
}

// PriceLine is a published price. Deposit and AfterKickoff are zero for plans
// paid in full.
type PriceLine struct {
	Total        int64 `yaml:"total"`
	Deposit      int64 `yaml:"deposit"`
	AfterKickoff int64 `yaml:"after_kickoff"`
}

// HasSplit reports whether the price is paid as deposit plus after-kickoff.
func (p PriceLine) HasSplit() bool {
	return p.Deposit > 0
}

// Feature is one comparison row. Name and Tooltip may contain {{adspend}} and
// {{amount}} placeholders.
type Feature struct {
	Name     string                     `yaml:"name"`
	Tooltip  string                     `yaml:"tooltip"`
	Included bool                       `yaml:"included"`
	Amounts  map[pricing.Currency]int64 `yaml:"amounts"`
}

// Plan is a subscription plan shown on the comparison page.
type Plan struct {
	Slug          string                                    `yaml:"slug"`
	Name          string                                    `yaml:"name"`
	Description   string                                    `yaml:"description"`
	ItemPrefix    string                                    `yaml:"item_prefix"`
	Popular       bool                                      `yaml:"popular"`
	CustomInquiry bool                                      `yaml:"custom_inquiry"`
	Prices        map[pricing.Currency]map[Period]PriceLine `yaml:"prices"`
	Features      []Feature                                 `yaml:"features"`
}

// Checkout configures hosted checkout links.
type Checkout struct {
	BaseURL   string `yaml:"base_url"`
	UTMSource string `yaml:"utm_source"`
}

// Catalog is the full plan catalog.
type Catalog struct {
	Checkout            Checkout                   `yaml:"checkout"`
	AdSpend             map[pricing.Currency]int64 `yaml:"ad_spend"`
	AnnualSavingPercent int                        `yaml:"annual_saving_percent"`
	Plans               []Plan                     `yaml:"plans"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultPlans)
}

// Load reads a catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks currency codes, periods and deposit splits.
func (c *Catalog) Validate() error {
	if len(c.Plans) == 0 {
		return errors.New("catalog: no plans defined")
	}
	seen := map[string]struct{}{}
	for _, p := range c.Plans {
		if p.Slug == "" || p.Name == "" {
			return fmt.Errorf("catalog: plan %q missing slug or name", p.Name)
		}
		if _, dup := seen[p.Slug]; dup {
			return fmt.Errorf("catalog: duplicate plan %q", p.Slug)
		}
		seen[p.Slug] = struct{}{}
		for cur, periods := range p.Prices {
			if _, err := pricing.ParseCurrency(string(cur)); err != nil {
				return fmt.Errorf("catalog: plan %q: %w", p.Slug, err)
			}
			for period, line := range periods {
				if _, err := ParsePeriod(string(period)); err != nil {
					return fmt.Errorf("catalog: plan %q: %w", p.Slug, err)
				}
				if line.Total <= 0 {
					return fmt.Errorf("catalog: plan %q %s %s: total must be positive", p.Slug, cur, period)
				}
				if line.HasSplit() && line.Deposit+line.AfterKickoff != line.Total {
					return fmt.Errorf("catalog: plan %q %s %s: deposit %d + after kickoff %d != total %d",
						p.Slug, cur, period, line.Deposit, line.AfterKickoff, line.Total)
				}
			}
		}
	}
	return nil
}

// Plan finds a plan by slug or display name.
func (c *Catalog) Plan(key string) (Plan, error) {
	key = strings.TrimSpace(key)
	for _, p := range c.Plans {
		if p.Slug == key || strings.EqualFold(p.Name, key) {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: %q", ErrPlanNotFound, key)
}

// Price returns the published price, or ErrPriceNotFound ("Contact us").
func (c *Catalog) Price(plan string, cur pricing.Currency, period Period) (PriceLine, error) {
	p, err := c.Plan(plan)
	if err != nil {
		return PriceLine{}, err
	}
	line, ok := p.Prices[cur][period]
	if !ok {
		return PriceLine{}, fmt.Errorf("%w: %s %s %s", ErrPriceNotFound, p.Slug, cur, period)
	}
	return line, nil
}

// CheckoutURL builds the hosted checkout link, or "#" when the plan is unknown.
func (c *Catalog) CheckoutURL(plan string, cur pricing.Currency, period Period) string {
	p, err := c.Plan(plan)
	if err != nil || p.ItemPrefix == "" {
		return "#"
	}
	if _, ok := p.Prices[cur][period]; !ok {
		return "#"
	}
	item := fmt.Sprintf("%s-%s-%s", p.ItemPrefix, cur, period.itemSuffix())
	link := c.Checkout.BaseURL + "?subscription_items[item_price_id][0]=" + url.QueryEscape(item)
	if c.Checkout.UTMSource != "" {
		link += "&utm_source=" + url.QueryEscape(c.Checkout.UTMSource)
	}
	return link
}

// ScaleCheckoutURL picks the annual link for 12 month commitments and the
// monthly link otherwise.
func (c *Catalog) ScaleCheckoutURL(cur pricing.Currency, term pricing.Term) string {
	if term.Upfront() {
		return c.CheckoutURL("scale", cur, Annual)
	}
	return c.CheckoutURL("scale", cur, Monthly)
}

// ScaleRate converts the Scale plan's monthly price line into a pricing rate.
func (c *Catalog) ScaleRate(cur pricing.Currency) (pricing.PlanRate, error) {
	line, err := c.Price("scale", cur, Monthly)
	if err != nil {
		return pricing.PlanRate{}, err
	}
	rate := pricing.NewPlanRate(decimalFromUnits(line.Total))
	if line.HasSplit() {
		rate.DepositBase = decimalFromUnits(line.Deposit)
		rate.AfterKickoffBase = decimalFromUnits(line.AfterKickoff)
	}
	return rate, nil
}
