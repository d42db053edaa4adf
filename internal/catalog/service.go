package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/showcase-api/internal/locale"
	"github.com/noah-isme/showcase-api/internal/money"
	"github.com/noah-isme/showcase-api/internal/pricing"
)

// FeatureView is a localized comparison row.
type FeatureView struct {
	Name     string `json:"name"`
	Tooltip  string `json:"tooltip"`
	Included bool   `json:"included"`
}

// PaymentStructure shows the deposit split of a price.
type PaymentStructure struct {
	Deposit      string `json:"deposit"`
	AfterKickoff string `json:"after_kickoff"`
}

// PlanView is a plan rendered for one region and billing period.
type PlanView struct {
	Slug          string            `json:"slug"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Popular       bool              `json:"popular"`
	CustomInquiry bool              `json:"custom_inquiry"`
	Price         string            `json:"price"`
	Amount        int64             `json:"amount,omitempty"`
	Per           string            `json:"per"`
	VATNotice     bool              `json:"vat_notice"`
	Payment       *PaymentStructure `json:"payment_structure,omitempty"`
	AnnualSaving  int               `json:"annual_saving_percent,omitempty"`
	CheckoutURL   string            `json:"checkout_url"`
	Features      []FeatureView     `json:"features"`
}

// ContactUs is shown instead of a price when none is published.
const ContactUs = "Contact us"

// Service renders the catalog for the comparison page.
type Service struct {
	Catalog *Catalog
	Speller locale.Speller
}

// Plans renders every plan for the region and period.
func (s *Service) Plans(region locale.Region, period Period) []PlanView {
	if s == nil || s.Catalog == nil {
		return nil
	}
	cur := region.Currency()
	spell := s.Speller.For(region)
	out := make([]PlanView, 0, len(s.Catalog.Plans))
	for _, p := range s.Catalog.Plans {
		view := PlanView{
			Slug:          p.Slug,
			Name:          p.Name,
			Description:   spell(p.Description),
			Popular:       p.Popular,
			CustomInquiry: p.CustomInquiry,
			Price:         ContactUs,
			Per:           "month",
			CheckoutURL:   s.Catalog.CheckoutURL(p.Slug, cur, period),
			Features:      s.features(p, cur, spell),
		}
		if period == Annual {
			view.Per = "year"
		}
		if line, ok := p.Prices[cur][period]; ok {
			view.Amount = line.Total
			view.Price = money.FormatUnits(cur, line.Total)
			view.VATNotice = cur.VATRate().IsPositive()
			if line.HasSplit() {
				view.Payment = &PaymentStructure{
					Deposit:      money.FormatUnits(cur, line.Deposit),
					AfterKickoff: money.FormatUnits(cur, line.AfterKickoff),
				}
			}
			if period == Monthly {
				view.AnnualSaving = s.Catalog.AnnualSavingPercent
			}
		}
		out = append(out, view)
	}
	return out
}

// AdSpend returns the included monthly ad spend, formatted.
func (s *Service) AdSpend(cur pricing.Currency) string {
	if s == nil || s.Catalog == nil {
		return ""
	}
	return money.FormatUnits(cur, s.Catalog.AdSpend[cur])
}

func (s *Service) features(p Plan, cur pricing.Currency, spell func(string) string) []FeatureView {
	adSpend := s.AdSpend(cur)
	out := make([]FeatureView, 0, len(p.Features))
	for _, f := range p.Features {
		var amount string
		if v, ok := f.Amounts[cur]; ok {
			amount = money.FormatUnits(cur, v)
		}
		r := strings.NewReplacer("{{adspend}}", adSpend, "{{amount}}", amount)
		out = append(out, FeatureView{
			Name:     spell(r.Replace(f.Name)),
			Tooltip:  spell(r.Replace(f.Tooltip)),
			Included: f.Included,
		})
	}
	return out
}

func decimalFromUnits(units int64) decimal.Decimal {
	return decimal.NewFromInt(units)
}
