// Package promo renders the Scale plan commitment calculator.
package promo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/showcase-api/internal/catalog"
	"github.com/noah-isme/showcase-api/internal/locale"
	"github.com/noah-isme/showcase-api/internal/money"
	"github.com/noah-isme/showcase-api/internal/obs"
	"github.com/noah-isme/showcase-api/internal/pricing"
)

// VATNotice is shown for currencies that carry VAT.
const VATNotice = "All prices shown +VAT (20% will be added at checkout)"

// headlineAdSpend is the early sign-on bonus quoted in the page headline. It
// differs from the feature line amount for USD and EUR.
var headlineAdSpend = map[pricing.Currency]int64{
	pricing.GBP: 500,
	pricing.USD: 635,
	pricing.EUR: 585,
}

// TermOption describes one selectable commitment.
type TermOption struct {
	Months          int    `json:"months"`
	Label           string `json:"label"`
	Description     string `json:"description"`
	Popular         bool   `json:"popular"`
	Upfront         bool   `json:"upfront"`
	DiscountPercent int64  `json:"discount_percent"`
	BonusVideos     int    `json:"bonus_videos"`
}

// Line is a rounded payment structure row.
type Line struct {
	Kind   pricing.InstallmentKind `json:"kind"`
	Count  int                     `json:"count"`
	Amount money.Display           `json:"amount"`
}

// View is everything the Scale page shows for one region and term.
type View struct {
	Region          locale.Region    `json:"region"`
	Currency        pricing.Currency `json:"currency"`
	Symbol          string           `json:"symbol"`
	Term            int              `json:"term"`
	DiscountPercent int64            `json:"discount_percent"`
	VATPercent      int64            `json:"vat_percent"`
	BonusVideos     int              `json:"bonus_videos"`

	BaseMonthly    money.Display `json:"base_monthly"`
	Monthly        money.Display `json:"monthly"`
	Deposit        money.Display `json:"deposit"`
	AfterKickoff   money.Display `json:"after_kickoff"`
	Total          money.Display `json:"total"`
	OriginalTotal  money.Display `json:"original_total"`
	Savings        money.Display `json:"savings"`
	MonthlySavings money.Display `json:"monthly_savings"`
	VATAmount      int64         `json:"vat_amount"`

	Schedule    []Line   `json:"schedule"`
	VATNotice   string   `json:"vat_notice,omitempty"`
	Headline    string   `json:"headline"`
	AdSpend     string   `json:"ad_spend"`
	CheckoutURL string   `json:"checkout_url"`
	Included    []string `json:"included"`
}

// Service builds Scale views. The zero value prices from the built-in rates
// and leaves the checkout link as "#".
type Service struct {
	Catalog *catalog.Catalog
	Speller locale.Speller
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Terms lists the commitment options in display order.
func (s *Service) Terms(region locale.Region) []TermOption {
	spell := s.Speller.For(region)
	out := make([]TermOption, 0, len(pricing.Terms()))
	for _, term := range pricing.Terms() {
		opt := TermOption{
			Months:          int(term),
			Label:           fmt.Sprintf("%d Months", term),
			Popular:         term == pricing.Term6,
			Upfront:         term.Upfront(),
			DiscountPercent: term.DiscountPercent(),
			BonusVideos:     term.BonusVideos(),
		}
		switch opt.BonusVideos {
		case 0:
			opt.Description = "Minimum term"
		case 1:
			opt.Description = fmt.Sprintf("%d%% + 1 Free Video Ad", opt.DiscountPercent)
		default:
			opt.Description = fmt.Sprintf("%d%% + %d Free Video Ads", opt.DiscountPercent, opt.BonusVideos)
		}
		opt.Description = spell(opt.Description)
		out = append(out, opt)
	}
	return out
}

// Quote prices the Scale plan for the region's currency. An invalid term is
// returned as a pricing.InvalidTermError and no view is produced.
func (s *Service) Quote(ctx context.Context, region locale.Region, term pricing.Term) (View, error) {
	cur := region.Currency()
	termLabel := strconv.Itoa(int(term))

	rate, err := s.rate(cur)
	if err != nil {
		obs.RecordQuote(string(cur), termLabel, "error")
		return View{}, err
	}
	q, err := pricing.ComputeQuote(cur, rate, term)
	if err != nil {
		obs.RecordQuote(string(cur), termLabel, "invalid_term")
		s.Logger.Debug().Ctx(ctx).Str("currency", string(cur)).Int("term", int(term)).Msg("quote rejected")
		return View{}, err
	}
	obs.RecordQuote(string(cur), termLabel, "ok")
	return s.render(region, q), nil
}

func (s *Service) rate(cur pricing.Currency) (pricing.PlanRate, error) {
	if s.Catalog != nil {
		rate, err := s.Catalog.ScaleRate(cur)
		if err == nil {
			return rate, nil
		}
		s.Logger.Warn().Err(err).Str("currency", string(cur)).Msg("scale rate missing from catalog, using built-in rate")
	}
	rate, ok := pricing.ScaleRate(cur)
	if !ok {
		return pricing.PlanRate{}, fmt.Errorf("%w: no scale rate for %s", pricing.ErrUnknownCurrency, cur)
	}
	return rate, nil
}

func (s *Service) render(region locale.Region, q pricing.Quote) View {
	cur := q.Currency
	spell := s.Speller.For(region)
	v := View{
		Region:          region,
		Currency:        cur,
		Symbol:          cur.Symbol(),
		Term:            int(q.Term),
		DiscountPercent: q.DiscountPercent(),
		VATPercent:      q.VATPercent(),
		BonusVideos:     q.BonusVideos,
		BaseMonthly:     money.Present(cur, q.BaseMonthly()),
		Monthly:         money.Present(cur, q.Monthly),
		Deposit:         money.Present(cur, q.Deposit),
		AfterKickoff:    money.Present(cur, q.AfterKickoff),
		Total:           money.Present(cur, q.Total),
		OriginalTotal:   money.Present(cur, q.OriginalTotal),
		Savings:         money.Present(cur, q.Savings),
		MonthlySavings:  money.Present(cur, q.MonthlySavings()),
		VATAmount:       money.Round(q.VATAmount),
		CheckoutURL:     "#",
	}
	for _, inst := range pricing.Schedule(q) {
		v.Schedule = append(v.Schedule, Line{Kind: inst.Kind, Count: inst.Count, Amount: money.Present(cur, inst.Amount)})
	}
	if q.HasVAT() {
		v.VATNotice = VATNotice
	}
	v.Headline = fmt.Sprintf("Sign up in %s and get %s per month in ad spend (included after setup)",
		s.now().Month(), money.FormatUnits(cur, headlineAdSpend[cur]))

	var featureAdSpend string
	if s.Catalog != nil {
		v.CheckoutURL = s.Catalog.ScaleCheckoutURL(cur, q.Term)
		featureAdSpend = money.FormatUnits(cur, s.Catalog.AdSpend[cur])
	} else {
		featureAdSpend = money.FormatUnits(cur, headlineAdSpend[cur])
	}
	v.AdSpend = featureAdSpend
	v.Included = []string{
		"Up to 10,000 AI Video Emails/month",
		"5,000 B2B Contacts/month",
		featureAdSpend + " Ad Spend/month (Early Sign-On Bonus)",
		spell("Weekly Optimisation Sessions"),
		"4x 30 second Ad Videos",
	}
	switch {
	case q.BonusVideos == 1:
		v.Included = append(v.Included, "BONUS: 1 additional 30-second video")
	case q.BonusVideos > 1:
		v.Included = append(v.Included, fmt.Sprintf("BONUS: %d additional 30-second videos", q.BonusVideos))
	}
	return v
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
