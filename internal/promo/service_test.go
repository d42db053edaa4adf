package promo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/showcase-api/internal/catalog"
	"github.com/noah-isme/showcase-api/internal/locale"
	"github.com/noah-isme/showcase-api/internal/pricing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return &Service{
		Catalog: cat,
		Speller: locale.DefaultSpeller(),
		Now:     func() time.Time { return time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC) },
	}
}

func TestQuoteUKSixMonths(t *testing.T) {
	svc := newTestService(t)

	view, err := svc.Quote(context.Background(), locale.UK, pricing.Term6)
	require.NoError(t, err)

	require.Equal(t, pricing.GBP, view.Currency)
	require.Equal(t, int64(10), view.DiscountPercent)
	require.Equal(t, 1, view.BonusVideos)
	require.Equal(t, "£2,429", view.Monthly.Text)
	require.Equal(t, int64(14575), view.Total.ExVAT)
	require.Equal(t, int64(17490), view.Total.IncVAT)
	require.Equal(t, int64(1619), view.Savings.ExVAT)
	require.Equal(t, int64(270), view.MonthlySavings.ExVAT)
	require.Equal(t, int64(2915), view.VATAmount)
	require.Equal(t, VATNotice, view.VATNotice)
	require.Equal(t, "Sign up in October and get £500 per month in ad spend (included after setup)", view.Headline)
	require.Contains(t, view.CheckoutURL, "Onboarding-Reserve---Scale-GBP-Monthly")
	require.Contains(t, view.Included, "BONUS: 1 additional 30-second video")

	require.Len(t, view.Schedule, 4)
	require.Equal(t, pricing.FirstMonthDeposit, view.Schedule[0].Kind)
	require.Equal(t, int64(486), view.Schedule[0].Amount.ExVAT)
	require.Equal(t, pricing.RecurringMonthly, view.Schedule[3].Kind)
	require.Equal(t, 5, view.Schedule[3].Count)
}

func TestQuoteUSTwelveMonthsUsesAnnualCheckout(t *testing.T) {
	svc := newTestService(t)

	view, err := svc.Quote(context.Background(), locale.US, pricing.Term12)
	require.NoError(t, err)

	require.Empty(t, view.VATNotice)
	require.Equal(t, view.Total.ExVAT, view.Total.IncVAT)
	require.Equal(t, "$32,909", view.Total.Text)
	require.Contains(t, view.CheckoutURL, "Onboarding-Reserve---Scale-USD-Yearly")
	require.Contains(t, view.Included, "Weekly Optimization Sessions")
	require.Contains(t, view.Included, "$630 Ad Spend/month (Early Sign-On Bonus)")
	require.Contains(t, view.Headline, "$635")
	require.Equal(t, pricing.UpfrontDeposit, view.Schedule[0].Kind)
}

func TestQuoteRejectsInvalidTerm(t *testing.T) {
	svc := newTestService(t)

	view, err := svc.Quote(context.Background(), locale.EU, pricing.Term(9))
	require.ErrorIs(t, err, pricing.ErrInvalidTerm)
	require.Empty(t, view.Total.Text)
	require.Empty(t, view.Schedule)
}

func TestQuoteWithoutCatalogUsesBuiltInRates(t *testing.T) {
	svc := &Service{}

	view, err := svc.Quote(context.Background(), locale.EU, pricing.Term3)
	require.NoError(t, err)
	require.Equal(t, "€3,158", view.Monthly.Text)
	require.Equal(t, "#", view.CheckoutURL)
}

func TestTerms(t *testing.T) {
	svc := newTestService(t)

	opts := svc.Terms(locale.UK)
	require.Len(t, opts, 3)
	require.Equal(t, "Minimum term", opts[0].Description)
	require.Equal(t, "10% + 1 Free Video Ad", opts[1].Description)
	require.True(t, opts[1].Popular)
	require.Equal(t, "20% + 2 Free Video Ads", opts[2].Description)
	require.True(t, opts[2].Upfront)
}
