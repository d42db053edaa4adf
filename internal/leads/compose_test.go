package leads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/showcase-api/internal/locale"
	"github.com/noah-isme/showcase-api/internal/pricing"
)

var fixedNow = func() time.Time { return time.Date(2026, time.October, 15, 14, 30, 0, 0, time.UTC) }

func TestComposeScale(t *testing.T) {
	c := Composer{Now: fixedNow}

	lead, err := c.Compose(ScaleForm, locale.UK, Submission{
		Name: "Ada", Email: "ada@example.com", Message: "Call me", Term: 6,
	})
	require.NoError(t, err)

	require.NotEmpty(t, lead.ID)
	require.Equal(t, pricing.GBP, lead.Currency)
	require.Equal(t, "Scale Plan Interest - 6 Month Term", lead.Subject)
	require.Contains(t, lead.Body, "- Company: Not provided")
	require.Contains(t, lead.Body, "Selected Term: 6 months")
	require.Contains(t, lead.Body, "Estimated Savings: £1,619")
	require.Contains(t, lead.Body, "Source: Scale Promotion Page")
	require.Contains(t, lead.Fields, Field{"savings", "£1,619"})
}

func TestComposeScaleDefaultsToThreeMonths(t *testing.T) {
	c := Composer{Now: fixedNow}

	lead, err := c.Compose(ScaleForm, locale.US, Submission{Name: "Ada", Email: "ada@example.com", Message: "hi"})
	require.NoError(t, err)
	require.Contains(t, lead.Body, "Selected Term: 3 months")
	require.Contains(t, lead.Body, "Estimated Savings: $0")
}

func TestComposeScaleRejectsInvalidTerm(t *testing.T) {
	c := Composer{Now: fixedNow}

	_, err := c.Compose(ScaleForm, locale.EU, Submission{Name: "Ada", Email: "ada@example.com", Message: "hi", Term: 9})
	require.ErrorIs(t, err, pricing.ErrInvalidTerm)
}

func TestComposeCustom(t *testing.T) {
	c := Composer{Now: fixedNow}

	lead, err := c.Compose(CustomForm, locale.EU, Submission{
		Name: "Ada", Email: "ada@example.com", Company: "Analytical", Phone: "123",
		Requirements: "Lots of video", Budget: "€12,000 - €29,000", Timeline: "Q1", Billing: "annual",
	})
	require.NoError(t, err)
	require.Equal(t, "Custom Plan Inquiry from Product Page", lead.Subject)
	require.Contains(t, lead.Body, "Budget Range: €12,000 - €29,000")
	require.Contains(t, lead.Body, "Currency Selected: EUR")
	require.Contains(t, lead.Body, "Billing Period: annual")
	require.Equal(t, "custom-inquiry", lead.Form.netlifyName())
}

func TestComposeLinksSourcePage(t *testing.T) {
	c := Composer{Now: fixedNow, SiteURL: "https://use60.com/"}
	lead, err := c.Compose(CustomForm, locale.EU, Submission{Name: "Ada", Email: "ada@example.com", Requirements: "Video"})
	require.NoError(t, err)
	require.Contains(t, lead.Body, "Page: https://use60.com/EU/pricing\n")
}
