package leads

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/showcase-api/internal/locale"
	"github.com/noah-isme/showcase-api/internal/money"
	"github.com/noah-isme/showcase-api/internal/pricing"
)

// Field is one named value forwarded to form relays, kept in order.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Lead is a composed enquiry ready for delivery. It is also the background
// task payload, so it must stay JSON friendly.
type Lead struct {
	ID        string           `json:"id"`
	Form      FormKind         `json:"form"`
	Region    locale.Region    `json:"region"`
	Currency  pricing.Currency `json:"currency"`
	FromName  string           `json:"from_name"`
	FromEmail string           `json:"from_email"`
	Subject   string           `json:"subject"`
	Body      string           `json:"body"`
	Fields    []Field          `json:"fields"`
	CreatedAt time.Time        `json:"created_at"`
}

// RateSource returns the Scale rate used to estimate savings.
type RateSource func(pricing.Currency) (pricing.PlanRate, error)

// Composer turns submissions into leads.
// SiteURL, when set, adds a link to the page the form was sent from.
type Composer struct {
	Rates   RateSource
	Now     func() time.Time
	SiteURL string
}

func (c Composer) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Compose builds the subject, body and relay fields for a submission.
func (c Composer) Compose(kind FormKind, region locale.Region, s Submission) (Lead, error) {
	cur := region.Currency()
	if s.Currency != "" {
		parsed, err := pricing.ParseCurrency(s.Currency)
		if err != nil {
			return Lead{}, err
		}
		cur = parsed
	}
	lead := Lead{
		ID:        uuid.NewString(),
		Form:      kind,
		Region:    region,
		Currency:  cur,
		FromName:  s.Name,
		FromEmail: s.Email,
		CreatedAt: c.now().UTC(),
	}
	switch kind {
	case ScaleForm:
		return c.composeScale(lead, s)
	case CustomForm:
		return c.composeCustom(lead, s), nil
	}
	return Lead{}, fmt.Errorf("%w: %q", ErrUnknownForm, kind)
}

func (c Composer) writePage(b *strings.Builder, region locale.Region, page string) {
	if c.SiteURL == "" {
		return
	}
	fmt.Fprintf(b, "Page: %s%s%s\n", strings.TrimRight(c.SiteURL, "/"), region.Prefix(), page)
}

func (c Composer) composeScale(lead Lead, s Submission) (Lead, error) {
	term := pricing.Term(s.Term)
	if term == 0 {
		term = pricing.Term3
	}
	rate, err := c.rate(lead.Currency)
	if err != nil {
		return Lead{}, err
	}
	q, err := pricing.ComputeQuote(lead.Currency, rate, term)
	if err != nil {
		return Lead{}, err
	}
	savings := money.Format(lead.Currency, q.Savings.ExVAT)

	lead.Subject = fmt.Sprintf("Scale Plan Interest - %d Month Term", term)
	var b strings.Builder
	b.WriteString("New Scale Plan Inquiry\n\n")
	writeContact(&b, s, true)
	fmt.Fprintf(&b, "\nSelected Term: %d months\n", term)
	fmt.Fprintf(&b, "Currency: %s\n", lead.Currency)
	fmt.Fprintf(&b, "Estimated Savings: %s\n", savings)
	fmt.Fprintf(&b, "\nMessage:\n%s\n", s.Message)
	b.WriteString("\nSource: Scale Promotion Page\n")
	c.writePage(&b, lead.Region, "/scale")
	fmt.Fprintf(&b, "Timestamp: %s", lead.CreatedAt.Format(time.RFC1123))
	lead.Body = b.String()

	lead.Fields = []Field{
		{"name", s.Name},
		{"email", s.Email},
		{"company", s.Company},
		{"phone", s.Phone},
		{"message", s.Message},
		{"term", fmt.Sprintf("%d", term)},
		{"currency", string(lead.Currency)},
		{"savings", savings},
	}
	return lead, nil
}

func (c Composer) composeCustom(lead Lead, s Submission) Lead {
	billing := s.Billing
	if billing == "" {
		billing = "monthly"
	}
	lead.Subject = "Custom Plan Inquiry from Product Page"
	var b strings.Builder
	b.WriteString("New Custom Plan Inquiry from Product Page\n\n")
	writeContact(&b, s, false)
	fmt.Fprintf(&b, "\nRequirements:\n%s\n", s.Requirements)
	fmt.Fprintf(&b, "\nBudget Range: %s\n", s.Budget)
	fmt.Fprintf(&b, "Timeline: %s\n", s.Timeline)
	b.WriteString("\nSource: Product Page - Custom Plan Section\n")
	c.writePage(&b, lead.Region, "/pricing")
	fmt.Fprintf(&b, "Currency Selected: %s\n", lead.Currency)
	fmt.Fprintf(&b, "Billing Period: %s\n", billing)
	fmt.Fprintf(&b, "Timestamp: %s", lead.CreatedAt.Format(time.RFC1123))
	lead.Body = b.String()

	lead.Fields = []Field{
		{"name", s.Name},
		{"email", s.Email},
		{"company", s.Company},
		{"phone", s.Phone},
		{"requirements", s.Requirements},
		{"budget", s.Budget},
		{"timeline", s.Timeline},
		{"currency", string(lead.Currency)},
		{"billing", billing},
	}
	return lead
}

func writeContact(b *strings.Builder, s Submission, placeholders bool) {
	company, phone := s.Company, s.Phone
	if placeholders {
		company = orNotProvided(company)
		phone = orNotProvided(phone)
	}
	b.WriteString("Contact Details:\n")
	fmt.Fprintf(b, "- Name: %s\n", s.Name)
	fmt.Fprintf(b, "- Email: %s\n", s.Email)
	fmt.Fprintf(b, "- Company: %s\n", company)
	fmt.Fprintf(b, "- Phone: %s\n", phone)
}

func orNotProvided(v string) string {
	if v == "" {
		return "Not provided"
	}
	return v
}

func (c Composer) rate(cur pricing.Currency) (pricing.PlanRate, error) {
	if c.Rates != nil {
		return c.Rates(cur)
	}
	rate, ok := pricing.ScaleRate(cur)
	if !ok {
		return pricing.PlanRate{}, fmt.Errorf("%w: %s", pricing.ErrUnknownCurrency, cur)
	}
	return rate, nil
}
